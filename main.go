package main

import "github.com/unikit-build/unikit/cmd"

func main() {
	cmd.Execute()
}
