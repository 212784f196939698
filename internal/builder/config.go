package builder

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFile is the optional per-project tool override file, looked up in
// the descriptor's directory.
const ConfigFile = "unikit.toml"

// Tools names the external binaries the pipelines invoke. Every field has
// a working default; unikit.toml and CLI flags can override them.
type Tools struct {
	Crunch  string `toml:"crunch"`  // filesystem embedding helper
	Obuild  string `toml:"obuild"`  // build configuration/build tool
	Compile string `toml:"compile"` // compiler driver
	Objcopy string `toml:"objcopy"` // section relocation
	Make    string `toml:"make"`    // runtime link driver
	JS      string `toml:"js"`      // script target linker
	Image   string `toml:"image"`   // kernel image conversion
}

// Config is the tool configuration for one run: external binary names, the
// runtime install prefix, and extra compile flags.
type Config struct {
	Tools   Tools    `toml:"tools"`
	Runtime string   `toml:"runtime"`
	Cflags  []string `toml:"cflags"`
}

func DefaultConfig() *Config {
	return &Config{
		Tools: Tools{
			Crunch:  "mir-crunch",
			Obuild:  "obuild",
			Compile: "ocamlbuild",
			Objcopy: "objcopy",
			Make:    "make",
			JS:      "js_of_ocaml",
			Image:   "mir-build",
		},
		Runtime: "/usr/local/lib/mirage",
	}
}

// ParseConfig decodes a unikit.toml over the defaults, so partial files
// only override what they mention.
func ParseConfig(rdr *bufio.Reader) (*Config, error) {
	cfg := DefaultConfig()

	dec := toml.NewDecoder(rdr)
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, errors.New(derr.String())
		}
		return nil, err
	}

	return cfg, nil
}

// LoadConfig reads dir/unikit.toml if it exists; a missing file yields the
// defaults.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFile)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := ParseConfig(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}
