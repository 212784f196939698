package synth

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/unikit-build/unikit/internal/descriptor"
)

func dhcpConfig(dir string) *descriptor.Config {
	return &descriptor.Config{
		Name:    "app",
		Dir:     dir,
		Network: descriptor.Network{Mode: descriptor.NetworkDHCP},
		Entry:   descriptor.EntryPoint{Kind: descriptor.EntryIP, Main: "Start"},
		Depends: []string{"foo", "bar"},
	}
}

func TestRenderMainDHCP(t *testing.T) {
	out := RenderMain(dhcpConfig("/tmp"))

	if !strings.Contains(out, "let ip = `DHCP\n") {
		t.Errorf("network fragment should select DHCP:\n%s", out)
	}
	if !strings.Contains(out, "let main () = Start ip\n") {
		t.Errorf("entry fragment should reference Start and ip:\n%s", out)
	}
	if !strings.Contains(out, "let () = OS.Main.run (main ())\n") {
		t.Errorf("missing process start call:\n%s", out)
	}
}

func TestRenderMainStatic(t *testing.T) {
	cfg := dhcpConfig("/tmp")
	cfg.Network = descriptor.Network{
		Mode:    descriptor.NetworkStatic,
		Address: "10.0.0.2",
		Netmask: "255.255.255.0",
		Gateway: "10.0.0.1",
	}
	out := RenderMain(cfg)

	for _, literal := range []string{`"10.0.0.2"`, `"255.255.255.0"`, `"10.0.0.1"`} {
		if !strings.Contains(out, literal) {
			t.Errorf("static fragment should carry %s:\n%s", literal, out)
		}
	}
}

func TestRenderMainHTTP(t *testing.T) {
	cfg := dhcpConfig("/tmp")
	cfg.HTTP = &descriptor.HTTPListener{Port: 8080, BindAll: true}
	cfg.Entry = descriptor.EntryPoint{Kind: descriptor.EntryHTTP, Main: "Dispatch"}
	out := RenderMain(cfg)

	if !strings.Contains(out, "let listen_port = 8080\n") {
		t.Errorf("missing listener port binding:\n%s", out)
	}
	if !strings.Contains(out, "let listen_address = None\n") {
		t.Errorf("bind-all should render None:\n%s", out)
	}
	if !strings.Contains(out, "let main () = Dispatch ip listen_port listen_address\n") {
		t.Errorf("http entry fragment should reference the listener bindings:\n%s", out)
	}
}

func TestRenderMainFilesystems(t *testing.T) {
	cfg := dhcpConfig("/tmp")
	cfg.Filesystems = []descriptor.FilesystemEntry{
		{Name: "static", SourcePath: "/srv/www"},
		{Name: "extra", SourcePath: "/srv/extra"},
	}
	out := RenderMain(cfg)

	a := strings.Index(out, "Filesystem_static.t")
	b := strings.Index(out, "Filesystem_extra.t")
	if a < 0 || b < 0 || a > b {
		t.Errorf("filesystem fragments missing or out of order:\n%s", out)
	}
}

func TestRenderManifest(t *testing.T) {
	out := RenderManifest(dhcpConfig("/tmp"))

	if !strings.Contains(out, "name: app\n") {
		t.Errorf("manifest should name the package:\n%s", out)
	}
	if !strings.Contains(out, "executable mir-app\n") {
		t.Errorf("manifest should declare the executable:\n%s", out)
	}
	if !strings.Contains(out, "buildDepends: mirage, foo, bar\n") {
		t.Errorf("manifest should list the runtime dep first:\n%s", out)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := dhcpConfig(dir)

	if err := Write(cfg); err != nil {
		t.Fatal(err)
	}

	// no backup on the first run
	if _, err := os.Stat(filepath.Join(dir, MainFile+BackupSuffix)); !os.IsNotExist(err) {
		t.Error("backup should not exist after the first run")
	}

	firstManifest, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		t.Fatal(err)
	}

	// second and third runs: manifest is byte-identical, backups never pile up
	for range 2 {
		if err := Write(cfg); err != nil {
			t.Fatal(err)
		}
	}

	manifest, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(firstManifest, manifest) {
		t.Error("manifest output is not deterministic")
	}

	if _, err := os.Stat(filepath.Join(dir, MainFile+BackupSuffix)); err != nil {
		t.Errorf("backup missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, MainFile+BackupSuffix+BackupSuffix)); !os.IsNotExist(err) {
		t.Error("backups must not accumulate .save.save files")
	}
}

// End to end: descriptor text through model building to generated output.
func TestSynthesizeFromDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.conf")
	content := "main-ip: Start\nip-use-dhcp: true\ndepends: foo, bar\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := descriptor.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := descriptor.BuildConfig(path, entries)
	if err != nil {
		t.Fatal(err)
	}

	main := RenderMain(cfg)
	if !strings.Contains(main, "`DHCP") {
		t.Errorf("network fragment should select DHCP:\n%s", main)
	}
	if !strings.Contains(main, "Start ip") {
		t.Errorf("entry fragment should reference Start:\n%s", main)
	}

	manifest := RenderManifest(cfg)
	if !strings.Contains(manifest, "buildDepends: mirage, foo, bar\n") {
		t.Errorf("manifest dependencies wrong:\n%s", manifest)
	}
}
