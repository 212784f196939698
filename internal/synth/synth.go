// Package synth renders the generated entry-point module and build
// manifest for a validated descriptor model.
package synth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/unikit-build/unikit/internal/descriptor"
	"github.com/unikit-build/unikit/internal/msg"
)

const (
	MainFile     = "main.ml"
	ManifestFile = "main.obuild"
	BackupSuffix = ".save"
)

// RenderMain renders the generated entry-point source: a fixed header,
// then one fragment per subsystem in a fixed order (filesystems, network,
// HTTP listener, entry point, process start). Fragments are independent
// except that the entry point references the network `ip` binding and, in
// the HTTP variant, the listener bindings.
func RenderMain(cfg *descriptor.Config) string {
	var sb strings.Builder

	sb.WriteString("(* Generated by unikit. Do not edit this file directly. *)\n")
	sb.WriteString("(* Rerun unikit on the application descriptor instead.  *)\n")

	for _, fs := range cfg.Filesystems {
		fmt.Fprintf(&sb, "\n(* filesystem %s *)\n", fs.Name)
		fmt.Fprintf(&sb, "let () = OS.Devices.register_kv_ro %q Filesystem_%s.t\n", fs.Name, fs.Name)
	}

	sb.WriteString("\n(* network configuration *)\n")
	if cfg.Network.Mode == descriptor.NetworkDHCP {
		sb.WriteString("let ip = `DHCP\n")
	} else {
		sb.WriteString("let ip =\n")
		fmt.Fprintf(&sb, "  let address = Nettypes.ipv4_addr_of_string %q in\n", cfg.Network.Address)
		fmt.Fprintf(&sb, "  let netmask = Nettypes.ipv4_addr_of_string %q in\n", cfg.Network.Netmask)
		fmt.Fprintf(&sb, "  let gateway = Nettypes.ipv4_addr_of_string %q in\n", cfg.Network.Gateway)
		sb.WriteString("  `IPv4 (address, netmask, [gateway])\n")
	}

	if cfg.HTTP != nil {
		sb.WriteString("\n(* http listener *)\n")
		fmt.Fprintf(&sb, "let listen_port = %d\n", cfg.HTTP.Port)
		if cfg.HTTP.BindAll {
			sb.WriteString("let listen_address = None\n")
		} else {
			fmt.Fprintf(&sb, "let listen_address = Some %q\n", cfg.HTTP.BindAddress)
		}
	}

	sb.WriteString("\n(* entry point *)\n")
	if cfg.Entry.Kind == descriptor.EntryHTTP {
		fmt.Fprintf(&sb, "let main () = %s ip listen_port listen_address\n", cfg.Entry.Main)
	} else {
		fmt.Fprintf(&sb, "let main () = %s ip\n", cfg.Entry.Main)
	}
	sb.WriteString("\nlet () = OS.Main.run (main ())\n")

	return sb.String()
}

// Write emits the entry-point module and the build manifest into the
// descriptor's directory. A pre-existing entry-point file is renamed to a
// `.save` backup first (replacing any older backup, so backups never
// accumulate); the manifest is overwritten unconditionally.
func Write(cfg *descriptor.Config) error {
	mainPath := filepath.Join(cfg.Dir, MainFile)
	backupPath := mainPath + BackupSuffix

	backedUp := false
	if _, err := os.Stat(mainPath); err == nil {
		if err := os.Rename(mainPath, backupPath); err != nil {
			return fmt.Errorf("cannot back up %s: %w", mainPath, err)
		}
		backedUp = true
	}

	main := RenderMain(cfg)
	if err := os.WriteFile(mainPath, []byte(main), 0644); err != nil {
		return err
	}

	if backedUp {
		reportRegen(backupPath, main)
	}

	manifestPath := filepath.Join(cfg.Dir, ManifestFile)
	return os.WriteFile(manifestPath, []byte(RenderManifest(cfg)), 0644)
}

// reportRegen summarizes what changed between the backed-up entry point
// and the freshly generated one.
func reportRegen(backupPath, generated string) {
	old, err := os.ReadFile(backupPath)
	if err != nil {
		return
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(old), generated, false)

	var ins, del int
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			ins += len(d.Text)
		case diffmatchpatch.DiffDelete:
			del += len(d.Text)
		}
	}

	if ins == 0 && del == 0 {
		msg.Info("regenerated %s (unchanged), previous version kept at %s", MainFile, filepath.Base(backupPath))
	} else {
		msg.Info("regenerated %s (+%d/-%d chars), previous version kept at %s", MainFile, ins, del, filepath.Base(backupPath))
	}
}
