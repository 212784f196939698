package descriptor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Fixed static network fallbacks, applied field by field when a static
// configuration leaves something unspecified.
const (
	DefaultAddress = "10.0.0.2"
	DefaultNetmask = "255.255.255.0"
	DefaultGateway = "10.0.0.1"
)

var (
	errNoMain      = errors.New("no main specified")
	errTooManyMain = errors.New("too many main functions")
)

// FilesystemEntry is one `fs-<name>` mount whose source directory gets
// embedded into the unikernel at build time.
type FilesystemEntry struct {
	Name       string
	SourcePath string
}

type NetworkMode int

const (
	NetworkDHCP NetworkMode = iota
	NetworkStatic
)

// Network selects either DHCP or a static IPv4 configuration. The static
// fields are always populated (with the fixed fallbacks if need be) when
// Mode is NetworkStatic.
type Network struct {
	Mode    NetworkMode
	Address string
	Netmask string
	Gateway string
}

// HTTPListener is present only when the descriptor carries both an
// `http-port` and an `http-address` key. An address of "*" binds all
// interfaces.
type HTTPListener struct {
	Port        int
	BindAddress string
	BindAll     bool
}

type EntryKind int

const (
	EntryIP EntryKind = iota
	EntryHTTP
)

// EntryPoint is the single designated main symbol, selected as either the
// IP-mode or HTTP-mode variant. Exactly one must be given.
type EntryPoint struct {
	Kind EntryKind
	Main string
}

// Config is the validated, defaulted model of one descriptor file.
type Config struct {
	Name        string // package name, from the descriptor filename
	Dir         string // descriptor directory; build and codegen happen here
	Filesystems []FilesystemEntry
	Network     Network
	HTTP        *HTTPListener
	Entry       EntryPoint
	Depends     []string
}

// BuildConfig validates and defaults every subsystem view of entries into
// one Config. path is the descriptor path; filesystem sources are resolved
// relative to its directory.
func BuildConfig(path string, entries []RawEntry) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(abs)
	cfg := &Config{
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
		Dir:  filepath.Dir(abs),
	}

	if cfg.Filesystems, err = buildFilesystems(entries, cfg.Dir); err != nil {
		return nil, err
	}
	cfg.Network = buildNetwork(entries)
	if cfg.HTTP, err = buildHTTPListener(entries); err != nil {
		return nil, err
	}
	if cfg.Entry, err = buildEntryPoint(entries); err != nil {
		return nil, err
	}
	cfg.Depends = buildDepends(entries)

	return cfg, nil
}

func buildFilesystems(entries []RawEntry, basedir string) ([]FilesystemEntry, error) {
	var fss []FilesystemEntry
	for _, e := range Extract(entries, "fs") {
		src := e.Value
		if !filepath.IsAbs(src) {
			src = filepath.Join(basedir, src)
		}
		stat, err := os.Stat(src)
		if err != nil || !stat.IsDir() {
			return nil, fmt.Errorf("filesystem %q: source directory %s does not exist", e.Key, src)
		}
		fss = append(fss, FilesystemEntry{Name: e.Key, SourcePath: src})
	}
	return fss, nil
}

func buildNetwork(entries []RawEntry) Network {
	ip := Extract(entries, "ip")

	// `use-dhcp: true` wins over any other ip-* key
	for _, e := range ip {
		if e.Key == "use-dhcp" && e.Value == "true" {
			return Network{Mode: NetworkDHCP}
		}
	}

	net := Network{
		Mode:    NetworkStatic,
		Address: DefaultAddress,
		Netmask: DefaultNetmask,
		Gateway: DefaultGateway,
	}
	for _, e := range ip {
		switch e.Key {
		case "address":
			net.Address = e.Value
		case "netmask":
			net.Netmask = e.Value
		case "gateway":
			net.Gateway = e.Value
		}
	}
	return net
}

func buildHTTPListener(entries []RawEntry) (*HTTPListener, error) {
	var port, address string
	var havePort, haveAddress bool
	for _, e := range Extract(entries, "http") {
		switch e.Key {
		case "port":
			port, havePort = e.Value, true
		case "address":
			address, haveAddress = e.Value, true
		}
	}
	if !havePort || !haveAddress {
		return nil, nil
	}

	n, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid http port %q", port)
	}

	listener := &HTTPListener{Port: n}
	if address == "*" {
		listener.BindAll = true
	} else {
		listener.BindAddress = address
	}
	return listener, nil
}

func buildEntryPoint(entries []RawEntry) (EntryPoint, error) {
	var mains []EntryPoint
	for _, e := range Extract(entries, "main") {
		switch e.Key {
		case "ip":
			mains = append(mains, EntryPoint{Kind: EntryIP, Main: e.Value})
		case "http":
			mains = append(mains, EntryPoint{Kind: EntryHTTP, Main: e.Value})
		}
	}

	switch len(mains) {
	case 0:
		return EntryPoint{}, errNoMain
	case 1:
		return mains[0], nil
	default:
		return EntryPoint{}, errTooManyMain
	}
}

func buildDepends(entries []RawEntry) []string {
	var deps []string
	for _, v := range values(entries, "depends") {
		for _, dep := range strings.Split(v, ",") {
			if dep = strings.TrimSpace(dep); dep != "" {
				deps = append(deps, dep)
			}
		}
	}
	return deps
}
