// Package descriptor reads unikernel application descriptors: flat
// `key: value` text files whose keys are grouped into subsystems by a
// `<namespace>-<name>` convention.
package descriptor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// RawEntry is one key/value pair from the descriptor, in file order.
// Keys may repeat (e.g. multiple filesystem mounts).
type RawEntry struct {
	Key   string
	Value string
}

// Parse reads `key: value` lines from rdr. The first colon is the
// separator; lines without one are dropped, not errors. Whitespace is
// trimmed from both sides of the separator.
func Parse(rdr io.Reader) ([]RawEntry, error) {
	var entries []RawEntry

	scanner := bufio.NewScanner(rdr)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		entries = append(entries, RawEntry{
			Key:   strings.TrimSpace(line[:idx]),
			Value: strings.TrimSpace(line[idx+1:]),
		})
	}

	return entries, scanner.Err()
}

// ParseFile parses the descriptor at path.
func ParseFile(path string) ([]RawEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read descriptor %s: %w", path, err)
	}
	defer f.Close()

	return Parse(bufio.NewReader(f))
}

// Extract returns the (name, value) pairs of all entries whose key has the
// form `<prefix>-<name>`, matching the prefix case-insensitively and
// preserving file order. Entries that don't match are simply excluded;
// namespaces are not mutually exclusive at this stage.
func Extract(entries []RawEntry, prefix string) []RawEntry {
	var out []RawEntry
	for _, e := range entries {
		if len(e.Key) <= len(prefix)+1 {
			continue
		}
		if !strings.EqualFold(e.Key[:len(prefix)], prefix) || e.Key[len(prefix)] != '-' {
			continue
		}
		out = append(out, RawEntry{Key: e.Key[len(prefix)+1:], Value: e.Value})
	}
	return out
}

// values returns the values of all entries whose key equals key,
// case-insensitively, in file order.
func values(entries []RawEntry, key string) []string {
	var out []string
	for _, e := range entries {
		if strings.EqualFold(e.Key, key) {
			out = append(out, e.Value)
		}
	}
	return out
}
