/*
Package strmap implements the mapping file that records which resource file
each flattened string entry originated from.

The format is one 'name:relative/path' pair per line, UTF-8, with forward
slashes regardless of platform. A name appears on multiple lines when the
same key exists in more than one resource file.
*/
package strmap

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Map records, for each string name, the resource files it was found in,
// relative to the root of the unpacked archive.
type Map struct {
	paths map[string][]string
}

func New() *Map {
	return &Map{paths: make(map[string][]string)}
}

// Add records that the named string occurs in the resource file at relPath.
// Paths are normalized to forward slashes; duplicate pairs are ignored.
func (m *Map) Add(name, relPath string) {
	relPath = filepath.ToSlash(relPath)
	for _, p := range m.paths[name] {
		if p == relPath {
			return
		}
	}
	m.paths[name] = append(m.paths[name], relPath)
}

// Paths returns the resource files the named string was found in, in the
// order they were added.
func (m *Map) Paths(name string) []string {
	return m.paths[name]
}

// Names returns all recorded string names, sorted.
func (m *Map) Names() []string {
	names := make([]string, 0, len(m.paths))
	for name := range m.paths {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Len returns the number of recorded string names.
func (m *Map) Len() int {
	return len(m.paths)
}

// Save writes the map to the given file, sorted by name then path, creating
// parent directories as necessary.
func (m *Map) Save(file string) (err error) {
	var b strings.Builder
	for _, name := range m.Names() {
		paths := make([]string, len(m.paths[name]))
		copy(paths, m.paths[name])
		sort.Strings(paths)
		for _, p := range paths {
			fmt.Fprintf(&b, "%v:%v\n", name, p)
		}
	}

	if err = os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return err
	}

	return os.WriteFile(file, []byte(b.String()), 0644)
}

// Load reads a map from the given file. Blank lines are skipped; a line
// without a separator is an error.
func Load(file string) (m *Map, err error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m = New()
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) == 0 {
			return nil, errors.New(fmt.Sprintf("strmap: malformed line %v in '%v': '%v'", lineNo, file, line))
		}
		m.Add(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}

	return m, nil
}
