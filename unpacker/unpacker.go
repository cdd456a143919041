/*
Package unpacker extracts a reference-locale archive and flattens the string
entries of every resource XML file in it into a single flat XML file, writing
a mapping file that records which resource file each entry came from.
*/
package unpacker

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/libralibra/FBReader-Translator/resxml"
	"github.com/libralibra/FBReader-Translator/strmap"
	"github.com/libralibra/FBReader-Translator/trans"
)

type Unpacker struct {
	inZip   string
	workDir string
}

// Result summarises a flatten run.
type Result struct {
	FilesScanned int
	Entries      int
	Duplicates   int
}

func New(inZip, workDir string) *Unpacker {
	return &Unpacker{inZip: inZip, workDir: workDir}
}

// Unpack extracts the archive into the work directory and returns the number
// of files written. Archive entries that would escape the work directory are
// rejected.
func (u *Unpacker) Unpack() (files int, err error) {
	r, err := zip.OpenReader(u.inZip)
	// Insecure entry names are caught per entry below
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return 0, err
	}
	defer r.Close()

	if err = os.MkdirAll(u.workDir, 0755); err != nil {
		return 0, err
	}

	for _, f := range r.File {
		name := filepath.FromSlash(f.Name)
		if !filepath.IsLocal(name) {
			return files, errors.New(fmt.Sprintf("unpacker: archive entry '%v' escapes the work directory", f.Name))
		}
		dest := filepath.Join(u.workDir, name)

		if f.FileInfo().IsDir() {
			if err = os.MkdirAll(dest, 0755); err != nil {
				return files, err
			}
			continue
		}

		if err = os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return files, err
		}
		if err = extractFile(f, dest); err != nil {
			return files, err
		}
		files++
	}

	return files, nil
}

func extractFile(f *zip.File, dest string) (err error) {
	in, err := f.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

// Flatten walks the work directory for resource XML files, merges their
// string entries into the flat XML file at outXml, and records the origin of
// every entry in the mapping file at mapFile. When the same key occurs in
// more than one file the later file's content wins; the mapping keeps all
// origins.
func (u *Unpacker) Flatten(outXml, mapFile string) (res Result, err error) {
	if _, err = os.Stat(u.workDir); os.IsNotExist(err) {
		return res, errors.New(fmt.Sprintf("unpacker: work directory '%v' not found, run unpack first", u.workDir))
	}

	merged := make(map[string]string)
	m := strmap.New()

	err = filepath.WalkDir(u.workDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".xml") {
			return nil
		}

		rel, err := filepath.Rel(u.workDir, path)
		if err != nil {
			return err
		}

		res.FilesScanned++
		entries, err := resxml.ReadEntries(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping '%v': %v\n", rel, err)
			return nil
		}
		if len(entries) == 0 {
			fmt.Fprintf(os.Stderr, "Warning: no string entries in '%v'\n", rel)
			return nil
		}

		for _, e := range entries {
			if old, ok := merged[e.Name]; ok && old != e.Content {
				fmt.Fprintf(os.Stderr, "Warning: duplicate entry '%v' in '%v' overwrites earlier content\n", e.Name, filepath.ToSlash(rel))
				res.Duplicates++
			}
			merged[e.Name] = e.Content
			m.Add(e.Name, rel)
		}

		return nil
	})
	if err != nil {
		return res, err
	}

	entries := make([]trans.Entry, 0, len(merged))
	for name, content := range merged {
		entries = append(entries, trans.Entry{Name: name, Content: content})
	}
	res.Entries = len(entries)

	if err = resxml.WriteEntries(outXml, entries); err != nil {
		return res, err
	}

	return res, m.Save(mapFile)
}
