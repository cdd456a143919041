/*
Package packer rebuilds the nested resource folder structure for a target
locale by replaying a mapping file against translated flat XML content, then
repacks the resulting tree into a zip archive.
*/
package packer

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

type Packer struct {
	inXml    string
	mapFile  string
	outZip   string
	suffix   string
	fallback map[string]string
	stageDir string
}

// Result summarises a generate run.
type Result struct {
	Files        int
	Entries      int
	Missing      int
	FromFallback int
}

func New(inXml, mapFile, outZip string) *Packer {
	return &Packer{
		inXml:    inXml,
		mapFile:  mapFile,
		outZip:   outZip,
		fallback: make(map[string]string),
		stageDir: filepath.Join(filepath.Dir(outZip), "translated_temp"),
	}
}

// SetTargetLanguage sets the language (and optional region) used to rename
// 'values' folders, e.g. ('zh', 'TW') yields 'values-zh-rTW'. With an empty
// language the original folder names are kept.
func (p *Packer) SetTargetLanguage(lang, region string) {
	p.suffix = Suffix(lang, region)
}

// SetFallback supplies entries used for keys that are present in the mapping
// but missing from the translated XML, e.g. from the translation catalog.
func (p *Packer) SetFallback(entries []trans.Entry) {
	for _, e := range entries {
		p.fallback[e.Name] = e.Content
	}
}

// Suffix builds the folder name suffix for a language and optional region.
func Suffix(lang, region string) string {
	if len(lang) == 0 {
		return ""
	}
	if len(region) == 0 {
		return lang
	}
	return fmt.Sprintf("%v-r%v", lang, strings.ToUpper(region))
}

// TargetPath rewrites the relative path of a resource file for the target
// locale: every folder whose name starts with 'values' gets the given
// suffix appended. The second return value reports whether any folder was
// renamed.
func TargetPath(relPath, suffix string) (string, bool) {
	if len(suffix) == 0 {
		return filepath.ToSlash(relPath), false
	}

	parts := strings.Split(filepath.ToSlash(relPath), "/")
	renamed := false
	for i, part := range parts[:len(parts)-1] {
		if strings.HasPrefix(part, "values") {
			parts[i] = "values-" + suffix
			renamed = true
		}
	}

	return strings.Join(parts, "/"), renamed
}

// Generate rebuilds the per-file resource tree in a staging directory next
// to the output archive. Mapped keys with no translated content are skipped
// (or taken from the fallback entries) and counted in the result.
func (p *Packer) Generate() (res Result, err error) {
	m, err := strmap.Load(p.mapFile)
	if err != nil {
		return res, err
	}
	if m.Len() == 0 {
		return res, errors.New(fmt.Sprintf("packer: mapping file '%v' is empty", p.mapFile))
	}

	translated, err := resxml.ReadEntries(p.inXml)
	if err != nil {
		return res, err
	}

	content := make(map[string]string, len(translated))
	for _, e := range translated {
		content[e.Name] = e.Content
	}

	// Group entries by rewritten target file
	fileEntries := make(map[string][]trans.Entry)
	for _, name := range m.Names() {
		text, ok := content[name]
		if !ok {
			if text, ok = p.fallback[name]; ok {
				res.FromFallback++
			} else {
				res.Missing++
				continue
			}
		}

		for _, relPath := range m.Paths(name) {
			target, renamed := TargetPath(relPath, p.suffix)
			if !renamed && len(p.suffix) != 0 {
				fmt.Fprintf(os.Stderr, "Warning: no 'values' folder in path '%v' for '%v', keeping original structure\n", relPath, name)
			}
			fileEntries[target] = append(fileEntries[target], trans.Entry{Name: name, Content: text})
		}
		res.Entries++
	}

	if err = os.MkdirAll(p.stageDir, 0755); err != nil {
		return res, err
	}

	for target, entries := range fileEntries {
		if err = resxml.WriteEntries(filepath.Join(p.stageDir, filepath.FromSlash(target)), entries); err != nil {
			return res, err
		}
	}
	res.Files = len(fileEntries)

	return res, nil
}

// Pack zips the staging directory into the output archive (deflate) and
// removes the staging directory on success. Returns the number of files
// packed.
func (p *Packer) Pack() (files int, err error) {
	if _, err = os.Stat(p.stageDir); os.IsNotExist(err) {
		return 0, errors.New(fmt.Sprintf("packer: staging directory '%v' not found, run generate first", p.stageDir))
	}

	if err = os.MkdirAll(filepath.Dir(p.outZip), 0755); err != nil {
		return 0, err
	}
	out, err := os.Create(p.outZip)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	w := zip.NewWriter(out)
	err = filepath.WalkDir(p.stageDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(p.stageDir, path)
		if err != nil {
			return err
		}

		f, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()

		if _, err = io.Copy(f, in); err != nil {
			return err
		}
		files++

		return nil
	})
	if err != nil {
		w.Close()
		return files, err
	}

	if err = w.Close(); err != nil {
		return files, err
	}

	if err = os.RemoveAll(p.stageDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not remove staging directory '%v': %v\n", p.stageDir, err)
	}

	return files, nil
}
