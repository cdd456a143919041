/*
Package resxml reads and writes Android-style string resource files.

A resource file has a <resources> root element containing any number of
<string name="...">...</string> children. Other resource types (plurals,
string-arrays and so on) are ignored when reading and never produced when
writing.
*/
package resxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/libralibra/FBReader-Translator/trans"
)

type Resources struct {
	XMLName xml.Name `xml:"resources"`
	Strings []String `xml:"string"`

	locale string
}

type String struct {
	Name    string `xml:"name,attr"`
	Content string `xml:",chardata"`
}

func (r *Resources) Locale() string {
	return r.locale
}

func (r *Resources) SetLocale(locale string) {
	r.locale = locale
}

func (r *Resources) Entries() []trans.Entry {
	es := make([]trans.Entry, len(r.Strings))
	for i, s := range r.Strings {
		es[i] = trans.Entry{Name: s.Name, Content: s.Content}
	}

	return es
}

// LocaleFromFilename extracts the locale code from a flat resource file name,
// e.g. 'zh-rTW.xml' yields 'zh-rTW'.
func LocaleFromFilename(filename string) (locale string, err error) {
	parts := strings.Split(filename, ".")
	if len(parts) != 2 || parts[1] != "xml" || len(parts[0]) == 0 {
		return "", errors.New(fmt.Sprintf("resxml: cannot get locale from filename '%v'", filename))
	}

	return parts[0], nil
}

// NewFromFile parses the resource file at the given path. The file's base
// name (without extension) is recorded as the locale of the resulting table.
func NewFromFile(file string) (r *Resources, err error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	r = &Resources{}
	if err = xml.Unmarshal(data, r); err != nil {
		return nil, err
	}

	locale, err := LocaleFromFilename(filepath.Base(file))
	if err != nil {
		return nil, err
	}
	r.SetLocale(locale)

	return r, nil
}

// ReadEntries parses the resource file at the given path and returns its
// string entries in file order.
func ReadEntries(file string) (entries []trans.Entry, err error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var r Resources
	if err = xml.Unmarshal(data, &r); err != nil {
		return nil, err
	}

	return r.Entries(), nil
}

var contentEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

// WriteEntries writes entries to a resource file at the given path, creating
// parent directories as necessary. Output is deterministic: entries are
// sorted by name, one <string> element per line, four-space indent.
func WriteEntries(file string, entries []trans.Entry) (err error) {
	sorted := make([]trans.Entry, len(entries))
	copy(sorted, entries)
	trans.SortEntries(sorted)

	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	b.WriteString("<resources>\n")
	for _, e := range sorted {
		fmt.Fprintf(&b, "    <string name=\"%v\">%v</string>\n", attrEscaper.Replace(e.Name), contentEscaper.Replace(e.Content))
	}
	b.WriteString("</resources>\n")

	if err = os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return err
	}

	return os.WriteFile(file, []byte(b.String()), 0644)
}

// Export writes the table to '<locale>.xml' in the given directory.
func Export(t trans.Table, dir string) (err error) {
	if len(t.Locale()) == 0 {
		return errors.New("resxml: cannot export table with empty locale")
	}

	return WriteEntries(filepath.Join(dir, t.Locale()+".xml"), t.Entries())
}
