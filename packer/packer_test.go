package packer

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libralibra/FBReader-Translator/resxml"
	"github.com/libralibra/FBReader-Translator/strmap"
	"github.com/libralibra/FBReader-Translator/trans"
)

func TestSuffix(t *testing.T) {
	assert.Equal(t, "", Suffix("", ""))
	assert.Equal(t, "zh", Suffix("zh", ""))
	assert.Equal(t, "zh-rTW", Suffix("zh", "tw"))
	assert.Equal(t, "pt-rBR", Suffix("pt", "BR"))
}

func TestTargetPath(t *testing.T) {
	got, renamed := TargetPath("values/strings.xml", "zh-rTW")
	assert.True(t, renamed)
	assert.Equal(t, "values-zh-rTW/strings.xml", got)

	got, renamed = TargetPath(filepath.Join("res", "values-v21", "strings.xml"), "zh")
	assert.True(t, renamed)
	assert.Equal(t, "res/values-zh/strings.xml", got)

	// No values folder: structure is kept
	got, renamed = TargetPath("raw/about.xml", "zh")
	assert.False(t, renamed)
	assert.Equal(t, "raw/about.xml", got)

	// Empty suffix keeps the path untouched
	got, renamed = TargetPath("values/strings.xml", "")
	assert.False(t, renamed)
	assert.Equal(t, "values/strings.xml", got)
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	files := make(map[string]string)
	for _, f := range r.File {
		in, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(in)
		require.NoError(t, err)
		in.Close()
		files[f.Name] = string(data)
	}

	return files
}

func setup(t *testing.T, dir string) (inXml, mapFile, outZip string) {
	t.Helper()

	m := strmap.New()
	m.Add("app_name", "values/strings.xml")
	m.Add("ok_button", "values/strings.xml")
	m.Add("menu_library", "values/menu.xml")
	mapFile = filepath.Join(dir, "mapping")
	require.NoError(t, m.Save(mapFile))

	inXml = filepath.Join(dir, "zh.xml")
	require.NoError(t, resxml.WriteEntries(inXml, []trans.Entry{
		{Name: "app_name", Content: "阅读器"},
		{Name: "ok_button", Content: "确定"},
		{Name: "menu_library", Content: "书库"},
	}))

	return inXml, mapFile, filepath.Join(dir, "out", "zh.zip")
}

func TestGenerateAndPack(t *testing.T) {
	dir := t.TempDir()
	inXml, mapFile, outZip := setup(t, dir)

	p := New(inXml, mapFile, outZip)
	p.SetTargetLanguage("zh", "")

	res, err := p.Generate()
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 3, res.Entries)
	assert.Equal(t, 0, res.Missing)

	files, err := p.Pack()
	require.NoError(t, err)
	assert.Equal(t, 2, files)

	packed := readZip(t, outZip)
	require.Contains(t, packed, "values-zh/strings.xml")
	require.Contains(t, packed, "values-zh/menu.xml")
	assert.Contains(t, packed["values-zh/strings.xml"], `<string name="app_name">阅读器</string>`)
	assert.Contains(t, packed["values-zh/strings.xml"], `<string name="ok_button">确定</string>`)
	assert.Contains(t, packed["values-zh/menu.xml"], `<string name="menu_library">书库</string>`)

	// Staging dir is cleaned up after packing
	assert.NoDirExists(t, filepath.Join(filepath.Dir(outZip), "translated_temp"))
}

func TestGenerateCountsMissingTranslations(t *testing.T) {
	dir := t.TempDir()
	_, mapFile, outZip := setup(t, dir)

	inXml := filepath.Join(dir, "partial.xml")
	require.NoError(t, resxml.WriteEntries(inXml, []trans.Entry{
		{Name: "app_name", Content: "阅读器"},
	}))

	p := New(inXml, mapFile, outZip)
	p.SetTargetLanguage("zh", "TW")

	res, err := p.Generate()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Entries)
	assert.Equal(t, 2, res.Missing)

	_, err = p.Pack()
	require.NoError(t, err)

	packed := readZip(t, outZip)
	require.Contains(t, packed, "values-zh-rTW/strings.xml")
	assert.NotContains(t, packed["values-zh-rTW/strings.xml"], "ok_button")
}

func TestGenerateUsesFallback(t *testing.T) {
	dir := t.TempDir()
	_, mapFile, outZip := setup(t, dir)

	inXml := filepath.Join(dir, "partial.xml")
	require.NoError(t, resxml.WriteEntries(inXml, []trans.Entry{
		{Name: "app_name", Content: "阅读器"},
	}))

	p := New(inXml, mapFile, outZip)
	p.SetTargetLanguage("zh", "")
	p.SetFallback([]trans.Entry{{Name: "ok_button", Content: "确定"}})

	res, err := p.Generate()
	require.NoError(t, err)
	assert.Equal(t, 2, res.Entries)
	assert.Equal(t, 1, res.Missing)
	assert.Equal(t, 1, res.FromFallback)
}

// Flatten output packed with the identity translation and no folder rename
// reproduces the original per-file content.
func TestRoundTripWithoutRename(t *testing.T) {
	dir := t.TempDir()
	inXml, mapFile, outZip := setup(t, dir)

	p := New(inXml, mapFile, outZip)
	p.SetTargetLanguage("", "")

	_, err := p.Generate()
	require.NoError(t, err)
	_, err = p.Pack()
	require.NoError(t, err)

	packed := readZip(t, outZip)
	require.Contains(t, packed, "values/strings.xml")
	require.Contains(t, packed, "values/menu.xml")
}

func TestGenerateEmptyMapping(t *testing.T) {
	dir := t.TempDir()
	inXml, _, outZip := setup(t, dir)

	mapFile := filepath.Join(dir, "empty-mapping")
	require.NoError(t, os.WriteFile(mapFile, nil, 0644))

	_, err := New(inXml, mapFile, outZip).Generate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}
