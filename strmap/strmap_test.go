package strmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNormalizesAndDedupes(t *testing.T) {
	m := New()
	m.Add("app_name", filepath.Join("values", "strings.xml"))
	m.Add("app_name", "values/strings.xml")
	m.Add("app_name", "values/more.xml")

	assert.Equal(t, []string{"values/strings.xml", "values/more.xml"}, m.Paths("app_name"))
	assert.Equal(t, 1, m.Len())
}

func TestNamesAreSorted(t *testing.T) {
	m := New()
	m.Add("zebra", "values/strings.xml")
	m.Add("apple", "values/strings.xml")
	m.Add("mango", "values/strings.xml")

	assert.Equal(t, []string{"apple", "mango", "zebra"}, m.Names())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := New()
	m.Add("app_name", "values/strings.xml")
	m.Add("app_name", "res/values/other.xml")
	m.Add("ok_button", "values/buttons.xml")

	file := filepath.Join(t.TempDir(), "mapping")
	require.NoError(t, m.Save(file))

	loaded, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, m.Names(), loaded.Names())
	assert.ElementsMatch(t, m.Paths("app_name"), loaded.Paths("app_name"))
	assert.Equal(t, m.Paths("ok_button"), loaded.Paths("ok_button"))
}

func TestSaveIsSorted(t *testing.T) {
	m := New()
	m.Add("b_key", "values/two.xml")
	m.Add("a_key", "values/one.xml")

	file := filepath.Join(t.TempDir(), "mapping")
	require.NoError(t, m.Save(file))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "a_key:values/one.xml\nb_key:values/two.xml\n", string(data))
}

func TestLoadSkipsBlankLines(t *testing.T) {
	file := filepath.Join(t.TempDir(), "mapping")
	require.NoError(t, os.WriteFile(file, []byte("\napp_name:values/strings.xml\n\n"), 0644))

	m, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	file := filepath.Join(t.TempDir(), "mapping")
	require.NoError(t, os.WriteFile(file, []byte("app_name:values/strings.xml\nnot a pair\n"), 0644))

	_, err := Load(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
