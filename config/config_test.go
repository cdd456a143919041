package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	file := filepath.Join(t.TempDir(), "fbtranslator.toml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return file
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "https://fbreader.org/static/strings/android/en.zip", c.Archive.Url)
	assert.Equal(t, filepath.FromSlash("./en.zip"), c.Archive.File)
	assert.Equal(t, filepath.FromSlash("./mapping"), c.Flatten.MapFile)
	assert.Equal(t, "zh", c.Pack.Language)
	assert.Equal(t, 600, c.Translator.DelayMs)
	assert.Equal(t, DbDriverSqlite3, c.DB.Driver)
	assert.Equal(t, 8181, c.Server.Port)
}

func TestLoadOverridesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, `
[archive]
file = "./de.zip"
work_dir = "./de"

[pack]
language = "de"
region = "AT"
out_zip = "./de-rAT.zip"

[translator]
endpoint = "http://localhost:5000/translate"
delay_ms = 100
`))
	require.NoError(t, err)

	assert.Equal(t, "./de.zip", c.Archive.File)
	assert.Equal(t, "de", c.Pack.Language)
	assert.Equal(t, "AT", c.Pack.Region)
	assert.Equal(t, "http://localhost:5000/translate", c.Translator.Endpoint)
	assert.Equal(t, 100, c.Translator.DelayMs)
}

func TestLoadRejectsInvalidDriver(t *testing.T) {
	_, err := Load(writeConfig(t, `
[database]
driver = "mysql"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
}

func TestLoadRejectsMissingPostgresSettings(t *testing.T) {
	_, err := Load(writeConfig(t, `
[database]
driver = "postgres"
host = "localhost"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.name")
}

func TestLoadRejectsMissingPackLanguage(t *testing.T) {
	_, err := Load(writeConfig(t, `
[pack]
language = ""
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pack.language")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestConnectionString(t *testing.T) {
	d := DbConfig{Driver: DbDriverSqlite3, File: "./translations.db"}
	assert.Equal(t, "./translations.db", d.ConnectionString())

	d = DbConfig{Driver: DbDriverPostgresql, User: "fb", Password: "pw", Host: "db", Name: "strings"}
	assert.Equal(t, "postgres://fb:pw@db/strings?sslmode=disable", d.ConnectionString())
}
