package datastore

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libralibra/FBReader-Translator/config"
	"github.com/libralibra/FBReader-Translator/resxml"
	"github.com/libralibra/FBReader-Translator/strmap"
	"github.com/libralibra/FBReader-Translator/trans"
)

type stubTable struct {
	locale  string
	entries []trans.Entry
}

func (s stubTable) Locale() string         { return s.locale }
func (s stubTable) Entries() []trans.Entry { return s.entries }

func newTestStore(t *testing.T) *DataStore {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ds, err := New(db, config.DbDriverSqlite3)
	require.NoError(t, err)

	version, err := ds.MigrateUp()
	require.NoError(t, err)
	require.Equal(t, int64(2), version)

	return ds
}

func TestMigrateUpSeedsLocales(t *testing.T) {
	ds := newTestStore(t)

	locales, err := ds.GetLocaleList()
	require.NoError(t, err)

	codes := make(map[string]bool)
	for _, l := range locales {
		codes[l.Code] = true
	}
	assert.True(t, codes["en"])
	assert.True(t, codes["zh"])
	assert.True(t, codes["zh-rTW"])
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	ds := newTestStore(t)

	version, err := ds.MigrateUp()
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestCreateLocale(t *testing.T) {
	ds := newTestStore(t)

	l, err := ds.CreateLocale("ja", "Japanese")
	require.NoError(t, err)
	assert.Equal(t, "ja", l.Code)
	assert.NotZero(t, l.Id)

	_, err = ds.CreateLocale("ja", "Japanese")
	assert.Equal(t, ErrAlreadyExists, err)
}

func TestImportTableAndGetTable(t *testing.T) {
	ds := newTestStore(t)

	err := ds.ImportTable(stubTable{locale: "en", entries: []trans.Entry{
		{Name: "ok_button", Content: "OK"},
		{Name: "app_name", Content: "FBReader"},
	}})
	require.NoError(t, err)

	got, err := ds.GetTable("en")
	require.NoError(t, err)
	assert.Equal(t, "en", got.Locale())
	assert.Equal(t, []trans.Entry{
		{Name: "app_name", Content: "FBReader"},
		{Name: "ok_button", Content: "OK"},
	}, got.Entries())
}

func TestImportTableUpdatesExistingTranslations(t *testing.T) {
	ds := newTestStore(t)

	require.NoError(t, ds.ImportTable(stubTable{locale: "en", entries: []trans.Entry{
		{Name: "app_name", Content: "FBReader"},
	}}))
	require.NoError(t, ds.ImportTable(stubTable{locale: "en", entries: []trans.Entry{
		{Name: "app_name", Content: "FBReader Premium"},
	}}))

	got, err := ds.GetTable("en")
	require.NoError(t, err)
	assert.Equal(t, []trans.Entry{{Name: "app_name", Content: "FBReader Premium"}}, got.Entries())
}

func TestImportTableCreatesUnknownLocale(t *testing.T) {
	ds := newTestStore(t)

	require.NoError(t, ds.ImportTable(stubTable{locale: "ko", entries: []trans.Entry{
		{Name: "app_name", Content: "리더"},
	}}))

	got, err := ds.GetTable("ko")
	require.NoError(t, err)
	assert.Len(t, got.Entries(), 1)
}

func TestGetTableUnknownLocale(t *testing.T) {
	ds := newTestStore(t)

	_, err := ds.GetTable("xx")
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestCreateOrUpdateTranslation(t *testing.T) {
	ds := newTestStore(t)

	// Creating a translation for an unknown entry needs allowCreate
	err := ds.CreateOrUpdateTranslation("app_name", "zh", "阅读器", false)
	require.Error(t, err)

	require.NoError(t, ds.CreateOrUpdateTranslation("app_name", "zh", "阅读器", true))
	require.NoError(t, ds.CreateOrUpdateTranslation("app_name", "zh", "阅读软件", false))

	got, err := ds.GetTable("zh")
	require.NoError(t, err)
	assert.Equal(t, []trans.Entry{{Name: "app_name", Content: "阅读软件"}}, got.Entries())
}

func TestDeleteTranslation(t *testing.T) {
	ds := newTestStore(t)

	require.NoError(t, ds.CreateOrUpdateTranslation("app_name", "zh", "阅读器", true))
	require.NoError(t, ds.DeleteTranslation("app_name", "zh"))

	_, err := ds.GetTable("zh")
	assert.Equal(t, sql.ErrNoRows, err)

	err = ds.DeleteTranslation("app_name", "zh")
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestImportDir(t *testing.T) {
	ds := newTestStore(t)

	dir := t.TempDir()
	require.NoError(t, resxml.WriteEntries(filepath.Join(dir, "en.xml"), []trans.Entry{
		{Name: "app_name", Content: "FBReader"},
	}))
	require.NoError(t, resxml.WriteEntries(filepath.Join(dir, "zh.xml"), []trans.Entry{
		{Name: "app_name", Content: "阅读器"},
	}))

	notify := make(chan string, 10)
	count, err := ds.ImportDir(dir, notify)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, notify, 2)

	got, err := ds.GetTable("zh")
	require.NoError(t, err)
	assert.Equal(t, []trans.Entry{{Name: "app_name", Content: "阅读器"}}, got.Entries())
}

func TestSetEntryPaths(t *testing.T) {
	ds := newTestStore(t)

	require.NoError(t, ds.CreateOrUpdateTranslation("app_name", "en", "FBReader", true))

	m := strmap.New()
	m.Add("app_name", "values/strings.xml")
	m.Add("unknown_key", "values/other.xml")

	updated, err := ds.SetEntryPaths(m)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	entries, err := ds.GetEntryList()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "values/strings.xml", entries[0].Path)
}

func TestExportLocale(t *testing.T) {
	ds := newTestStore(t)

	require.NoError(t, ds.CreateOrUpdateTranslation("app_name", "zh", "阅读器", true))

	dir := t.TempDir()
	require.NoError(t, ds.ExportLocale("zh", dir))

	entries, err := resxml.ReadEntries(filepath.Join(dir, "zh.xml"))
	require.NoError(t, err)
	assert.Equal(t, []trans.Entry{{Name: "app_name", Content: "阅读器"}}, entries)
}
