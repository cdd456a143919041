/*
Package datastore implements the translation catalog: a database of string
entries and their per-locale translations, used as a translation memory
between runs of the flatten/pack pipeline.
*/
package datastore

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/libralibra/FBReader-Translator/config"
	"github.com/libralibra/FBReader-Translator/resxml"
	"github.com/libralibra/FBReader-Translator/strmap"
	"github.com/libralibra/FBReader-Translator/trans"
)

var ErrAlreadyExists = errors.New("datastore: already exists")

// Adapter provides database-driver-specific query strings, etc.
type Adapter interface {
	PostCreate(*sqlx.DB) error
	MigrateUp(*sqlx.DB) (int64, error)
	MigrateDown(*sqlx.DB) (int64, error)
	SupportsLastInsertId() bool
	CreateLocaleQuery() string
	CreateEntryQuery() string
	CreateTranslationQuery() string
	GetAllLocalesQuery() string
	GetAllEntriesQuery() string
	GetLocaleTableQuery() string
	GetSingleLocaleQuery() string
	GetSingleEntryIdQuery() string
	GetSingleTranslationIdQuery() string
	UpdateTranslationQuery() string
	UpdateEntryPathQuery() string
	DeleteTranslationQuery() string
}

type DataStore struct {
	adapter     Adapter
	db          *sqlx.DB
	localeCache map[string]trans.Locale
	entryCache  map[string]int64
	Stats       Stats
}

type Stats map[StatKey]StatItem

type StatKey struct {
	Name   string
	Action string
}

type StatItem struct {
	Duration time.Duration
	Count    int
}

func (s Stats) Log(name, action string, d time.Duration) {
	item := s[StatKey{Name: name, Action: action}]
	item.Count++
	item.Duration += d
	s[StatKey{Name: name, Action: action}] = item
}

func (s Stats) String() (out string) {
	for k, v := range s {
		out += fmt.Sprintf("%v  %v '%v' actions took %v total, %v avg\n", v.Count, k.Name, k.Action, v.Duration, v.Duration/time.Duration(v.Count))
	}

	return out
}

// Creates a new datastore using the given database connection. The driver
// parameter is used to select the appropriate database adapter, and should
// be one of the config.DbDriver* constants.
func New(db *sqlx.DB, driver string) (ds *DataStore, err error) {
	adp, err := newAdapter(driver)
	if err != nil {
		return &DataStore{}, err
	}

	ds = &DataStore{
		adapter:     adp,
		db:          db,
		localeCache: make(map[string]trans.Locale),
		entryCache:  make(map[string]int64),
		Stats:       make(map[StatKey]StatItem),
	}

	err = ds.adapter.PostCreate(ds.db)
	if err != nil {
		return ds, err
	}

	return ds, nil
}

func newAdapter(driver string) (adp Adapter, err error) {
	switch driver {
	case config.DbDriverSqlite3:
		adp = &Sqlite3Adapter{}
	case config.DbDriverPostgresql:
		adp = &PostgresAdapter{}
	}

	if adp == nil {
		return nil, errors.New(fmt.Sprintf("no adapter available for database driver '%v'", driver))
	}

	return adp, nil
}

// MigrateUp brings the database schema up to the latest version.
func (ds *DataStore) MigrateUp() (version int64, err error) {
	return ds.adapter.MigrateUp(ds.db)
}

// MigrateDown reverts all schema migrations.
func (ds *DataStore) MigrateDown() (version int64, err error) {
	return ds.adapter.MigrateDown(ds.db)
}

// Entry is a catalog string entry together with the resource file it was
// first seen in.
type Entry struct {
	Id   int64  `db:"id"`
	Name string `db:"name"`
	Path string `db:"path"`
}

// LocaleTable is the set of translations the catalog holds for one locale.
type LocaleTable struct {
	locale  string
	entries []trans.Entry
}

func (t *LocaleTable) Locale() string {
	return t.locale
}

func (t *LocaleTable) Entries() []trans.Entry {
	return t.entries
}

func (ds *DataStore) create(query string, args ...interface{}) (id int64, err error) {
	if ds.adapter.SupportsLastInsertId() {
		result, err := ds.db.Exec(query, args...)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	// Postgres: query carries a RETURNING id clause
	err = ds.db.QueryRow(query, args...).Scan(&id)

	return id, err
}

func (ds *DataStore) getLocale(code string) (l trans.Locale, err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("locale", "get", time.Since(start)) }()

	if l, ok := ds.localeCache[code]; ok {
		return l, nil
	}

	err = ds.db.Get(&l, ds.adapter.GetSingleLocaleQuery(), code)
	if err != nil {
		if err == sql.ErrNoRows {
			return l, errors.New(fmt.Sprintf("Locale '%v' does not exist in catalog", code))
		}

		return l, err
	}
	ds.localeCache[code] = l

	return l, nil
}

// CreateLocale adds a locale to the catalog. Returns ErrAlreadyExists when
// the code is already present.
func (ds *DataStore) CreateLocale(code, name string) (l trans.Locale, err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("locale", "insert", time.Since(start)) }()

	if _, err = ds.getLocale(code); err == nil {
		return l, ErrAlreadyExists
	}

	id, err := ds.create(ds.adapter.CreateLocaleQuery(), code, name)
	if err != nil {
		return l, err
	}

	l = trans.Locale{Id: id, Code: code, Name: name}
	ds.localeCache[code] = l

	return l, nil
}

func (ds *DataStore) createOrGetLocale(code string) (l trans.Locale, err error) {
	l, err = ds.getLocale(code)
	if err == nil {
		return l, nil
	}

	l, err = ds.CreateLocale(code, code)
	if err == ErrAlreadyExists {
		return ds.getLocale(code)
	}

	return l, err
}

func (ds *DataStore) getEntryId(name string) (id int64, err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("entry", "get", time.Since(start)) }()

	if id, ok := ds.entryCache[name]; ok {
		return id, nil
	}

	row := ds.db.QueryRow(ds.adapter.GetSingleEntryIdQuery(), name)
	err = row.Scan(&id)
	if err != nil {
		return 0, err
	}
	ds.entryCache[name] = id

	return id, nil
}

func (ds *DataStore) createEntry(name string) (id int64, err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("entry", "insert", time.Since(start)) }()

	id, err = ds.create(ds.adapter.CreateEntryQuery(), name)
	if err != nil {
		return 0, err
	}
	ds.entryCache[name] = id

	return id, nil
}

func (ds *DataStore) createOrGetEntry(name string) (id int64, err error) {
	id, err = ds.getEntryId(name)

	if err == sql.ErrNoRows {
		return ds.createEntry(name)
	}

	return id, err
}

func (ds *DataStore) getTranslationId(localeId, entryId int64) (id int64, err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("translation", "get", time.Since(start)) }()

	row := ds.db.QueryRow(ds.adapter.GetSingleTranslationIdQuery(), entryId, localeId)
	err = row.Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (ds *DataStore) insertTranslation(content string, localeId, entryId int64) (err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("translation", "insert", time.Since(start)) }()

	_, err = ds.db.Exec(ds.adapter.CreateTranslationQuery(), localeId, content, entryId)

	return err
}

func (ds *DataStore) updateTranslation(content string, transId int64) (err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("translation", "update", time.Since(start)) }()

	_, err = ds.db.Exec(ds.adapter.UpdateTranslationQuery(), content, transId)

	return err
}

// Gets all locales known to the catalog.
func (ds *DataStore) GetLocaleList() (locales []trans.Locale, err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("locale", "get", time.Since(start)) }()

	err = ds.db.Select(&locales, ds.adapter.GetAllLocalesQuery())

	return locales, err
}

// Gets all string entries known to the catalog.
func (ds *DataStore) GetEntryList() (entries []Entry, err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("entry", "get", time.Since(start)) }()

	err = ds.db.Select(&entries, ds.adapter.GetAllEntriesQuery())

	return entries, err
}

// GetTable returns all translations the catalog holds for the locale with
// the given code. Returns sql.ErrNoRows when the locale has no translations.
func (ds *DataStore) GetTable(code string) (t trans.Table, err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("locale", "get", time.Since(start)) }()

	var rows []struct {
		Name    string `db:"name"`
		Content string `db:"content"`
	}
	err = ds.db.Select(&rows, ds.adapter.GetLocaleTableQuery(), code)
	if err != nil {
		return t, err
	}

	if len(rows) == 0 {
		return t, sql.ErrNoRows
	}

	table := LocaleTable{locale: code, entries: make([]trans.Entry, len(rows))}
	for i, r := range rows {
		table.entries[i] = trans.Entry{Name: r.Name, Content: r.Content}
	}

	return &table, nil
}

// Updates the translation of the named entry in the given locale.
// When allowCreate is false, will return an error if the entry does not
// exist or is not yet translated into the given locale. If allowCreate is
// true, the entry, locale and translation are created as needed.
func (ds *DataStore) CreateOrUpdateTranslation(entryName, localeCode, content string, allowCreate bool) (err error) {
	var entryId int64
	if allowCreate {
		entryId, err = ds.createOrGetEntry(entryName)
	} else {
		entryId, err = ds.getEntryId(entryName)
	}
	if err != nil {
		return err
	}

	var locale trans.Locale
	if allowCreate {
		locale, err = ds.createOrGetLocale(localeCode)
	} else {
		locale, err = ds.getLocale(localeCode)
	}
	if err != nil {
		return err
	}

	transId, err := ds.getTranslationId(locale.Id, entryId)
	if err != nil && !allowCreate {
		return err
	} else if err == sql.ErrNoRows && allowCreate {
		err = ds.insertTranslation(content, locale.Id, entryId)
	} else if err == nil {
		err = ds.updateTranslation(content, transId)
	}

	return err
}

// DeleteTranslation removes the named entry's translation for one locale.
func (ds *DataStore) DeleteTranslation(entryName, localeCode string) (err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("translation", "delete", time.Since(start)) }()

	entryId, err := ds.getEntryId(entryName)
	if err != nil {
		return err
	}
	locale, err := ds.getLocale(localeCode)
	if err != nil {
		return err
	}
	transId, err := ds.getTranslationId(locale.Id, entryId)
	if err != nil {
		return err
	}

	_, err = ds.db.Exec(ds.adapter.DeleteTranslationQuery(), transId)

	return err
}

// ImportTable imports all entries of a locale table, creating the locale,
// entries and translations as needed and updating existing translations.
func (ds *DataStore) ImportTable(t trans.Table) (err error) {
	locale, err := ds.createOrGetLocale(t.Locale())
	if err != nil {
		return err
	}

	for _, e := range t.Entries() {
		entryId, err := ds.createOrGetEntry(e.Name)
		if err != nil {
			return err
		}

		if transId, err := ds.getTranslationId(locale.Id, entryId); err == nil {
			err = ds.updateTranslation(e.Content, transId)
		} else {
			if err == sql.ErrNoRows {
				err = ds.insertTranslation(e.Content, locale.Id, entryId)
			}
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// ImportDir imports every flat locale XML file ('<locale>.xml') in the given
// directory, sending each imported file name to the notify channel.
func (ds *DataStore) ImportDir(dir string, notify chan string) (count int, err error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return 0, err
	}

	for i, file := range files {
		table, err := resxml.NewFromFile(file)
		if err != nil {
			return i, err
		}

		err = ds.ImportTable(table)
		if err != nil {
			return i, err
		}

		notify <- filepath.Base(file)
	}

	return len(files), nil
}

// SetEntryPaths records, for every entry named in the mapping, the resource
// file it originated from. Entries not present in the catalog are skipped.
func (ds *DataStore) SetEntryPaths(m *strmap.Map) (updated int, err error) {
	start := time.Now()
	defer func() { ds.Stats.Log("entry", "update", time.Since(start)) }()

	for _, name := range m.Names() {
		paths := m.Paths(name)
		if len(paths) == 0 {
			continue
		}
		if _, err = ds.getEntryId(name); err == sql.ErrNoRows {
			continue
		} else if err != nil {
			return updated, err
		}

		if _, err = ds.db.Exec(ds.adapter.UpdateEntryPathQuery(), paths[0], name); err != nil {
			return updated, err
		}
		updated++
	}

	return updated, nil
}

// ExportLocale writes all catalog translations for the locale with the given
// code to a flat XML file in the given directory.
func (ds *DataStore) ExportLocale(code, dir string) (err error) {
	t, err := ds.GetTable(code)
	if err != nil {
		return err
	}

	return resxml.Export(t, dir)
}
