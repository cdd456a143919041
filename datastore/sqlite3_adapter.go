package datastore

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Sqlite3Adapter provides support for SQLite3 databases.
type Sqlite3Adapter struct{}

func (s Sqlite3Adapter) EnsureVersionTableExists(db *sqlx.DB) (err error) {
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS "schema_migrations" ("version" INTEGER PRIMARY KEY NOT NULL)`)
	if err != nil {
		return err
	}

	var count int
	err = db.Get(&count, `SELECT COUNT(*) FROM schema_migrations`)
	if err != nil {
		return err
	}
	switch {
	case count == 0:
		_, err = db.Exec(`INSERT INTO schema_migrations (version) VALUES (0)`)
	case count > 1:
		err = errors.New("too many rows in schema_migrations table")
	}

	return err
}

func (s Sqlite3Adapter) PostCreate(db *sqlx.DB) (err error) {
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return err
	}
	// Faster than using default journal file
	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return err
	}
	// Default (full) is slower
	_, err = db.Exec("PRAGMA synchronous = NORMAL")
	if err != nil {
		return err
	}

	return nil
}

func (s Sqlite3Adapter) up() []string {
	return []string{
		// 1
		`
CREATE TABLE "locale" (
    "id" INTEGER PRIMARY KEY AUTOINCREMENT,
    "code" TEXT UNIQUE,
    "name" TEXT
);
CREATE INDEX "locale_code" ON "locale" ("code");
CREATE TABLE "entry" (
    "id" INTEGER PRIMARY KEY AUTOINCREMENT,
    "name" TEXT UNIQUE,
    "path" TEXT NOT NULL DEFAULT ''
);
CREATE INDEX "entry_name" ON "entry" ("name");
CREATE TABLE "translation" (
    "id" INTEGER PRIMARY KEY AUTOINCREMENT,
    "locale_id" INTEGER REFERENCES "locale"("id") ON UPDATE CASCADE ON DELETE CASCADE,
    "content" TEXT,
    "entry_id" INTEGER REFERENCES "entry"("id") ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE INDEX "translation_locale_id" ON "translation" ("locale_id");
CREATE INDEX "translation_entry_id" ON "translation" ("entry_id");
CREATE INDEX "translation_entry_id_locale_id" ON "translation" ("locale_id","entry_id");
INSERT INTO locale (code, name) VALUES
    ("en","English"),
    ("de","German"),
    ("es","Spanish"),
    ("fr","French"),
    ("it","Italian"),
    ("pl","Polish"),
    ("pt","Portuguese"),
    ("ru","Russian"),
    ("cs","Czech"),
    ("hu","Hungarian"),
    ("zh","Chinese");
`,
		// 2
		`INSERT INTO locale (code, name) VALUES ("zh-rTW", "Chinese (Traditional, Taiwan)")`,
	}
}

func (s Sqlite3Adapter) down() []string {
	return []string{
		// 1
		`
DROP TABLE translation;
DROP TABLE entry;
DROP TABLE locale;
`,
		// 2
		`DELETE FROM locale WHERE code = "zh-rTW"`,
	}
}

func (s Sqlite3Adapter) MigrateUp(db *sqlx.DB) (version int64, err error) {
	if err = s.EnsureVersionTableExists(db); err != nil {
		return 0, err
	}

	startVer, err := s.version(db)
	if err != nil {
		return version, err
	}

	for i, query := range s.up() {
		migTo := int64(i + 1)
		if migTo <= startVer {
			version = migTo
			continue
		}

		_, err = db.Exec(query)
		if err != nil {
			return version, err
		}

		err = s.updateVersion(migTo, db)
		if err != nil {
			return version, err
		}

		version = migTo
	}

	return version, err
}

func (s Sqlite3Adapter) MigrateDown(db *sqlx.DB) (version int64, err error) {
	if err = s.EnsureVersionTableExists(db); err != nil {
		return 0, err
	}

	startVer, err := s.version(db)
	if err != nil {
		return version, err
	}

	down := s.down()
	for i := len(down) - 1; i >= 0; i-- {
		query := down[i]
		migVer := int64(i + 1) // The version of the Down migration we will apply
		migTo := int64(i)      // The version we will end up at

		// Skip migrations for newer versions
		if migVer > startVer {
			version = startVer
			continue
		}

		_, err = db.Exec(query)
		if err != nil {
			return version, err
		}

		err = s.updateVersion(migTo, db)
		if err != nil {
			return version, err
		}

		version = migTo
	}

	return version, err
}

func (s Sqlite3Adapter) SupportsLastInsertId() bool {
	return true
}

func (s Sqlite3Adapter) CreateLocaleQuery() string {
	return "INSERT INTO locale (code, name) VALUES (?, ?)"
}

func (s Sqlite3Adapter) CreateEntryQuery() string {
	return "INSERT INTO entry (name) VALUES (?)"
}

func (s Sqlite3Adapter) CreateTranslationQuery() string {
	return "INSERT INTO translation (locale_id, content, entry_id) VALUES (?, ?, ?)"
}

func (s Sqlite3Adapter) DeleteTranslationQuery() string {
	return "DELETE FROM translation WHERE id = ?"
}

func (s Sqlite3Adapter) GetAllLocalesQuery() string {
	return "SELECT id, code, name FROM locale ORDER BY code"
}

func (s Sqlite3Adapter) GetAllEntriesQuery() string {
	return "SELECT id, name, path FROM entry ORDER BY name"
}

func (s Sqlite3Adapter) GetLocaleTableQuery() string {
	return "SELECT entry.name, translation.content FROM translation INNER JOIN entry ON entry.id = translation.entry_id WHERE translation.locale_id = (SELECT id FROM locale WHERE locale.code = ?) ORDER BY entry.name"
}

func (s Sqlite3Adapter) GetSingleLocaleQuery() string {
	return "SELECT id, code, name FROM locale WHERE code=?"
}

func (s Sqlite3Adapter) GetSingleEntryIdQuery() string {
	return "SELECT id FROM entry WHERE name = ?"
}

func (s Sqlite3Adapter) GetSingleTranslationIdQuery() string {
	return "SELECT id FROM translation WHERE entry_id=? AND locale_id=?"
}

func (s Sqlite3Adapter) UpdateTranslationQuery() string {
	return "UPDATE translation SET content=? WHERE id=?"
}

func (s Sqlite3Adapter) UpdateEntryPathQuery() string {
	return "UPDATE entry SET path=? WHERE name=?"
}

func (s Sqlite3Adapter) version(db *sqlx.DB) (version int64, err error) {
	row := db.QueryRow("SELECT version FROM schema_migrations")
	err = row.Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		return 0, nil
	case err != nil:
		return 0, err
	default:
		return version, nil
	}
}

func (s Sqlite3Adapter) updateVersion(version int64, db *sqlx.DB) (err error) {
	_, err = db.Exec("UPDATE schema_migrations SET version = ?", int64(version))

	return err
}
