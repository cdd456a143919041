package datastore

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// PostgresAdapter provides support for PostgreSQL databases.
type PostgresAdapter struct{}

func (a PostgresAdapter) EnsureVersionTableExists(db *sqlx.DB) (err error) {
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version integer PRIMARY KEY NOT NULL)`)
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

func (a PostgresAdapter) PostCreate(db *sqlx.DB) (err error) {
	return nil
}

func (a PostgresAdapter) up() []string {
	return []string{
		// 1
		`
CREATE TABLE locale (
    id serial PRIMARY KEY,
    code text UNIQUE,
    name text
);
CREATE INDEX locale_code ON locale (code);
CREATE TABLE entry (
    id serial PRIMARY KEY,
    name text UNIQUE,
    path text NOT NULL DEFAULT ''
);
CREATE INDEX entry_name ON entry (name);
CREATE TABLE translation (
    id serial PRIMARY KEY,
    locale_id integer REFERENCES locale(id) ON UPDATE CASCADE ON DELETE CASCADE,
    content text,
    entry_id integer REFERENCES entry(id) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE INDEX translation_locale_id ON translation (locale_id);
CREATE INDEX translation_entry_id ON translation (entry_id);
CREATE INDEX translation_entry_id_locale_id ON translation (locale_id, entry_id);
INSERT INTO locale (code, name) VALUES
    ('en','English'),
    ('de','German'),
    ('es','Spanish'),
    ('fr','French'),
    ('it','Italian'),
    ('pl','Polish'),
    ('pt','Portuguese'),
    ('ru','Russian'),
    ('cs','Czech'),
    ('hu','Hungarian'),
    ('zh','Chinese');
`,
		// 2
		`INSERT INTO locale (code, name) VALUES ('zh-rTW', 'Chinese (Traditional, Taiwan)')`,
	}
}

func (a PostgresAdapter) down() []string {
	return []string{
		// 1
		`
DROP TABLE translation;
DROP TABLE entry;
DROP TABLE locale;
`,
		// 2
		`DELETE FROM locale WHERE code = 'zh-rTW'`,
	}
}

func (a PostgresAdapter) MigrateUp(db *sqlx.DB) (version int64, err error) {
	if err = a.EnsureVersionTableExists(db); err != nil {
		return 0, err
	}

	startVer, err := a.version(db)
	if err != nil {
		return version, err
	}

	for i, query := range a.up() {
		migTo := int64(i + 1)
		if migTo <= startVer {
			version = migTo
			continue
		}

		_, err = db.Exec(query)
		if err != nil {
			return version, err
		}

		err = a.updateVersion(migTo, db)
		if err != nil {
			return version, err
		}

		version = migTo
	}

	return version, err
}

func (a PostgresAdapter) MigrateDown(db *sqlx.DB) (version int64, err error) {
	if err = a.EnsureVersionTableExists(db); err != nil {
		return 0, err
	}

	startVer, err := a.version(db)
	if err != nil {
		return version, err
	}

	down := a.down()
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

		err = a.updateVersion(migTo, db)
		if err != nil {
			return version, err
		}

		version = migTo
	}

	return version, err
}

func (a PostgresAdapter) SupportsLastInsertId() bool {
	return false
}

func (a PostgresAdapter) CreateLocaleQuery() string {
	return "INSERT INTO locale (code, name) VALUES ($1, $2) RETURNING id"
}

func (a PostgresAdapter) CreateEntryQuery() string {
	return "INSERT INTO entry (name) VALUES ($1) RETURNING id"
}

func (a PostgresAdapter) CreateTranslationQuery() string {
	return "INSERT INTO translation (locale_id, content, entry_id) VALUES ($1, $2, $3)"
}

func (a PostgresAdapter) DeleteTranslationQuery() string {
	return "DELETE FROM translation WHERE id = $1"
}

func (a PostgresAdapter) GetAllLocalesQuery() string {
	return "SELECT id, code, name FROM locale ORDER BY code"
}

func (a PostgresAdapter) GetAllEntriesQuery() string {
	return "SELECT id, name, path FROM entry ORDER BY name"
}

func (a PostgresAdapter) GetLocaleTableQuery() string {
	return "SELECT entry.name, translation.content FROM translation INNER JOIN entry ON entry.id = translation.entry_id WHERE translation.locale_id = (SELECT id FROM locale WHERE locale.code = $1) ORDER BY entry.name"
}

func (a PostgresAdapter) GetSingleLocaleQuery() string {
	return "SELECT id, code, name FROM locale WHERE code=$1"
}

func (a PostgresAdapter) GetSingleEntryIdQuery() string {
	return "SELECT id FROM entry WHERE name = $1"
}

func (a PostgresAdapter) GetSingleTranslationIdQuery() string {
	return "SELECT id FROM translation WHERE entry_id=$1 AND locale_id=$2"
}

func (a PostgresAdapter) UpdateTranslationQuery() string {
	return "UPDATE translation SET content=$1 WHERE id=$2"
}

func (a PostgresAdapter) UpdateEntryPathQuery() string {
	return "UPDATE entry SET path=$1 WHERE name=$2"
}

func (a PostgresAdapter) version(db *sqlx.DB) (version int64, err error) {
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

func (a PostgresAdapter) updateVersion(version int64, db *sqlx.DB) (err error) {
	_, err = db.Exec("UPDATE schema_migrations SET version = $1", int64(version))

	return err
}
