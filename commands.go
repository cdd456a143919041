package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/libralibra/FBReader-Translator/config"
	"github.com/libralibra/FBReader-Translator/datastore"
	"github.com/libralibra/FBReader-Translator/downloader"
	"github.com/libralibra/FBReader-Translator/packer"
	"github.com/libralibra/FBReader-Translator/trans"
	"github.com/libralibra/FBReader-Translator/translate"
	"github.com/libralibra/FBReader-Translator/unpacker"
)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// fetch downloads the reference-locale archive.
func fetch(c config.Config) {
	if len(c.Archive.Url) == 0 {
		checkFatal(errors.New("no archive.url configured"))
	}

	written, err := downloader.Fetch(c.Archive.Url, c.Archive.File)
	checkFatal(err)

	fmt.Printf("Downloaded %v bytes from %v to %v\n", written, c.Archive.Url, c.Archive.File)
}

// flatten unpacks the reference archive and flattens its string entries into
// the flat XML and mapping files.
func flatten(c config.Config) {
	start := time.Now()

	u := unpacker.New(c.Archive.File, c.Archive.WorkDir)

	files, err := u.Unpack()
	checkFatal(err)
	fmt.Printf("Unpacked %v files from %v to %v\n", files, c.Archive.File, c.Archive.WorkDir)

	res, err := u.Flatten(c.Flatten.OutXml, c.Flatten.MapFile)
	checkFatal(err)

	elapsed := time.Since(start).Seconds()
	fmt.Printf("Flattened %v entries from %v files in %fs (%v duplicate keys)\n", res.Entries, res.FilesScanned, elapsed, res.Duplicates)
	fmt.Printf("Wrote flat XML to %v and mapping to %v\n", c.Flatten.OutXml, c.Flatten.MapFile)
}

// translateFlat machine-translates the flat reference XML into the flat
// target-locale XML.
func translateFlat(c config.Config) {
	if len(c.Translator.Endpoint) == 0 {
		checkFatal(errors.New("no translator.endpoint configured"))
	}

	target := packer.Suffix(c.Pack.Language, c.Pack.Region)
	t := translate.NewHTTPTranslator(c.Translator.Endpoint, c.Translator.ApiKey, c.Translator.SourceLanguage, target)
	delay := time.Duration(c.Translator.DelayMs) * time.Millisecond

	start := time.Now()
	res, err := translate.File(c.Flatten.OutXml, c.Pack.InXml, t, delay)
	checkFatal(err)

	elapsed := time.Since(start).Seconds()
	fmt.Printf("Translated %v entries in %fs (%v skipped, %v kept source text)\n", res.Translated, elapsed, res.Skipped, res.Errors)
	fmt.Printf("Wrote translated XML to %v\n", c.Pack.InXml)
}

// catalogFallback fetches the target locale's translations from the catalog,
// if one is available, for filling gaps in the translated XML.
func catalogFallback(c config.Config) []trans.Entry {
	if c.DB.Driver == config.DbDriverSqlite3 && !fileExists(c.DB.File) {
		return nil
	}

	db, err := sqlx.Connect(c.DB.Driver, c.DB.ConnectionString())
	if err != nil {
		return nil
	}
	defer db.Close()

	ds, err := datastore.New(db, c.DB.Driver)
	if err != nil {
		return nil
	}

	t, err := ds.GetTable(packer.Suffix(c.Pack.Language, c.Pack.Region))
	if err != nil {
		return nil
	}

	return t.Entries()
}

// pack rebuilds the nested folder structure for the target locale and
// repacks it into the output archive.
func pack(c config.Config) {
	start := time.Now()

	p := packer.New(c.Pack.InXml, c.Flatten.MapFile, c.Pack.OutZip)
	p.SetTargetLanguage(c.Pack.Language, c.Pack.Region)

	if fallback := catalogFallback(c); len(fallback) > 0 {
		fmt.Printf("Using %v catalog translations as fallback\n", len(fallback))
		p.SetFallback(fallback)
	}

	res, err := p.Generate()
	checkFatal(err)
	if res.Missing > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %v mapped entries had no translation\n", res.Missing)
	}
	if res.FromFallback > 0 {
		fmt.Printf("Filled %v entries from the catalog\n", res.FromFallback)
	}

	files, err := p.Pack()
	checkFatal(err)

	elapsed := time.Since(start).Seconds()
	fmt.Printf("Packed %v entries into %v files in %fs: %v\n", res.Entries, files, elapsed, c.Pack.OutZip)
}

// runAll performs the whole pipeline, skipping steps whose outputs already
// exist.
func runAll(c config.Config) {
	if fileExists(c.Archive.File) {
		fmt.Printf("Archive %v already present, skipping fetch\n", c.Archive.File)
	} else if len(c.Archive.Url) == 0 {
		checkFatal(errors.New(fmt.Sprintf("archive %v not found and no archive.url configured", c.Archive.File)))
	} else {
		fetch(c)
	}

	if fileExists(c.Flatten.OutXml) && fileExists(c.Flatten.MapFile) {
		fmt.Printf("Flat XML %v and mapping %v already present, skipping flatten\n", c.Flatten.OutXml, c.Flatten.MapFile)
	} else {
		flatten(c)
	}

	if fileExists(c.Pack.InXml) {
		fmt.Printf("Translated XML %v already present, skipping translate\n", c.Pack.InXml)
	} else if len(c.Translator.Endpoint) == 0 {
		checkFatal(errors.New(fmt.Sprintf("translated XML %v not found and no translator.endpoint configured", c.Pack.InXml)))
	} else {
		translateFlat(c)
	}

	if fileExists(c.Pack.OutZip) {
		fmt.Printf("Output archive %v already present, skipping pack\n", c.Pack.OutZip)
	} else {
		pack(c)
	}
}

// initDb initializes the catalog database with all necessary tables.
func initDb(c config.Config) {
	var db *sqlx.DB
	db, err := sqlx.Connect(c.DB.Driver, c.DB.ConnectionString())
	checkFatal(err)
	ds, err := datastore.New(db, c.DB.Driver)
	checkFatal(err)

	dbVersion, err := ds.MigrateUp()
	if err != nil {
		fmt.Println(err)
		checkFatal(errors.New(fmt.Sprintf("Could not complete database migration, last applied version was %v", dbVersion)))
	}

	fmt.Println("Successfully migrated the database to version", dbVersion)
}
