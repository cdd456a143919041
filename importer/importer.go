// Package importer loads flat locale XML files into the translation catalog.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/libralibra/FBReader-Translator/config"
	"github.com/libralibra/FBReader-Translator/datastore"
	"github.com/libralibra/FBReader-Translator/strmap"
)

func checkFatal(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Import loads every flat locale XML file next to the flatten output into
// the catalog, then records entry origins from the mapping file when one
// exists.
func Import(c config.Config) {
	start := time.Now()

	results := make(chan string, 100)
	done := make(chan bool, 1)

	go func() {
		for {
			imported := <-results
			fmt.Println("Imported locale file:", imported)
		}
	}()

	var (
		count int
		stats datastore.Stats
	)
	go func() {
		var db *sqlx.DB
		db, err := sqlx.Connect(c.DB.Driver, c.DB.ConnectionString())
		checkFatal(err)
		ds, err := datastore.New(db, c.DB.Driver)
		checkFatal(err)

		count, err = ds.ImportDir(filepath.Dir(c.Flatten.OutXml), results)
		checkFatal(err)

		if _, statErr := os.Stat(c.Flatten.MapFile); statErr == nil {
			m, err := strmap.Load(c.Flatten.MapFile)
			checkFatal(err)
			updated, err := ds.SetEntryPaths(m)
			checkFatal(err)
			fmt.Printf("Recorded origin paths for %v entries\n", updated)
		}

		stats = ds.Stats

		done <- true
	}()
	<-done

	elapsed := time.Since(start).Seconds()
	fmt.Printf("Imported %v files in %fs\n\n", count, elapsed)

	fmt.Fprintln(os.Stderr, stats)
}
