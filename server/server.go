// Package server provides an HTTP JSON API for browsing and editing the
// translation catalog.
package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/libralibra/FBReader-Translator/config"
	"github.com/libralibra/FBReader-Translator/datastore"
)

var (
	export    chan string
	exportDir string
)

func checkFatal(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func checkHttpWithStatus(e error, w http.ResponseWriter, status int) (hadError bool) {
	if e != nil {
		w.WriteHeader(status)

		errMsg := e.Error()
		// Don't expose the 'sql: no rows in result set' message to the user
		if status == http.StatusNotFound && e == sql.ErrNoRows {
			errMsg = "not found"
		}

		jsonErr := struct {
			Error string `json:"error"`
		}{
			Error: errMsg,
		}
		enc := json.NewEncoder(w)
		enc.Encode(jsonErr)

		return true
	}
	return false
}

func checkHttp(e error, w http.ResponseWriter) (hadError bool) {
	status := http.StatusInternalServerError
	if e == sql.ErrNoRows {
		status = http.StatusNotFound
	}
	return checkHttpWithStatus(e, w, status)
}

// Instantiates a datastore for a request using the given DB connection
func handleWithDatastore(db *sqlx.DB, driver string, f func(http.ResponseWriter, *http.Request, *datastore.DataStore)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, err := datastore.New(db, driver)

		if checkHttpWithStatus(err, w, http.StatusServiceUnavailable) {
			return
		}
		f(w, r, ds)
	}
}

func setJsonHeaders(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		h.ServeHTTP(w, r)
	})
}

// Gets list of available locales
func getLocalesHandler(w http.ResponseWriter, r *http.Request, ds *datastore.DataStore) {
	ls, err := ds.GetLocaleList()
	if checkHttp(err, w) {
		return
	}

	out := make([]Locale, len(ls))
	for i, l := range ls {
		out[i] = Locale{Code: l.Code, Name: l.Name}
	}

	enc := json.NewEncoder(w)
	checkHttp(enc.Encode(out), w)
}

// Creates a new locale
func createLocaleHandler(w http.ResponseWriter, r *http.Request, ds *datastore.DataStore) {
	code := mux.Vars(r)["code"]

	var content struct {
		Name string `json:"name"`
	}

	decoder := json.NewDecoder(r.Body)
	err := decoder.Decode(&content)
	if err != nil {
		http.Error(w, fmt.Sprintf("Could not decode request (%v)", err.Error()), http.StatusBadRequest)
		return
	}

	_, err = ds.CreateLocale(code, content.Name)
	switch {
	case err == datastore.ErrAlreadyExists:
		_ = checkHttpWithStatus(err, w, http.StatusConflict)
		return

	case checkHttp(err, w):
		return
	}

	w.Write([]byte("{\"result\":\"ok\"}\n"))
}

// Gets list of all known string entries and their origin paths
func getEntriesHandler(w http.ResponseWriter, r *http.Request, ds *datastore.DataStore) {
	entries, err := ds.GetEntryList()
	if checkHttp(err, w) {
		return
	}

	var output struct {
		Entries []Entry `json:"entries"`
	}
	output.Entries = make([]Entry, len(entries))
	for i, e := range entries {
		output.Entries[i] = Entry{Name: e.Name, Path: e.Path}
	}

	enc := json.NewEncoder(w)
	checkHttp(enc.Encode(output), w)
}

// Get all translations the catalog holds for one locale
func getTableHandler(w http.ResponseWriter, r *http.Request, ds *datastore.DataStore) {
	code := mux.Vars(r)["code"]

	t, err := ds.GetTable(code)
	if checkHttp(err, w) {
		return
	}

	enc := json.NewEncoder(w)
	checkHttp(enc.Encode(NewTable(t)), w)
}

// Export a locale to a flat XML file on disk
func exportLocaleHandler(w http.ResponseWriter, r *http.Request, ds *datastore.DataStore) {
	code := mux.Vars(r)["code"]

	err := ds.ExportLocale(code, exportDir)
	if checkHttp(err, w) {
		return
	}

	w.Write([]byte("{\"result\":\"ok\"}\n"))
}

// Update a translation with new content (or create it if we have a POST request)
// On success, the affected locale will be re-exported to file.
func createOrUpdateTranslationHandler(w http.ResponseWriter, r *http.Request, ds *datastore.DataStore) {
	code := mux.Vars(r)["code"]
	name := mux.Vars(r)["name"]

	var content struct {
		Content string `json:"content"`
	}

	decoder := json.NewDecoder(r.Body)
	err := decoder.Decode(&content)
	if err != nil {
		http.Error(w, fmt.Sprintf("Could not decode request (%v)", err.Error()), http.StatusBadRequest)
		return
	}

	allowCreate := false
	if r.Method == "POST" {
		allowCreate = true
	}

	err = ds.CreateOrUpdateTranslation(name, code, content.Content, allowCreate)
	if checkHttp(err, w) {
		return
	}

	w.Write([]byte("{\"result\":\"ok\"}\n"))

	export <- code
}

// Delete a single translation.
// On success, the affected locale will be re-exported to file.
func deleteTranslationHandler(w http.ResponseWriter, r *http.Request, ds *datastore.DataStore) {
	code := mux.Vars(r)["code"]
	name := mux.Vars(r)["name"]

	err := ds.DeleteTranslation(name, code)
	if checkHttp(err, w) {
		return
	}

	w.Write([]byte("{\"result\":\"ok\"}\n"))

	export <- code
}

func Serve(c config.Config) {
	exportDir = c.Server.ExportPath
	export = make(chan string, 100)

	var db *sqlx.DB
	db, err := sqlx.Connect(c.DB.Driver, c.DB.ConnectionString())
	checkFatal(err)

	// Listen for locales to export to file
	go func() {
		ds, err := datastore.New(db, c.DB.Driver)
		checkFatal(err)

		for {
			code := <-export
			err := ds.ExportLocale(code, exportDir)
			if err != nil {
				fmt.Println(err)
			}
		}
	}()

	r := mux.NewRouter().StrictSlash(true)
	r.HandleFunc("/locales", handleWithDatastore(db, c.DB.Driver, getLocalesHandler)).Methods("GET")
	r.HandleFunc("/locales/{code}", handleWithDatastore(db, c.DB.Driver, createLocaleHandler)).Methods("POST")
	r.HandleFunc("/locales/{code}/strings", handleWithDatastore(db, c.DB.Driver, getTableHandler)).Methods("GET")
	r.HandleFunc("/locales/{code}/export", handleWithDatastore(db, c.DB.Driver, exportLocaleHandler)).Methods("POST")
	r.HandleFunc("/locales/{code}/strings/{name}", handleWithDatastore(db, c.DB.Driver, deleteTranslationHandler)).Methods("DELETE")
	r.HandleFunc("/locales/{code}/strings/{name}", handleWithDatastore(db, c.DB.Driver, createOrUpdateTranslationHandler)).Methods("POST", "PUT")
	r.HandleFunc("/entries", handleWithDatastore(db, c.DB.Driver, getEntriesHandler)).Methods("GET")

	rWithMiddleWares := handlers.CombinedLoggingHandler(os.Stdout, setJsonHeaders(r))

	fmt.Printf("Listening on port %v\n", c.Server.Port)
	http.ListenAndServe(fmt.Sprintf(":%v", c.Server.Port), rWithMiddleWares)
}
