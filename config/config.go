/*
Package config implements TOML config file handling for the translator tool.

Normally it will be used by simply passing a config file name to the Load
function to obtain a Config struct.
*/
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DbDriverSqlite3    = "sqlite3"
	DbDriverPostgresql = "postgres"
)

// Config represents the parsed configuration for the translator tool.
type Config struct {
	Archive    ArchiveConfig    `toml:"archive"`
	Flatten    FlattenConfig    `toml:"flatten"`
	Pack       PackConfig       `toml:"pack"`
	Translator TranslatorConfig `toml:"translator"`
	DB         DbConfig         `toml:"database"`
	Server     ServerConfig     `toml:"server"`
}

// valid checks if the Config is valid in its current state.
func (c *Config) valid() error {
	if len(c.Archive.File) == 0 {
		return errors.New("config: missing archive.file value")
	}
	if len(c.Archive.WorkDir) == 0 {
		return errors.New("config: missing archive.work_dir value")
	}
	if len(c.Flatten.MapFile) == 0 {
		return errors.New("config: missing flatten.map_file value")
	}
	if len(c.Flatten.OutXml) == 0 {
		return errors.New("config: missing flatten.out_xml value")
	}
	if len(c.Pack.InXml) == 0 {
		return errors.New("config: missing pack.in_xml value")
	}
	if len(c.Pack.OutZip) == 0 {
		return errors.New("config: missing pack.out_zip value")
	}
	if len(c.Pack.Language) == 0 {
		return errors.New("config: missing pack.language value")
	}
	if c.Translator.DelayMs < 0 {
		return errors.New("config: translator.delay_ms is invalid")
	}
	if c.DB.Driver != DbDriverSqlite3 && c.DB.Driver != DbDriverPostgresql {
		drivers := []string{DbDriverPostgresql, DbDriverSqlite3}
		return errors.New(fmt.Sprintf("config: invalid database.driver value. (Must be one of: '%v')", strings.Join(drivers, ", ")))
	}
	if c.DB.Driver == DbDriverSqlite3 && len(c.DB.File) == 0 {
		return errors.New("config: missing database.file value")
	}
	if c.DB.Driver == DbDriverPostgresql {
		if len(c.DB.Host) == 0 {
			return errors.New("config: missing database.host value")
		}
		if len(c.DB.Name) == 0 {
			return errors.New("config: missing database.name value")
		}
		if len(c.DB.User) == 0 {
			return errors.New("config: missing database.user value")
		}
		if c.DB.Port < 0 {
			return errors.New("config: invalid database.port value")
		}
	}
	if c.Server.Port < 0 {
		return errors.New("config: server.port is invalid")
	}
	return nil
}

// ArchiveConfig describes the reference-locale archive.
type ArchiveConfig struct {
	// URL to download the reference archive from
	Url string
	// Local path of the (downloaded) reference archive
	File string
	// Directory the archive is extracted into
	WorkDir string `toml:"work_dir"`
}

// FlattenConfig describes the artifacts produced by the flatten step.
type FlattenConfig struct {
	// Path of the mapping file that records the original folder structure
	MapFile string `toml:"map_file"`
	// Path of the flattened reference XML file
	OutXml string `toml:"out_xml"`
}

// PackConfig describes the inputs and outputs of the pack step.
type PackConfig struct {
	// Path of the translated flat XML file
	InXml string `toml:"in_xml"`
	// Path of the repacked archive to produce
	OutZip string `toml:"out_zip"`
	// Target language code, e.g. 'zh'
	Language string
	// Optional region code, e.g. 'TW' (yields a 'values-zh-rTW' folder)
	Region string
}

// TranslatorConfig contains machine translation service configuration.
type TranslatorConfig struct {
	// URL of a LibreTranslate-compatible /translate endpoint. Machine
	// translation is disabled when empty.
	Endpoint string
	ApiKey   string `toml:"api_key"`
	// Pause between translation requests, in milliseconds
	DelayMs int `toml:"delay_ms"`
	// Language code of the reference locale
	SourceLanguage string `toml:"source_language"`
}

// DbConfig contains catalog database connection configuration.
type DbConfig struct {
	// Must be one of 'sqlite3' or 'postgres'
	Driver string
	// When driver is sqlite3, this is the path to the database file
	File     string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port that the server should run on.
	Port int
	// Directory that locales are exported to as flat XML files
	ExportPath string `toml:"export_path"`
}

// Gets a connection string for this config.
func (d *DbConfig) ConnectionString() string {
	cStr := ""
	switch d.Driver {
	case DbDriverPostgresql:
		cStr = fmt.Sprintf("postgres://%v:%v@%v/%v?sslmode=disable", d.User, d.Password, d.Host, d.Name)
	case DbDriverSqlite3:
		cStr = d.File
	}
	return cStr
}

// Creates a new Config with some default values.
func new() Config {
	c := Config{
		Archive: ArchiveConfig{
			Url:     "https://fbreader.org/static/strings/android/en.zip",
			File:    filepath.FromSlash("./en.zip"),
			WorkDir: filepath.FromSlash("./en"),
		},
		Flatten: FlattenConfig{
			MapFile: filepath.FromSlash("./mapping"),
			OutXml:  filepath.FromSlash("./en.xml"),
		},
		Pack: PackConfig{
			InXml:    filepath.FromSlash("./zh.xml"),
			OutZip:   filepath.FromSlash("./zh.zip"),
			Language: "zh",
		},
		Translator: TranslatorConfig{
			DelayMs:        600,
			SourceLanguage: "en",
		},
		DB: DbConfig{
			Driver: "sqlite3",
			File:   filepath.FromSlash("./translations.db"),
			Port:   5432, // Postgres default port
		},
		Server: ServerConfig{
			Port:       8181,
			ExportPath: filepath.FromSlash("./export"),
		},
	}
	return c
}

// Loads config from a TOML file and checks its validity.
func Load(file string) (Config, error) {
	conf := new()
	_, err := toml.DecodeFile(file, &conf)
	if err != nil {
		return conf, err
	}

	if err = conf.valid(); err != nil {
		return conf, err
	}

	return conf, nil
}
