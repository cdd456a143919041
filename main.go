/*
A tool for translating FBReader's Android string resources. It flattens the
nested XML tree of a reference-locale archive into a single XML file plus a
mapping file recording the original folder structure, and later replays that
mapping against translated content to rebuild the tree for a target locale
and repack it into an archive.

Various program settings are controlled by a TOML config file, which must be
available for the program to run. By default, the program will look for a
file called 'fbtranslator.toml' in the same directory as its binary.

The program must be run with a 'command' argument to indicate what you would
like it to do. Available commands are:

  - fetch: Downloads the reference-locale archive from the configured URL.
  - flatten: Unpacks the reference archive and flattens its string entries
    into a single XML file, writing the mapping file alongside.
  - translate: Machine-translates the flat XML via the configured service.
  - pack: Rebuilds the nested folder structure for the target locale from
    the mapping file and translated XML, and repacks it into an archive.
  - run: Performs fetch, flatten, translate and pack in one go, skipping
    steps whose outputs already exist.
  - import: Imports flat locale XML files into the translation catalog.
  - init-db: Creates or migrates the translation catalog database.
  - serve: Starts an HTTP server providing a JSON API for accessing and
    modifying the catalog.
  - help: Prints usage instructions
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/libralibra/FBReader-Translator/config"
	"github.com/libralibra/FBReader-Translator/importer"
	"github.com/libralibra/FBReader-Translator/server"
)

var (
	configPath string
)

const (
	cmdMissing      = "missing"
	cmdUnrecognised = "unrecognised"
	cmdHelp         = "help"
	cmdFetch        = "fetch"
	cmdFlatten      = "flatten"
	cmdTranslate    = "translate"
	cmdPack         = "pack"
	cmdRun          = "run"
	cmdImport       = "import"
	cmdInitDb       = "init-db"
	cmdServe        = "serve"
)

func init() {
	defaultConfigPath := filepath.FromSlash("./fbtranslator.toml")
	flag.StringVar(&configPath, "config", defaultConfigPath, "Full `path` and file name to the config file")
}

type Command interface {
	Run(config.Config)
}

type CommandFunc func(config.Config)

func (f CommandFunc) Run(c config.Config) {
	f(c)
}

// Gets list of available commands
func availableCommands() []string {
	return []string{cmdFetch, cmdFlatten, cmdTranslate, cmdPack, cmdRun, cmdImport, cmdInitDb, cmdServe, cmdHelp}
}

func checkFatal(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Converts os.Args to one of the cmd* constants.
func parseArgs(args []string) (command string) {
	if len(args) < 1 {
		return cmdMissing
	}

	for _, cmd := range availableCommands() {
		if args[0] == cmd {
			return cmd
		}
	}

	return cmdUnrecognised
}

// Prints a normal usage message.
func printUsage(c config.Config) {
	flag.PrintDefaults()
}

// Prints a usage message indicating that a command must be given.
func printMissingCommandUsage(c config.Config) {
	fmt.Fprintf(os.Stderr, "No command given. Command can be one of: %v\n\n", strings.Join(availableCommands(), ", "))
	printUsage(c)
}

// Prints a usage message indicating that the given command was not recognised.
func printUnrecognisedCommandUsage(cmd string) CommandFunc {
	return func(c config.Config) {
		fmt.Fprintf(os.Stderr, "Command '%v' not recognised. Command must be one of: %v\n\n", os.Args[1], strings.Join(availableCommands(), ", "))
		printUsage(c)
	}
}

func main() {
	flag.Parse()
	config, cfgErr := config.Load(configPath)
	var command = parseArgs(flag.Args())

	var commandFunc = CommandFunc(printMissingCommandUsage)
	switch command {
	case cmdUnrecognised:
		commandFunc = printUnrecognisedCommandUsage(command)
	case cmdFetch:
		commandFunc = CommandFunc(fetch)
	case cmdFlatten:
		commandFunc = CommandFunc(flatten)
	case cmdTranslate:
		commandFunc = CommandFunc(translateFlat)
	case cmdPack:
		commandFunc = CommandFunc(pack)
	case cmdRun:
		commandFunc = CommandFunc(runAll)
	case cmdImport:
		commandFunc = CommandFunc(importer.Import)
	case cmdInitDb:
		commandFunc = CommandFunc(initDb)
	case cmdServe:
		commandFunc = CommandFunc(server.Serve)
	}

	// Invalid config only matters for non-'help' commands
	if command != cmdUnrecognised && command != cmdMissing && command != cmdHelp {
		checkFatal(cfgErr)
	}

	commandFunc.Run(config)
}
