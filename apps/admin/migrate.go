package main

import (
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	appfs "github.com/seenelm/tanwir-students-sub000/fs"
)

var gooseRunFunc = goose.Run // mockable

// migrate runs a goose command ("up", "down", "status", ...) against the
// embedded migrations. It only applies to the postgres engine.
func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errors.New("migrations require the postgres database engine")
	}

	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, "migrations", arguments...)
}
