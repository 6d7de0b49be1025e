package main

import (
	"github.com/pkg/errors"

	"github.com/students-gateway/gateway/storage/database"
)

var (
	gooseRunFunc = database.Migrate // mockable

	errNoSQLDatabase = errors.New("migrations only apply to the postgres engine")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.sqlDB == nil {
		return errNoSQLDatabase
	}
	return gooseRunFunc(cli.sqlDB, args[0], args[1:]...)
}
