package main

import "github.com/prepdesk/prepdesk/storage/database"

var (
	migrateFunc  = database.Migrate // mockable
	rollbackFunc = database.Rollback
)

func (cli *commandLine) migrate() error {
	return migrateFunc(cli.db)
}

func (cli *commandLine) rollback() error {
	return rollbackFunc(cli.db)
}
