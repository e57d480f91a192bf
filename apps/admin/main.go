package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/prepdesk/prepdesk/core"
	"github.com/prepdesk/prepdesk/storage/database"
	sqlxrepos "github.com/prepdesk/prepdesk/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	errAndDie(database.CreateIfNotExist(core.Conf))
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(sqlx.NewDb(db, core.Conf.Database.Engine)),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
