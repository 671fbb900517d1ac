package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/seenelm/tanwir-students-sub000/core"
	"github.com/seenelm/tanwir-students-sub000/core/user"
	"github.com/seenelm/tanwir-students-sub000/storage/database"
	sqlxrepos "github.com/seenelm/tanwir-students-sub000/storage/database/sqlx"
	"github.com/seenelm/tanwir-students-sub000/storage/mongodb"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up the configured store engine
	var (
		db      *sql.DB
		usrRepo user.Repository
	)
	switch conf.Database.Engine {
	case "postgres":
		var err error
		db, err = database.Open(conf)
		errAndDie(err)
		defer db.Close()
		errAndDie(database.Ping(db))
		usrRepo = sqlxrepos.NewUserRepository(sqlx.NewDb(db, "postgres"))
	default: // mongodb
		client, err := mongodb.Open(conf)
		errAndDie(err)
		defer func() { errAndDie(mongodb.Close(client)) }()
		usrRepo = mongodb.NewUserRepository(client, conf.Mongo.Name)
	}

	// start CLI
	cli := commandLine{
		conf:    conf,
		db:      db,
		usrRepo: usrRepo,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
