package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/cutm/results/core"
	"github.com/cutm/results/core/result"
	emailsvc "github.com/cutm/results/services/email"
	logsvc "github.com/cutm/results/services/logger"
	"github.com/cutm/results/storage/database"
	inmemdb "github.com/cutm/results/storage/database/inmem"
	sqlxrepos "github.com/cutm/results/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	// set up storage
	var db *sqlx.DB
	var repo result.Repository
	if conf.Database.Engine == core.EnginePostgres {
		if err := database.CreateIfNotExist(conf); err != nil {
			logger.Fatal(err.Error(), err)
		}
		var err error
		if db, err = database.Open(conf); err != nil {
			logger.Fatal(err.Error(), err)
		}
		defer func() { _ = db.Close() }()
		repo = sqlxrepos.NewRecordRepository(db)
	} else {
		mem, err := inmemdb.Open()
		if err != nil {
			logger.Fatal(err.Error(), err)
		}
		std.Printf("warning: %q engine selected, records only live as long as this command", conf.Database.Engine)
		repo = inmemdb.NewRecordRepository(mem)
	}

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	svc := result.NewService(repo, validate, emailsvc.NewConsoleService(conf), logger, conf)

	// start CLI
	cli := commandLine{
		db:  db,
		svc: svc,
		in:  os.Stdin,
		out: os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
