package main

import (
	"context"
	"log"
	"os"

	"github.com/students-gateway/gateway/core"
	"github.com/students-gateway/gateway/core/group"
	"github.com/students-gateway/gateway/core/user"
	logsvc "github.com/students-gateway/gateway/services/logger"
	"github.com/students-gateway/gateway/storage/database"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	defer cancel()
	if conf.Database.Engine == core.EnginePostgres {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			logger.Fatal("creating database", err)
		}
	}
	store, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	// start CLI
	cli := commandLine{
		usrSvc:   user.NewService(store.Users, logger),
		grpSvc:   group.NewService(store.Groups, logger),
		validate: validate,
	}
	if store.SQL != nil {
		cli.sqlDB = store.SQL.DB
	}

	err = cli.run(os.Args)
	if cErr := store.Close(context.Background()); cErr != nil {
		logger.Error("closing database", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
