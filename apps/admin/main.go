package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/storage/database"
	sqlxrepos "github.com/trezcool/academia/storage/database/sqlx"
)

func main() {
	if err := run(); err != nil {
		if err != errHelp {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func run() error {
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		log.Fatalf("main: %v", err)
	}
	db, err := database.Open(core.Conf)
	if err != nil {
		log.Fatalf("main: %v", err)
	}
	defer db.Close()

	cli := &commandLine{
		db:      db.DB,
		usrRepo: sqlxrepos.NewUserRepository(db),
	}
	return cli.run(os.Args)
}
