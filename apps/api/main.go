// Command api serves the in-memory sandbox of the Kiam REST API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/trezcool/kiam/apps/api/echo"
	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/account"
	logsvc "github.com/trezcool/kiam/services/logger"
	inmemdb "github.com/trezcool/kiam/storage/database/inmem"
)

const shutdownTimeout = 10 * time.Second

func main() {
	conf := core.Conf
	logger := logsvc.New(conf)

	flags := flag.NewFlagSet("api", flag.ExitOnError)
	addr := flags.String("addr", conf.SandboxAddress, "listen address")
	adminUsername := flags.String("admin", "admin", "username of the seeded administrator")
	adminPassword := flags.String("password", os.Getenv("KIAM_ADMIN_PASSWORD"), "password of the seeded administrator")
	_ = flags.Parse(os.Args[1:])

	db := inmemdb.New(inmemdb.WithYear(conf.SeminarYear))
	if *adminPassword != "" {
		if _, err := db.CreateUser(account.NewUser{
			Username: *adminUsername,
			Nom:      "Administration",
			Prenom:   conf.AppName,
			Role:     account.RoleAdministration,
			Password: *adminPassword,
		}); err != nil {
			logger.Fatal("seeding administrator", err)
		}
	} else {
		logger.Warn("no administrator seeded: set -password or KIAM_ADMIN_PASSWORD")
	}

	server := echoapi.NewServer(&echoapi.Options{
		Address: *addr,
		Store:   db,
		Logger:  logger,
	})

	errs := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("sandbox API listening on %s", *addr))
		errs <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		if err != nil {
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)
		}
	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
	logger.Info("sandbox API stopped")
}
