// Command admin is the seminar staff's command line to the Kiam API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/services/apiclient"
	emailsvc "github.com/trezcool/kiam/services/email"
	logsvc "github.com/trezcool/kiam/services/logger"
	kvstore "github.com/trezcool/kiam/storage/keyvalue"
)

func main() {
	os.Exit(run())
}

func run() int {
	conf := core.Conf
	logger := logsvc.New(conf)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := kvstore.Open(conf.SessionPath)
	if err != nil {
		logger.Error("opening session store", err)
		return 1
	}
	defer store.Close()

	var mailer core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailer = emailsvc.NewConsoleService(os.Stdout)
	} else {
		mailer = emailsvc.NewSendgridService(logger)
	}

	client := apiclient.New(apiclient.Options{BaseURL: conf.APIBaseURL, Logger: logger})
	cli := newCommandLine(conf, client, store, mailer, logger)
	if err := cli.session.Load(ctx); err != nil {
		logger.Warn("restoring session", err)
	}

	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerreur : %s\n", describe(err))
		}
		return 1
	}
	return 0
}
