package main

import (
	"context"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/trezcool/kiam/core/session"
)

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("login")
	uname := fs.String("username", "", "The account's username or email. The password will be prompted next.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *uname == "" {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.readPassword("Mot de passe : ")
	if err != nil {
		return err
	}
	if pwd == "" {
		fs.Usage()
		return errHelp
	}

	usr, err := cli.session.Login(ctx, *uname, pwd)
	if err != nil {
		return err
	}
	cli.printf("Connecté en tant que %s (%s, %s).\n", usr.Username, usr.FullName(), usr.Role)
	return nil
}

func (cli *commandLine) logout(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("logout")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := cli.session.Logout(ctx); err != nil {
		return err
	}
	cli.printf("Déconnecté.\n")
	return nil
}

func (cli *commandLine) whoami(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("whoami")
	verbose := fs.Bool("v", false, "Also list the stored session keys.")
	if err := parse(fs, args); err != nil {
		return err
	}

	usr, err := cli.currentUser(ctx)
	if err != nil {
		return err
	}
	cli.printf("%s (%s)\n", usr.Username, usr.FullName())
	cli.printf("  e-mail : %s\n", orDash(usr.Email))
	cli.printf("  rôle   : %s\n", usr.Role)
	if !usr.LastLogin.IsZero() {
		cli.printf("  dernière connexion : %s\n", humanize.Time(usr.LastLogin))
	}

	if *verbose {
		entries, err := cli.store.Entries(ctx)
		if err != nil {
			return err
		}
		tw := cli.table()
		cli.printf("\nsession :\n")
		for _, e := range entries {
			value := e.Value
			if e.Key == session.KeyAccessToken {
				value = mask(value)
			}
			row(tw, "  "+e.Key, truncate(value, 40), humanize.Time(e.UpdatedAt))
		}
		return tw.Flush()
	}
	return nil
}

// mask keeps the last 4 characters of a secret.
func mask(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}
