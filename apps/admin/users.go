package main

import (
	"context"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core/account"
)

var errNotAdmin = errors.New("réservé au rôle administration")

// admin returns the logged-in account when it may manage accounts.
func (cli *commandLine) admin(ctx context.Context) (account.User, error) {
	usr, err := cli.currentUser(ctx)
	if err != nil {
		return account.User{}, err
	}
	if !usr.IsAdmin() {
		return account.User{}, errNotAdmin
	}
	return usr, nil
}

func (cli *commandLine) listUsers(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("users list")
	page := fs.Int("page", 1, "Page number.")
	var qf account.QueryFilter
	fs.StringVar(&qf.Search, "search", "", "Search the name, the username and the email.")
	fs.StringVar(&qf.Role, "role", "", "administration, scientifique or finance.")
	active := fs.Bool("active", true, "Only active (true) or inactive (false) accounts.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if visited(fs)["active"] {
		qf.IsActive = active
	}
	if _, err := cli.admin(ctx); err != nil {
		return err
	}

	res, err := pageOf(ctx, *page, cli.pageSize, !qf.IsEmpty(),
		cli.accounts.List,
		func(ctx context.Context) ([]account.User, error) { return cli.accounts.Search(ctx, qf) },
	)
	if err != nil {
		return err
	}

	tw := cli.table()
	row(tw, "ID", "USERNAME", "NOM", "E-MAIL", "RÔLE", "ACTIF", "DERNIÈRE CONNEXION")
	for _, u := range res.Data {
		lastLogin := "jamais"
		if !u.LastLogin.IsZero() {
			lastLogin = humanize.Time(u.LastLogin)
		}
		row(tw, strconv.Itoa(u.ID), u.Username, u.FullName(), orDash(u.Email), u.Role, yesNo(u.IsActive), lastLogin)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	cli.printPage(res.Paginator())
	return nil
}

func yesNo(b bool) string {
	if b {
		return "oui"
	}
	return "non"
}

// promptPassword asks for a password twice.
func (cli *commandLine) promptPassword() (pwd, confirm string, err error) {
	if pwd, err = cli.readPassword("Mot de passe : "); err != nil {
		return "", "", err
	}
	if confirm, err = cli.readPassword("Confirmation : "); err != nil {
		return "", "", err
	}
	return pwd, confirm, nil
}

func (cli *commandLine) addUser(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("users add")
	var nu account.NewUser
	fs.StringVar(&nu.Username, "username", "", "Username. The password will be prompted next.")
	fs.StringVar(&nu.Email, "email", "", "Email.")
	fs.StringVar(&nu.Nom, "nom", "", "Last name.")
	fs.StringVar(&nu.Prenom, "prenom", "", "First name.")
	fs.StringVar(&nu.Role, "role", account.RoleScientifique, "administration, scientifique or finance.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if nu.Username == "" {
		fs.Usage()
		return errHelp
	}
	if _, err := cli.admin(ctx); err != nil {
		return err
	}
	var err error
	if nu.Password, nu.PasswordConfirm, err = cli.promptPassword(); err != nil {
		return err
	}
	if nu.Password == "" {
		fs.Usage()
		return errHelp
	}

	usr, err := cli.accounts.Create(ctx, nu)
	if err != nil {
		return err
	}
	cli.printf("Compte %s créé (ID %d, %s).\n", usr.Username, usr.ID, usr.Role)
	return nil
}

// resetPassword sets a new password on an account.
func (cli *commandLine) resetPassword(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("users password")
	id := fs.Int("id", 0, "Account ID. The password will be prompted next.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		fs.Usage()
		return errHelp
	}
	if _, err := cli.admin(ctx); err != nil {
		return err
	}
	pwd, confirm, err := cli.promptPassword()
	if err != nil {
		return err
	}
	if pwd == "" {
		fs.Usage()
		return errHelp
	}

	usr, err := cli.accounts.Update(ctx, *id, account.UpdateUser{Password: pwd, PasswordConfirm: confirm})
	if err != nil {
		return err
	}
	cli.printf("Mot de passe de %s modifié.\n", usr.Username)
	return nil
}

func (cli *commandLine) toggleUser(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("users toggle")
	id := fs.Int("id", 0, "Account ID.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		fs.Usage()
		return errHelp
	}
	current, err := cli.admin(ctx)
	if err != nil {
		return err
	}

	usr, err := cli.accounts.ToggleStatus(ctx, *id, current)
	if err != nil {
		return err
	}
	if usr.IsActive {
		cli.printf("Compte %s activé.\n", usr.Username)
	} else {
		cli.printf("Compte %s désactivé.\n", usr.Username)
	}
	return nil
}

func (cli *commandLine) deleteUser(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("users delete")
	id := fs.Int("id", 0, "Account ID.")
	yes := fs.Bool("yes", false, "Do not ask for confirmation.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		fs.Usage()
		return errHelp
	}
	current, err := cli.admin(ctx)
	if err != nil {
		return err
	}

	err = cli.accounts.Delete(ctx, *id, current, cli.confirm("Supprimer le compte "+strconv.Itoa(*id)+" ?", *yes))
	return cli.deleted(err, "Compte "+strconv.Itoa(*id))
}
