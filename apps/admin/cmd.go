package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/account"
	"github.com/trezcool/kiam/core/cache"
	"github.com/trezcool/kiam/core/feedback"
	"github.com/trezcool/kiam/core/grading"
	"github.com/trezcool/kiam/core/mutation"
	"github.com/trezcool/kiam/core/paging"
	"github.com/trezcool/kiam/core/seminarist"
	"github.com/trezcool/kiam/core/session"
	"github.com/trezcool/kiam/services/apiclient"
	pdfsvc "github.com/trezcool/kiam/services/pdf"
	kvstore "github.com/trezcool/kiam/storage/keyvalue"
	remoterepos "github.com/trezcool/kiam/storage/remote"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	out       io.Writer
	in        *bufio.Reader
	now       func() time.Time
	pageSize  int
	outputDir string

	store   *kvstore.SQLiteStore
	session *session.Manager
	logger  core.Logger

	participants *seminarist.Service
	grading      *grading.Service
	accounts     *account.Service
	feedbacks    *feedback.Service

	renderer *pdfsvc.Renderer
	mailer   core.EmailService
}

// newCommandLine wires the services of the CLI to the API behind client. The session is kept in store.
func newCommandLine(conf *core.Config, client *apiclient.Client, store *kvstore.SQLiteStore, mailer core.EmailService, logger core.Logger) *commandLine {
	sess := session.NewManager(client, store)
	client.SetTokens(sess)

	c := cache.New(cache.WithTTL(conf.CacheTTL))
	mut := mutation.NewCoordinator(c)
	pageSize := conf.PageSize
	if pageSize <= 0 {
		pageSize = paging.DefaultPageSize
	}

	return &commandLine{
		out:          os.Stdout,
		in:           bufio.NewReader(os.Stdin),
		now:          time.Now,
		pageSize:     pageSize,
		outputDir:    conf.OutputDir,
		store:        store,
		session:      sess,
		logger:       logger,
		participants: seminarist.NewService(remoterepos.NewParticipantRepository(client), c, mut),
		grading:      grading.NewService(remoterepos.NewGradingRepository(client), c, mut),
		accounts:     account.NewService(remoterepos.NewUserRepository(client), c, mut),
		feedbacks:    feedback.NewService(remoterepos.NewFeedbackRepository(client), c, mut),
		renderer:     pdfsvc.NewRenderer(logger),
		mailer:       mailer,
	}
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage: admin <commande> [sous-commande] [options]\n\n")
	cli.printf("Commandes :\n")
	cli.printf("  login -username USERNAME|EMAIL                   - se connecter (le mot de passe est demandé ensuite)\n")
	cli.printf("  logout                                           - se déconnecter\n")
	cli.printf("  whoami [-v]                                      - afficher le compte connecté\n")
	cli.printf("  seminaristes list|show|add|edit|delete           - gérer les séminaristes\n")
	cli.printf("  notes list|add|edit|delete|entree                - gérer les notes\n")
	cli.printf("  bulletins list|show                              - consulter les bulletins\n")
	cli.printf("  users list|add|password|toggle|delete            - gérer les comptes (administration)\n")
	cli.printf("  feedback list|summary|delete                     - consulter les avis\n")
	cli.printf("  pdf badge|bulletin|certificate|registration      - générer un document PDF\n")
	cli.printf("  mail bulletin                                    - envoyer un bulletin par e-mail\n")
	cli.printf("\nLancez `admin <commande> <sous-commande> -h` pour les options.\n")
}

func (cli *commandLine) printf(format string, a ...interface{}) {
	fmt.Fprintf(cli.out, format, a...)
}

// group is a command made of subcommands.
type group map[string]func(ctx context.Context, args []string) error

func (cli *commandLine) dispatch(ctx context.Context, name string, g group, args []string) error {
	if len(args) == 0 {
		cli.printGroupUsage(name, g)
		return errHelp
	}
	run, ok := g[args[0]]
	if !ok {
		cli.printGroupUsage(name, g)
		return errHelp
	}
	return run(ctx, args[1:])
}

func (cli *commandLine) printGroupUsage(name string, g group) {
	subs := make([]string, 0, len(g))
	for sub := range g {
		subs = append(subs, sub)
	}
	sort.Strings(subs)
	cli.printf("Usage: admin %s %s [options]\n", name, strings.Join(subs, "|"))
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "login":
		return cli.login(ctx, args[2:])
	case "logout":
		return cli.logout(ctx, args[2:])
	case "whoami":
		return cli.whoami(ctx, args[2:])
	case "seminaristes":
		return cli.dispatch(ctx, args[1], group{
			"list":   cli.listParticipants,
			"show":   cli.showParticipant,
			"add":    cli.addParticipant,
			"edit":   cli.editParticipant,
			"delete": cli.deleteParticipant,
		}, args[2:])
	case "notes":
		return cli.dispatch(ctx, args[1], group{
			"list":   cli.listNotes,
			"add":    cli.addNote,
			"edit":   cli.editNote,
			"delete": cli.deleteNote,
			"entree": cli.entranceNote,
		}, args[2:])
	case "bulletins":
		return cli.dispatch(ctx, args[1], group{
			"list": cli.listBulletins,
			"show": cli.showBulletin,
		}, args[2:])
	case "users":
		return cli.dispatch(ctx, args[1], group{
			"list":     cli.listUsers,
			"add":      cli.addUser,
			"password": cli.resetPassword,
			"toggle":   cli.toggleUser,
			"delete":   cli.deleteUser,
		}, args[2:])
	case "feedback":
		return cli.dispatch(ctx, args[1], group{
			"list":    cli.listFeedbacks,
			"summary": cli.feedbackSummary,
			"delete":  cli.deleteFeedback,
		}, args[2:])
	case "pdf":
		return cli.dispatch(ctx, args[1], group{
			"badge":        cli.documentCmd(docBadge),
			"bulletin":     cli.documentCmd(docBulletin),
			"certificate":  cli.documentCmd(docCertificate),
			"registration": cli.documentCmd(docRegistration),
		}, args[2:])
	case "mail":
		return cli.dispatch(ctx, args[1], group{
			"bulletin": cli.mailBulletin,
		}, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

// newFlagSet returns a FlagSet that reports misuse as errors instead of exiting.
func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

// visited returns the names of the flags set on the command line.
func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	cli.printf("%s", prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.printf("\n")
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// confirm asks a yes/no question; skip answers yes without asking.
func (cli *commandLine) confirm(question string, skip bool) func() bool {
	if skip {
		return mutation.Confirmed
	}
	return func() bool {
		cli.printf("%s [o/N] ", question)
		answer, err := cli.in.ReadString('\n')
		if err != nil && answer == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "o", "oui", "y", "yes":
			return true
		}
		return false
	}
}

// deleted reports the outcome of a confirmed deletion.
func (cli *commandLine) deleted(err error, what string) error {
	if errors.Is(err, mutation.ErrNotConfirmed) {
		cli.printf("Suppression annulée.\n")
		return nil
	}
	if err != nil {
		return err
	}
	cli.printf("%s supprimé(e).\n", what)
	return nil
}

// currentUser returns the logged-in account, refreshed from the API.
func (cli *commandLine) currentUser(ctx context.Context) (account.User, error) {
	if _, ok := cli.session.Current(); !ok {
		return account.User{}, session.ErrNotLoggedIn
	}
	return cli.session.Refresh(ctx)
}

func (cli *commandLine) table() *tabwriter.Writer {
	return tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
}

// printPage writes a numbered footer for p: "page 2/5 (42 résultats)  1 [2] 3 4 5".
func (cli *commandLine) printPage(p *paging.Paginator) {
	links := p.Links()
	parts := make([]string, len(links))
	for i, l := range links {
		parts[i] = l.String()
	}
	count := p.PageCount()
	if count == 0 {
		count = 1
	}
	cli.printf("\npage %d/%d (%d résultat(s))  %s\n", p.Current(), count, p.Total(), strings.Join(parts, " "))
}

// pageOf returns api when no filter is set, otherwise the page of the locally filtered items.
func pageOf[T any](ctx context.Context, page, limit int, filtered bool, api paging.PageFunc[T], all func(context.Context) ([]T, error)) (paging.Page[T], error) {
	if !filtered {
		return api(ctx, page, limit)
	}
	items, err := all(ctx)
	if err != nil {
		return paging.Page[T]{}, err
	}
	return paging.Slice(items, page, limit), nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func row(w io.Writer, cols ...string) {
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
