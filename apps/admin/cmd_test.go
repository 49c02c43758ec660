package main

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/account"
	"github.com/trezcool/kiam/core/feedback"
	"github.com/trezcool/kiam/core/grading"
	"github.com/trezcool/kiam/core/seminarist"
	"github.com/trezcool/kiam/core/session"
	"github.com/trezcool/kiam/services/apiclient"
	emailsvc "github.com/trezcool/kiam/services/email"
	kvstore "github.com/trezcool/kiam/storage/keyvalue"
	testutil "github.com/trezcool/kiam/tests"
)

type fixture struct {
	cli    *commandLine
	sb     *testutil.Sandbox
	out    *bytes.Buffer
	store  *kvstore.SQLiteStore
	mailer *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) *fixture {
	sb := testutil.NewSandbox(t)
	store, err := kvstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	client := apiclient.New(apiclient.Options{BaseURL: sb.Server.URL, HTTPClient: sb.Server.Client()})
	mailer := emailsvc.NewConsoleServiceMock()
	cli := newCommandLine(core.Conf, client, store, mailer, core.NopLogger)

	out := new(bytes.Buffer)
	cli.out = out
	cli.in = bufio.NewReader(strings.NewReader(""))
	cli.outputDir = t.TempDir()
	cli.now = func() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }
	return &fixture{cli: cli, sb: sb, out: out, store: store, mailer: mailer}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
}

func (f *fixture) login(t *testing.T, username, pwd string) {
	t.Helper()
	mockPassword(pwd)
	require.NoError(t, f.cli.run(context.Background(), []string{"admin", "login", "-username", username}))
}

func (f *fixture) answer(s string) {
	f.cli.in = bufio.NewReader(strings.NewReader(s))
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantErrIs  func(error) bool
	wantOut    []string // substrings of the output
	extra      interface{}
}

// password is the answer to the password prompts of a cliTest.
type password string

func (f *fixture) runAll(t *testing.T, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			switch extra := tt.extra.(type) {
			case string:
				f.answer(extra)
			case password:
				mockPassword(string(extra))
			}
			f.out.Reset()
			err := f.cli.run(context.Background(), args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
			case tt.wantErrIs != nil:
				assert.True(t, tt.wantErrIs(err), "unexpected error: %v", err)
			default:
				require.NoError(t, err)
			}
			for _, want := range tt.wantOut {
				assert.Contains(t, f.out.String(), want)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	f := setup(t)
	mockPassword("")

	f.runAll(t, []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: []string{"Usage: admin"}},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no subcommand", args: []string{"seminaristes"}, wantErr: errHelp, wantOut: []string{"add|delete|edit|list|show"}},
		{name: "unknown subcommand", args: []string{"notes", "lol"}, wantErr: errHelp},
		{name: "help flag", args: []string{"bulletins", "list", "-h"}, wantErr: errHelp},
		{name: "undefined flag", args: []string{"seminaristes", "list", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
		{name: "login: no username", args: []string{"login"}, wantErr: errHelp},
		{name: "login: no password", args: []string{"login", "-username", "admin"}, wantErr: errHelp},
		{name: "show: no id nor matricule", args: []string{"seminaristes", "show"}, wantErr: errHelp},
		{name: "notes add: no note", args: []string{"notes", "add", "-matricule", "KIAM-2026-0001", "-libelle", "conduite"}, wantErr: errHelp},
		{name: "pdf: no matricule", args: []string{"pdf", "badge"}, wantErr: errHelp},
		{name: "mail: no recipient", args: []string{"mail", "bulletin", "-matricule", "KIAM-2026-0001"}, wantErr: errHelp},
		{name: "whoami: logged out", args: []string{"whoami"}, wantErr: session.ErrNotLoggedIn},
	})
}

func Test_commandLine_session(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	mockPassword("wrong")
	assert.Equal(t, account.ErrInvalidLogin, f.cli.run(ctx, []string{"admin", "login", "-username", testutil.AdminUsername}))

	f.login(t, testutil.AdminUsername, testutil.AdminPassword)
	assert.Contains(t, f.out.String(), "Connecté en tant que admin")
	token, ok, err := f.store.Get(ctx, session.KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok, "token persisted")

	f.runAll(t, []cliTest{
		{name: "whoami", args: []string{"whoami"}, wantOut: []string{"admin (Kiam Administration)", "administration"}},
		{name: "whoami verbose", args: []string{"whoami", "-v"}, wantOut: []string{session.KeyAccessToken, session.KeyUser, "********" + token[len(token)-4:]}},
	})
	assert.NotContains(t, f.out.String(), token, "token is masked")

	f.runAll(t, []cliTest{
		{name: "logout", args: []string{"logout"}, wantOut: []string{"Déconnecté."}},
		{name: "whoami after logout", args: []string{"whoami"}, wantErr: session.ErrNotLoggedIn},
	})
	_, ok, err = f.store.Get(ctx, session.KeyAccessToken)
	require.NoError(t, err)
	assert.False(t, ok, "token cleared")
}

func Test_commandLine_seminaristes(t *testing.T) {
	f := setup(t)
	f.login(t, testutil.AdminUsername, testutil.AdminPassword)

	add := []string{"seminaristes", "add",
		"-nom", "Koné", "-prenom", "Awa", "-sexe", "f", "-age", "14",
		"-niveau-academique", "3e", "-dortoir", "d1", "-contact-parent", "+225 0102030405",
	}
	f.runAll(t, []cliTest{
		{name: "add: missing name", args: []string{"seminaristes", "add", "-nom", "Koné"}, wantErr: errHelp},
		{name: "add", args: add, wantOut: []string{"Awa Koné", "KIAM-2026-0001"}},
		{name: "list", args: []string{"seminaristes", "list"}, wantOut: []string{"KIAM-2026-0001", "Awa Koné", "D1", "page 1/1 (1 résultat(s))  [1]"}},
		{name: "list filtered out", args: []string{"seminaristes", "list", "-sexe", "M"}, wantOut: []string{"(0 résultat(s))"}},
		{name: "show by matricule", args: []string{"seminaristes", "show", "-matricule", "kiam-2026-0001"}, wantOut: []string{"Awa", "RAS"}},
		{name: "edit: nothing", args: []string{"seminaristes", "edit", "-id", "1"}, wantErr: seminarist.ErrNothingToEdit},
		{name: "edit", args: []string{"seminaristes", "edit", "-id", "1", "-dortoir", "D2"}, wantOut: []string{"modifié(e)"}},
		{name: "show edited", args: []string{"seminaristes", "show", "-id", "1"}, wantOut: []string{"D2"}},
		{name: "delete: not confirmed", args: []string{"seminaristes", "delete", "-id", "1"}, extra: "n\n", wantOut: []string{"Supprimer Awa Koné", "Suppression annulée."}},
		{name: "still there", args: []string{"seminaristes", "show", "-id", "1"}, wantOut: []string{"KIAM-2026-0001"}},
		{name: "delete: confirmed", args: []string{"seminaristes", "delete", "-id", "1"}, extra: "oui\n", wantOut: []string{"supprimé(e)"}},
		{name: "gone", args: []string{"seminaristes", "show", "-id", "1"}, wantErr: seminarist.ErrNotFound},
		{name: "delete: unknown", args: []string{"seminaristes", "delete", "-id", "1", "-yes"}, wantErr: seminarist.ErrNotFound},
	})
}

func Test_commandLine_notes(t *testing.T) {
	f := setup(t)
	f.login(t, testutil.AdminUsername, testutil.AdminPassword)
	_, err := f.sb.Participants.Create(context.Background(), testutil.NewParticipant("Koné", "Awa"))
	require.NoError(t, err)

	f.runAll(t, []cliTest{
		{name: "add", args: []string{"notes", "add", "-matricule", "kiam-2026-0001", "-libelle", "conduite", "-note", "15"}, wantOut: []string{"Conduite", "15.00 / 20"}},
		{name: "add: slot taken", args: []string{"notes", "add", "-matricule", "KIAM-2026-0001", "-libelle", "conduite", "-note", "12"}, wantErrStr: grading.ErrNoteExists.Error()},
		{name: "add: out of range", args: []string{"notes", "add", "-matricule", "KIAM-2026-0001", "-libelle", "evaluation_1", "-note", "21"}, wantErrIs: core.IsValidationError},
		{name: "list by matricule", args: []string{"notes", "list", "-matricule", "kiam-2026-0001"}, wantOut: []string{"Conduite", "15.00"}},
		{name: "list above 16", args: []string{"notes", "list", "-min", "16"}, wantOut: []string{"(0 résultat(s))"}},
		{name: "edit", args: []string{"notes", "edit", "-id", "1", "-note", "17", "-observation", "Très bien"}, wantOut: []string{"17.00 / 20"}},
		{name: "entree", args: []string{"notes", "entree", "-id", "1", "-note", "15"}, wantOut: []string{"Awa Koné : 15 / 20, niveau SecondaireA."}},
		{name: "bulletins list", args: []string{"bulletins", "list"}, wantOut: []string{"KIAM-2026-0001", "Awa Koné", "SecondaireA"}},
		{name: "bulletin show", args: []string{"bulletins", "show", "-matricule", "KIAM-2026-0001"}, wantOut: []string{"Conduite", "rang 1"}},
		{name: "bulletin show: unknown", args: []string{"bulletins", "show", "-matricule", "KIAM-2026-0042"}, wantErr: grading.ErrBulletinNotFound},
		{name: "delete", args: []string{"notes", "delete", "-id", "1", "-yes"}, wantOut: []string{"Note 1 supprimé(e)."}},
	})
}

func Test_commandLine_users(t *testing.T) {
	f := setup(t)
	f.login(t, testutil.AdminUsername, testutil.AdminPassword)

	conflict := func(err error) bool { return apiclient.IsKind(err, apiclient.KindConflict) }
	f.runAll(t, []cliTest{
		{name: "add", args: []string{"users", "add", "-username", "Awa", "-nom", "Koné", "-prenom", "Awa", "-role", "finance"}, extra: password("S3minaire!Kz"), wantOut: []string{"Compte awa créé (ID 2, finance)."}},
		{name: "add: username taken", args: []string{"users", "add", "-username", "awa", "-nom", "Koné", "-prenom", "Awa"}, extra: password("S3minaire!Kz"), wantErrIs: conflict},
		{name: "add: weak password", args: []string{"users", "add", "-username", "moussa", "-nom", "Diallo", "-prenom", "Moussa"}, extra: password("12345678"), wantErrIs: core.IsValidationError},
		{name: "password", args: []string{"users", "password", "-id", "2"}, extra: password("N0uv3au!Pwd"), wantOut: []string{"Mot de passe de awa modifié."}},
	})

	f.runAll(t, []cliTest{
		{name: "list", args: []string{"users", "list"}, wantOut: []string{"admin", "awa", "finance", "jamais"}},
		{name: "list by role", args: []string{"users", "list", "-role", "finance"}, wantOut: []string{"awa", "(1 résultat(s))"}},
		{name: "toggle", args: []string{"users", "toggle", "-id", "2"}, wantOut: []string{"Compte awa désactivé."}},
		{name: "list inactive", args: []string{"users", "list", "-active=false"}, wantOut: []string{"awa", "(1 résultat(s))"}},
		{name: "toggle self", args: []string{"users", "toggle", "-id", "1"}, wantErr: account.ErrSelfModification},
		{name: "delete self", args: []string{"users", "delete", "-id", "1", "-yes"}, wantErr: account.ErrSelfModification},
		{name: "delete", args: []string{"users", "delete", "-id", "2", "-yes"}, wantOut: []string{"Compte 2 supprimé(e)."}},
	})

	// staff outside the administration role
	_, err := f.sb.DB.CreateUser(account.NewUser{Username: "issa", Nom: "Traoré", Prenom: "Issa", Role: account.RoleScientifique, Password: "Ph0n3-Kiw1!"})
	require.NoError(t, err)
	f.login(t, "issa", "Ph0n3-Kiw1!")
	f.runAll(t, []cliTest{
		{name: "not admin", args: []string{"users", "list"}, wantErr: errNotAdmin},
	})
}

func Test_commandLine_feedback(t *testing.T) {
	f := setup(t)
	f.login(t, testutil.AdminUsername, testutil.AdminPassword)
	f.sb.DB.CreateFeedback(feedback.NewFeedback{Organisation: 4, ContenuKiam: 5, Formations: 4, Dortoirs: 3, Nourriture: 2, NoteGlobale: 15, Recommande: true})
	f.sb.DB.CreateFeedback(feedback.NewFeedback{Nom: "Awa", Organisation: 2, ContenuKiam: 3, Formations: 4, Dortoirs: 3, Nourriture: 4, NoteGlobale: 11, Suggestions: "Plus de sport"})

	f.runAll(t, []cliTest{
		{name: "list", args: []string{"feedback", "list"}, wantOut: []string{"Anonyme", "Awa", "Plus de sport", "(2 résultat(s))"}},
		{name: "list recommending", args: []string{"feedback", "list", "-recommande"}, wantOut: []string{"Anonyme", "(1 résultat(s))"}},
		{name: "summary", args: []string{"feedback", "summary"}, wantOut: []string{"2 avis", "3.00 / 5", "13.00 / 20", "50 %"}},
		{name: "delete", args: []string{"feedback", "delete", "-id", "1", "-yes"}, wantOut: []string{"Avis 1 supprimé(e)."}},
		{name: "summary after delete", args: []string{"feedback", "summary"}, wantOut: []string{"1 avis", "0 %"}},
	})
}

func Test_commandLine_documents(t *testing.T) {
	f := setup(t)
	f.login(t, testutil.AdminUsername, testutil.AdminPassword)
	ctx := context.Background()
	p, err := f.sb.Participants.Create(ctx, testutil.NewParticipant("Koné", "Awa"))
	require.NoError(t, err)
	_, err = f.sb.Grading.CreateNote(ctx, grading.NewNote{Matricule: p.Matricule, Libelle: grading.LibelleConduite, Note: 16})
	require.NoError(t, err)

	tests := []struct {
		sub      string
		filename string
	}{
		{sub: "badge", filename: "badge_KIAM-2026-0001_2026-10-14.pdf"},
		{sub: "bulletin", filename: "bulletin_KIAM-2026-0001_2026-10-14.pdf"},
		{sub: "certificate", filename: "certificat_KIAM-2026-0001_2026-10-14.pdf"},
		{sub: "registration", filename: "fiche_inscription_KIAM-2026-0001_2026-10-14.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.sub, func(t *testing.T) {
			f.out.Reset()
			require.NoError(t, f.cli.run(ctx, []string{"admin", "pdf", tt.sub, "-matricule", p.Matricule}))
			path := filepath.Join(f.cli.outputDir, tt.filename)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
			assert.Contains(t, f.out.String(), "Fichier écrit : "+path)
		})
	}

	t.Run("custom output directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "badges")
		require.NoError(t, f.cli.run(ctx, []string{"admin", "pdf", "badge", "-matricule", p.Matricule, "-out", dir}))
		assert.FileExists(t, filepath.Join(dir, "badge_KIAM-2026-0001_2026-10-14.pdf"))
	})

	t.Run("unknown participant", func(t *testing.T) {
		err := f.cli.run(ctx, []string{"admin", "pdf", "badge", "-matricule", "KIAM-2026-0042"})
		assert.Equal(t, seminarist.ErrNotFound, err)
	})

	t.Run("mail bulletin", func(t *testing.T) {
		f.out.Reset()
		require.NoError(t, f.cli.run(ctx, []string{"admin", "mail", "bulletin", "-matricule", p.Matricule, "-to", "Parent Koné <parent@kiam.test>"}))
		assert.Contains(t, f.out.String(), "envoyé à parent@kiam.test")

		sent := f.mailer.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "parent@kiam.test", sent[0].To[0].Address)
		require.Len(t, sent[0].Attachments, 1)
		assert.Equal(t, "bulletin_KIAM-2026-0001_2026-10-14.pdf", sent[0].Attachments[0].Filename)
	})

	t.Run("mail bulletin with certificate", func(t *testing.T) {
		cert := filepath.Join(f.cli.outputDir, "certificat_KIAM-2026-0001_2026-10-14.pdf")
		require.NoError(t, f.cli.run(ctx, []string{"admin", "mail", "bulletin", "-matricule", p.Matricule, "-to", "parent@kiam.test", "-attach", cert}))

		sent := f.mailer.Sent()
		require.Len(t, sent, 2)
		require.Len(t, sent[1].Attachments, 2)
		assert.Equal(t, "certificat_KIAM-2026-0001_2026-10-14.pdf", sent[1].Attachments[1].Filename)
		assert.Equal(t, "application/pdf", sent[1].Attachments[1].ContentType)
	})

	t.Run("mail: missing attachment", func(t *testing.T) {
		err := f.cli.run(ctx, []string{"admin", "mail", "bulletin", "-matricule", p.Matricule, "-to", "parent@kiam.test", "-attach", "nope.pdf"})
		assert.Error(t, err)
		assert.Len(t, f.mailer.Sent(), 2)
	})

	t.Run("mail: bad recipient", func(t *testing.T) {
		err := f.cli.run(ctx, []string{"admin", "mail", "bulletin", "-matricule", p.Matricule, "-to", "not an address"})
		assert.Error(t, err)
		assert.Len(t, f.mailer.Sent(), 2)
	})
}

func Test_describe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation",
			err: core.NewValidationError(nil,
				core.FieldError{Field: "nom", Error: "nom est obligatoire"},
				core.FieldError{Field: "age", Error: "age doit être supérieur ou égal à 1"},
			),
			want: "données invalides\n  age : age doit être supérieur ou égal à 1\n  nom : nom est obligatoire",
		},
		{name: "network", err: &apiclient.Error{Kind: apiclient.KindNetworkUnavailable}, want: "serveur injoignable, vérifiez votre connexion"},
		{name: "plain", err: seminarist.ErrNotFound, want: seminarist.ErrNotFound.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.err))
		})
	}
}
