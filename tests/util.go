// Package testutil runs the client stack against an in-process sandbox API.
package testutil

import (
	"context"
	"net/http/httptest"
	"testing"

	echoapi "github.com/trezcool/kiam/apps/api/echo"
	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/account"
	"github.com/trezcool/kiam/core/cache"
	"github.com/trezcool/kiam/core/feedback"
	"github.com/trezcool/kiam/core/grading"
	"github.com/trezcool/kiam/core/mutation"
	"github.com/trezcool/kiam/core/seminarist"
	"github.com/trezcool/kiam/core/session"
	"github.com/trezcool/kiam/services/apiclient"
	inmemdb "github.com/trezcool/kiam/storage/database/inmem"
	remoterepos "github.com/trezcool/kiam/storage/remote"
)

const (
	AdminUsername = "admin"
	AdminPassword = "Ph0n3-Kiw1!"
)

// Sandbox is a logged-in client wired to a fresh sandbox API.
type Sandbox struct {
	DB      *inmemdb.DB
	Server  *httptest.Server
	Client  *apiclient.Client
	Session *session.Manager
	Cache   *cache.Cache
	Mut     *mutation.Coordinator

	Participants *seminarist.Service
	Grading      *grading.Service
	Accounts     *account.Service
	Feedbacks    *feedback.Service
}

// NewSandbox starts the API and logs its seeded administrator in. Everything is closed with t.
func NewSandbox(t *testing.T) *Sandbox {
	t.Helper()

	db := inmemdb.New(inmemdb.WithYear(2026))
	if _, err := db.CreateUser(account.NewUser{
		Username: AdminUsername, Email: "admin@kiam.test", Nom: "Administration", Prenom: "Kiam",
		Role: account.RoleAdministration, Password: AdminPassword,
	}); err != nil {
		t.Fatalf("seeding admin: %v", err)
	}

	srv := httptest.NewServer(echoapi.NewServer(&echoapi.Options{
		DisableReqLogs: true,
		Store:          db,
		Logger:         core.NopLogger,
		SecretKey:      "sandbox-secret",
	}))
	t.Cleanup(srv.Close)

	client := apiclient.New(apiclient.Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
	sess := session.NewManager(client, session.NewMemoryStore())
	client.SetTokens(sess)
	if _, err := sess.Login(context.Background(), AdminUsername, AdminPassword); err != nil {
		t.Fatalf("logging in: %v", err)
	}

	c := cache.New()
	mut := mutation.NewCoordinator(c)
	participants := seminarist.NewService(remoterepos.NewParticipantRepository(client), c, mut)
	mut.OnRefresh(participants.Refresh)
	return &Sandbox{
		DB:           db,
		Server:       srv,
		Client:       client,
		Session:      sess,
		Cache:        c,
		Mut:          mut,
		Participants: participants,
		Grading:      grading.NewService(remoterepos.NewGradingRepository(client), c, mut),
		Accounts:     account.NewService(remoterepos.NewUserRepository(client), c, mut),
		Feedbacks:    feedback.NewService(remoterepos.NewFeedbackRepository(client), c, mut),
	}
}

// NewParticipant is a valid registration.
func NewParticipant(nom, prenom string) seminarist.NewParticipant {
	return seminarist.NewParticipant{
		Nom: nom, Prenom: prenom, Sexe: seminarist.SexeFeminin, Age: 14,
		NiveauAcademique: "3e", Dortoir: "D1", ContactParent: "+225 0102030405",
	}
}
