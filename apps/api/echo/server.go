package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/account"
	"github.com/trezcool/kiam/core/feedback"
	"github.com/trezcool/kiam/core/grading"
	"github.com/trezcool/kiam/core/paging"
	"github.com/trezcool/kiam/core/seminarist"
)

type (
	// Store is the sandbox storage; inmemdb.DB implements it.
	Store interface {
		ListParticipants(page, limit int) paging.Page[seminarist.Participant]
		GetParticipant(id int) (seminarist.Participant, error)
		CreateParticipant(np seminarist.NewParticipant) seminarist.Participant
		UpdateParticipant(id int, up seminarist.UpdateParticipant) (seminarist.Participant, error)
		ReplaceParticipant(id int, np seminarist.NewParticipant) (seminarist.Participant, error)
		DeleteParticipant(id int) error

		ListNotes(page, limit int, matricule string) paging.Page[grading.Note]
		CreateNote(nn grading.NewNote) (grading.Note, error)
		UpdateNote(id int, un grading.UpdateNote) (grading.Note, error)
		DeleteNote(id int) error
		ListBulletins(page, limit int) paging.Page[grading.Bulletin]
		GetBulletin(matricule string) (grading.Bulletin, error)

		ListUsers(page, limit int) paging.Page[account.User]
		GetUser(id int) (account.User, error)
		GetUserByIdentifier(identifier string) (account.User, error)
		CreateUser(nu account.NewUser) (account.User, error)
		UpdateUser(id int, uu account.UpdateUser) (account.User, error)
		SetUserStatus(id int, isActive bool) (account.User, error)
		SetLastLogin(id int) (account.User, error)
		DeleteUser(id int) error

		ListFeedbacks(page, limit int) paging.Page[feedback.Feedback]
		CreateFeedback(nf feedback.NewFeedback) feedback.Feedback
		DeleteFeedback(id int) error
	}

	Options struct {
		Address        string
		DisableReqLogs bool
		Store          Store
		Logger         core.Logger
		SecretKey      string
		TokenTTL       time.Duration
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
		auth *authenticator
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.Logger == nil {
		opts.Logger = core.NopLogger
	}
	if opts.SecretKey == "" {
		opts.SecretKey = core.Conf.SecretKey
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = core.Conf.JWTExpirationDelta
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
		auth: newAuthenticator(opts.Store, []byte(opts.SecretKey), opts.TokenTTL),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	debug := core.Conf.Debug

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.RequestID()) // echoes the client's X-Request-Id

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger)
	s.app.Debug = debug

	s.app.GET("/", home)

	jwt := middleware.JWTWithConfig(s.auth.jwtConfig())
	authed := []echo.MiddlewareFunc{jwt, s.auth.contextUserMiddleware}

	registerAuthAPI(s.app.Group("/auth"), authed, s.auth)
	registerParticipantAPI(s.app.Group("/seminaristes", authed...), s.opts.Store)
	registerNoteAPI(s.app.Group("/notes", authed...), s.app.Group("/bulletins", authed...), s.opts.Store)
	registerUserAPI(s.app.Group("/users", authed...), s.opts.Store)
	registerFeedbackAPI(s.app.Group("/feedbacks"), authed, s.opts.Store)
}

func (s *server) Start() error {
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "starting sandbox API")
	}
	return nil
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Bienvenue sur l'API Kiam (sandbox)!")
}
