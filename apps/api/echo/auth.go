package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/account"
	"github.com/trezcool/kiam/core/session"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
	tokenType       = "bearer"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

type authenticator struct {
	store  Store
	secret []byte
	ttl    time.Duration
}

func newAuthenticator(store Store, secret []byte, ttl time.Duration) *authenticator {
	return &authenticator{store: store, secret: secret, ttl: ttl}
}

func (a *authenticator) jwtConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    a.secret,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func (a *authenticator) claims(usr account.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			ExpiresAt: now.Add(a.ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: usr.Username,
		Role:     usr.Role,
	}
}

// GenerateToken signs a token representing usr.
func (a *authenticator) GenerateToken(usr account.User) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), a.claims(usr))
	ss, err := token.SignedString(a.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *authenticator) authenticate(identifier, pwd string) (account.User, error) {
	usr, err := a.store.GetUserByIdentifier(identifier)
	if err != nil {
		if err == account.ErrNotFound {
			return account.User{}, errAuthenticationFailed
		}
		return account.User{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return account.User{}, errAuthenticationFailed
	}
	if !usr.IsActive {
		return account.User{}, errAccountDeactivated
	}
	usr, err = a.store.SetLastLogin(usr.ID)
	return usr, errors.Wrap(err, "setting lastLogin")
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context) (account.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(account.User); ok {
		return usr, nil
	}
	return account.User{}, errUnauthorized
}

// contextUserMiddleware loads the token's account; deleted and deactivated accounts are rejected.
func (a *authenticator) contextUserMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		id, err := strconv.Atoi(claims.Subject)
		if err != nil {
			return errUnauthorized
		}
		usr, err := a.store.GetUser(id)
		if err != nil {
			if err == account.ErrNotFound {
				return errUnauthorized
			}
			return errors.Wrap(err, "finding user by ID")
		}
		if !usr.IsActive {
			return errAccountDeactivated
		}
		ctx.Set(contextUserKey, usr)
		return next(ctx)
	}
}

func registerAuthAPI(g *echo.Group, authed []echo.MiddlewareFunc, a *authenticator) {
	g.POST("/login", a.login)
	g.GET("/me", me, authed...)
}

func (a *authenticator) login(ctx echo.Context) error {
	var data session.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := a.authenticate(data.Identifier, data.Password)
	if err != nil {
		return err
	}
	token, err := a.GenerateToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, session.LoginResponse{AccessToken: token, TokenType: tokenType, User: usr})
}

func me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}
