package echoapi

import (
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/user"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
	audience        = "Mansa"
)

var nowFunc = time.Now // mockable

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
}

type authenticator struct {
	secret            []byte
	issuer            string
	expiration        time.Duration
	refreshExpiration time.Duration
	users             *user.Service
}

func newAuthenticator(conf *core.Config, users *user.Service) *authenticator {
	return &authenticator{
		secret:            []byte(conf.SecretKey),
		issuer:            conf.AppName,
		expiration:        conf.Server.JWTExpirationDelta,
		refreshExpiration: conf.Server.JWTRefreshExpirationDelta,
		users:             users,
	}
}

// jwtMiddleware checks the bearer token and stores it in the context.
func (a *authenticator) jwtMiddleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    a.secret,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	})
}

// userMiddleware loads the token's user. Blocked and inactive accounts are refused.
func (a *authenticator) userMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			usr, err := a.users.GetByID(ctx.Request().Context(), claims.Subject)
			if err != nil {
				if core.IsNotFound(err) {
					return errInvalidUser
				}
				return errors.Wrap(err, "finding user by ID")
			}
			if usr.IsBlocked {
				return errAccountBlocked
			}
			if !usr.IsActive {
				return errAccountInactive
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func (a *authenticator) claims(usr user.User, origIat ...int64) *Claims {
	now := nowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.issuer,
			Subject:   usr.ID,
			Audience:  audience,
			ExpiresAt: now.Add(a.expiration).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Email:        usr.Email,
		Role:         usr.Role,
	}
}

// token generates a signed JWT token string representing the user Claims.
func (a *authenticator) token(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(a.secret)
	return ss, errors.Wrap(err, "signing token")
}

func (a *authenticator) userToken(usr user.User) (string, error) {
	return a.token(a.claims(usr))
}

// refresh issues a new token as long as the original login is younger than the refresh window.
func (a *authenticator) refresh(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.refreshExpiration)
	if nowFunc().After(expTime) {
		return "", errRefreshExpired
	}
	return a.token(a.claims(contextUser(ctx), claims.OrigIssuedAt))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextUser returns the user loaded by userMiddleware.
func contextUser(ctx echo.Context) user.User {
	usr, _ := ctx.Get(contextUserKey).(user.User)
	return usr
}

// rolesMiddleware lets through the users holding any of roles.
func rolesMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if contextUser(ctx).HasAnyRole(roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

var (
	adminOnly      = rolesMiddleware(user.RoleAdmin)
	teacherOnly    = rolesMiddleware(user.RoleTeacher)
	studentOnly    = rolesMiddleware(user.RoleStudent)
	teacherOrAdmin = rolesMiddleware(user.RoleTeacher, user.RoleAdmin)
)
