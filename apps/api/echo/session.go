package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/cutm/results/core"
	"github.com/cutm/results/core/faculty"
)

const (
	sessionKey  = "session"
	apiTokenKey = "facultyToken"
	audience    = "faculty"
)

var errInvalidSession = errors.New("invalid session token")

// Session is what a request knows about its caller. The zero value is an anonymous visitor.
type Session struct {
	Faculty faculty.Identity
}

// Claims represents the claims of a faculty session, carried in a cookie or as a bearer token.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email"`
}

// NewSessionToken returns a signed token for id, valid for conf.Auth.SessionTTL.
func NewSessionToken(conf *core.Config, id faculty.Identity) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(conf.Auth.SessionTTL)
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   id.Email,
			Audience:  audience,
			ExpiresAt: expires.Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: id.Email,
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "signing session token")
	}
	return ss, expires, nil
}

func parseSessionToken(conf *core.Config, raw string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parsing session token")
	}
	if !token.Valid || !claims.VerifyAudience(audience, true) {
		return nil, errInvalidSession
	}
	return claims, nil
}

func getSession(ctx echo.Context) Session {
	if sess, ok := ctx.Get(sessionKey).(Session); ok {
		return sess
	}
	return Session{}
}

func setSession(ctx echo.Context, sess Session) {
	ctx.Set(sessionKey, sess)
}

// allow reports whether sess belongs to a faculty member of the configured domain.
func (s *Server) allow(sess Session) bool {
	email := sess.Faculty.Email
	domain := strings.ToLower(s.conf.Auth.FacultyDomain)
	return email != "" && len(email) > len(domain) && strings.HasSuffix(email, domain)
}

// loadSession decodes the session cookie, if any. Invalid or expired cookies are dropped.
func (s *Server) loadSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cookie, err := ctx.Cookie(s.conf.Auth.CookieName)
		if err == nil && cookie.Value != "" {
			if claims, err := parseSessionToken(s.conf, cookie.Value); err == nil {
				setSession(ctx, Session{Faculty: faculty.Identity{Email: claims.Email}})
			} else {
				s.clearSessionCookie(ctx)
			}
		}
		return next(ctx)
	}
}

// apiSession turns the verified bearer token into the request Session.
func apiSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if token, ok := ctx.Get(apiTokenKey).(*jwt.Token); ok {
			if claims, ok := token.Claims.(*Claims); ok {
				setSession(ctx, Session{Faculty: faculty.Identity{Email: claims.Email}})
			}
		}
		return next(ctx)
	}
}

// facultyRequired lets the request through when allow accepts its Session, otherwise it calls deny.
func facultyRequired(allow func(Session) bool, deny echo.HandlerFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if allow(getSession(ctx)) {
				return next(ctx)
			}
			return deny(ctx)
		}
	}
}

func redirectToLogin(ctx echo.Context) error {
	addFlash(ctx, flashDanger, "Please log in with your faculty email to continue.")
	return ctx.Redirect(http.StatusFound, "/login")
}

func forbidden(echo.Context) error {
	return errHttpForbidden
}

func (s *Server) setSessionCookie(ctx echo.Context, token string, expires time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     s.conf.Auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.conf.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     s.conf.Auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.conf.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
