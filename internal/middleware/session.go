package middleware

import (
	"net/http"
	"slices"

	"github.com/Eursukkul/restaurant-service/internal/dto"
	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/pkg/session"
	"github.com/labstack/echo/v4"
)

const (
	identityKey = "identity"
	LandingPage = "/welcome"
	cookiePath  = "/"
)

// SessionGuard resolves the session cookie into a models.Identity and
// refreshes the cookie on every authenticated request.
type SessionGuard struct {
	sessions *session.Manager
	secure   bool
}

func NewSessionGuard(sessions *session.Manager, secure bool) *SessionGuard {
	return &SessionGuard{sessions: sessions, secure: secure}
}

// Require admits callers holding one of roles, or any role when none are given.
func (g *SessionGuard) Require(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(session.CookieName)
			if err != nil || cookie.Value == "" {
				return unauthenticated()
			}

			claims, err := g.sessions.Parse(cookie.Value)
			if err != nil {
				g.Clear(c)
				return unauthenticated()
			}

			who := models.Identity{
				SessionID: claims.SessionID,
				Role:      models.Role(claims.Role),
				UserID:    claims.UserID,
			}
			if !who.Role.Valid() {
				g.Clear(c)
				return unauthenticated()
			}
			if len(roles) > 0 && !slices.Contains(roles, who.Role) {
				return echo.NewHTTPError(http.StatusForbidden, dto.ErrorResponse{
					Code:    "forbidden",
					Message: "you do not have access to this resource",
				})
			}

			if err := g.Start(c, who); err != nil {
				return err
			}
			c.Set(identityKey, who)
			return next(c)
		}
	}
}

// Start issues a fresh session cookie for who.
func (g *SessionGuard) Start(c echo.Context, who models.Identity) error {
	token, expires, err := g.sessions.Issue(who.SessionID, string(who.Role), who.UserID)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     cookiePath,
		Expires:  expires,
		MaxAge:   int(g.sessions.IdleTimeout().Seconds()),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (g *SessionGuard) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     cookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// IdentityFrom returns the identity stored by Require.
func IdentityFrom(c echo.Context) models.Identity {
	who, _ := c.Get(identityKey).(models.Identity)
	return who
}

// WithIdentity stores who on c the way Require does.
func WithIdentity(c echo.Context, who models.Identity) {
	c.Set(identityKey, who)
}

func unauthenticated() error {
	return echo.NewHTTPError(http.StatusUnauthorized, dto.ErrorResponse{
		Code:     "unauthenticated",
		Message:  "please sign in to continue",
		Location: LandingPage,
	})
}
