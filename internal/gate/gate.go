// Package gate establishes the caller identity of every request from its
// bearer token. It never rejects a request: anything short of a fully
// verified token for a usable account leaves the request anonymous.
package gate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/finportal/internal/identity"
	"github.com/Skotchmaster/finportal/internal/logging"
	"github.com/Skotchmaster/finportal/internal/models"
	"github.com/Skotchmaster/finportal/internal/repo"
	"github.com/Skotchmaster/finportal/internal/revocation"
	"github.com/Skotchmaster/finportal/internal/tokens"
)

type Outcome int

const (
	Anonymous Outcome = iota
	Authenticated
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return "anonymous"
	}
}

// Result is the verdict for a single request. Identity is set only when
// Outcome is Authenticated; Err only when Outcome is Failed.
type Result struct {
	Outcome  Outcome
	Identity identity.Identity
	Reason   string
	Err      error
}

func anonymous(reason string) Result { return Result{Outcome: Anonymous, Reason: reason} }

// AccountLookup is the user-lookup collaborator.
type AccountLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
}

type Gate struct {
	Codec       *tokens.Codec
	Revocations *revocation.Store
	Accounts    AccountLookup
	PublicPaths []string
}

// IsPublic reports whether path bypasses the gate. "/" matches only the root;
// other entries match themselves and anything below them.
func (g *Gate) IsPublic(path string) bool {
	for _, p := range g.PublicPaths {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
			continue
		case p == "/":
			if path == "/" || path == "" {
				return true
			}
		default:
			p = strings.TrimSuffix(p, "/")
			if path == p || strings.HasPrefix(path, p+"/") {
				return true
			}
		}
	}
	return false
}

// Evaluate runs the checks in order and stops at the first that fails.
// A panic anywhere inside is turned into a Failed result.
func (g *Gate) Evaluate(ctx context.Context, authorization string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Outcome: Failed, Reason: "panic", Err: fmt.Errorf("gate: %v", r)}
		}
	}()

	token, ok := BearerToken(authorization)
	if !ok {
		return anonymous("no bearer token")
	}

	if g.Revocations.IsRevoked(token) {
		return anonymous("token revoked")
	}

	email, err := g.Codec.ExtractEmail(token)
	if err != nil {
		return anonymous("token malformed")
	}
	if _, attached := identity.FromContext(ctx); attached {
		return anonymous("identity already attached")
	}

	account, err := g.Accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrAccountNotFound) {
			return anonymous("account not found")
		}
		return Result{Outcome: Failed, Reason: "account lookup failed", Err: err}
	}

	if g.Codec.IsExpired(token) {
		return anonymous("token expired")
	}

	claims, err := g.Codec.Verify(token)
	if err != nil || claims.Email() != account.Email || g.Codec.ClaimsExpired(claims) {
		return anonymous("subject mismatch")
	}

	if !account.Usable() {
		return anonymous("account disabled or inactive")
	}

	return Result{Outcome: Authenticated, Identity: identity.New(account)}
}

// Middleware attaches the identity of authenticated callers to the request
// context and passes every request on.
func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if g.IsPublic(req.URL.Path) {
				return next(c)
			}

			ctx := req.Context()
			res := g.Evaluate(ctx, req.Header.Get(echo.HeaderAuthorization))

			l := logging.FromContext(ctx).With("svc", "auth.gate")
			switch res.Outcome {
			case Authenticated:
				c.SetRequest(req.WithContext(identity.IntoContext(ctx, res.Identity)))
				c.Set(CtxIdentity, res.Identity)
			case Failed:
				l.Error("gate_error", "reason", res.Reason, "error", res.Err)
			default:
				l.Debug("gate_anonymous", "reason", res.Reason)
			}
			return next(c)
		}
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
