package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"vprepair/internal/domain"
)

const RoleSupervisor = "supervisor"

type AuthConfig struct {
	JWTSecret        string
	AllowActorHeader bool
	Logger           logrus.FieldLogger
}

type Principal struct {
	ActorID string
	Roles   []string
	Source  string
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ForbiddenError is returned when the caller lacks a role or ownership.
type ForbiddenError struct {
	Reason string
}

func (e ForbiddenError) Error() string { return "forbidden: " + e.Reason }

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func requirePrincipal(ctx context.Context) (Principal, huma.StatusError) {
	if p, ok := principalFromContext(ctx); ok && p.ActorID != "" {
		return p, nil
	}
	return Principal{}, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
}

func requireSupervisor(ctx context.Context) (Principal, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return Principal{}, err
	}
	if !p.HasRole(RoleSupervisor) {
		return Principal{}, ForbiddenError{Reason: "supervisor role required"}
	}
	return p, nil
}

// requireAssigneeOrSupervisor allows the report's mechanic and supervisors.
func requireAssigneeOrSupervisor(ctx context.Context, rep domain.FaultReport) (Principal, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return Principal{}, err
	}
	if p.HasRole(RoleSupervisor) {
		return p, nil
	}
	if rep.AssignedTo != nil && *rep.AssignedTo == p.ActorID {
		return p, nil
	}
	return Principal{}, ForbiddenError{Reason: "report is assigned to another mechanic"}
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

func authenticateJWT(token string, secret string) (Principal, error) {
	if strings.TrimSpace(secret) == "" {
		return Principal{}, errors.New("jwt secret not configured")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwtClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, err
	}
	if !parsed.Valid {
		return Principal{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return Principal{}, errors.New("subject claim required")
	}
	return Principal{ActorID: claims.Subject, Roles: claims.Roles, Source: "jwt"}, nil
}

// IssueToken signs an HS256 token for actor with the given roles.
func IssueToken(secret, actorID string, roles []string, claims jwt.RegisteredClaims) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("jwt secret not configured")
	}
	claims.Subject = actorID
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{RegisteredClaims: claims, Roles: roles})
	return tok.SignedString([]byte(secret))
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// newAuthMiddleware attaches a principal when credentials are present.
// Bad credentials are rejected; missing ones are left to each handler.
func newAuthMiddleware(basePath string, cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if basePath != "" && !strings.HasPrefix(req.URL.Path, basePath) {
				next.ServeHTTP(w, req)
				return
			}
			authz := strings.TrimSpace(req.Header.Get("Authorization"))
			actorHeader := strings.TrimSpace(req.Header.Get("X-Actor-Id"))

			if authz != "" {
				token, ok := bearerToken(authz)
				if !ok {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
					return
				}
				principal, err := authenticateJWT(token, cfg.JWTSecret)
				if err != nil {
					if cfg.Logger != nil {
						cfg.Logger.WithError(err).Info("rejected bearer token")
					}
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
					return
				}
				next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), principal)))
				return
			}

			if actorHeader != "" && cfg.AllowActorHeader {
				principal := Principal{ActorID: actorHeader, Source: "actor_header"}
				for _, r := range strings.Split(req.Header.Get("X-Actor-Roles"), ",") {
					if r = strings.TrimSpace(r); r != "" {
						principal.Roles = append(principal.Roles, r)
					}
				}
				if cfg.Logger != nil {
					cfg.Logger.WithField("actor_id", actorHeader).Debug("using X-Actor-Id header without token")
				}
				next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), principal)))
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}
