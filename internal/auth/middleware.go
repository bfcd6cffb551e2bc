// Package auth guards the admin routes: bearer token verification followed
// by a profile role check.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/itamcloud/itam-backend/internal/auth/jwt"
	"github.com/itamcloud/itam-backend/internal/healthscore/domain"
	"github.com/itamcloud/itam-backend/pkg/actor"
	"github.com/itamcloud/itam-backend/pkg/errors"
	"github.com/itamcloud/itam-backend/pkg/httputil"
	"github.com/itamcloud/itam-backend/pkg/logger"
)

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// ProfileLookup loads the caller's profile
type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
}

// Authenticate verifies the bearer token and attaches the caller as the
// request's actor. Every failure is a 401 and stops the chain.
func Authenticate(tokens TokenValidator, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				httputil.Error(w, errors.Unauthorized("invalid authorization header format"))
				return
			}

			claims, err := tokens.ValidateAccessToken(strings.TrimSpace(parts[1]))
			if err != nil {
				log.Debug().
					Err(err).
					Str("request_id", httputil.GetRequestID(r.Context())).
					Msg("token validation failed")
				httputil.Error(w, err)
				return
			}

			ctx := actor.WithActor(r.Context(), &actor.Actor{
				ID:    claims.ProfileID(),
				Email: claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets the request through only when the authenticated caller's
// profile has the given role. An unknown profile is treated like a wrong role.
func RequireRole(profiles ProfileLookup, role string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := actor.FromContext(r.Context())
			if caller == nil || caller.IsSystem() {
				httputil.Error(w, errors.Unauthorized("authentication required"))
				return
			}

			profile, err := profiles.GetByID(r.Context(), caller.ID)
			if err != nil {
				if errors.Is(err, errors.ErrNotFound) || errors.Is(err, errors.ErrBadRequest) {
					httputil.Error(w, errors.Forbidden("access denied"))
					return
				}
				log.Error().
					Err(err).
					Str("request_id", httputil.GetRequestID(r.Context())).
					Str("profile_id", caller.ID).
					Msg("failed to load caller profile")
				httputil.Error(w, errors.Internal("failed to verify caller role", err))
				return
			}

			if profile.Role != role {
				log.Warn().
					Str("request_id", httputil.GetRequestID(r.Context())).
					Str("profile_id", caller.ID).
					Str("role", profile.Role).
					Msg("caller lacks required role")
				httputil.Error(w, errors.Forbidden(role+" role required"))
				return
			}

			ctx := actor.WithActor(r.Context(), &actor.Actor{
				ID:       caller.ID,
				Email:    caller.Email,
				RoleName: profile.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
