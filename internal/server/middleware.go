package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"selecao/internal"
	"selecao/pkg/types"

	"github.com/sirupsen/logrus"
)

type contextKey string

const contextKeySession contextKey = "session"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		elapsed := time.Since(started)
		s.metrics.observe(r.Method, rw.statusCode, elapsed.Seconds())

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": elapsed.Milliseconds(),
		}).Info("http request")
	})
}

// LoadSession resolves the ID token cookie into a Session. Requests without a
// valid token carry an anonymous session.
func (s *Service) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := types.Session{}

		cookie, err := r.Cookie(internal.COOKIE_ID_TOKEN_NAME)
		if err == nil {
			var idToken string
			err = s.cookie.Decode(internal.COOKIE_ID_TOKEN_NAME, cookie.Value, &idToken)
			if err != nil {
				s.logger.WithError(err).Debug("failed to decrypt id token")
				s.clearSessionCookie(w)
			} else if verified, err := s.auth.Verify(r.Context(), idToken); err != nil {
				s.logger.WithError(err).Debug("failed to verify id token")
				s.clearSessionCookie(w)
			} else {
				session = *verified
				s.logger.WithFields(logrus.Fields{
					"uid":  session.UID,
					"role": session.Role,
				}).Debug("authenticated user")
			}
		}

		ctx := context.WithValue(r.Context(), contextKeySession, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFromContext(r.Context()).IsLoggedIn {
			s.writeError(w, r, http.StatusUnauthorized, "sign in required", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFromContext(r.Context()).IsAdmin() {
			s.writeError(w, r, http.StatusForbidden, "administrator access required", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")
			newURL.RawPath = ""

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func sessionFromContext(ctx context.Context) types.Session {
	session, _ := ctx.Value(contextKeySession).(types.Session)
	return session
}
