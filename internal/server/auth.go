package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"selecao/internal"
)

type loginInput struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		s.validationError(w, r, map[string]string{"email": "Informe e-mail e senha."})
		return
	}

	tokens, err := s.auth.Login(r.Context(), email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotConfirmed):
			s.writeError(w, r, http.StatusForbidden, "Confirme sua conta antes de entrar.", nil)
		case errors.Is(err, ErrInvalidCredentials):
			s.writeError(w, r, http.StatusUnauthorized, "E-mail ou senha inválidos.", nil)
		default:
			s.logger.WithError(err).Error("failed to login user")
			s.internalServerError(w, r)
		}
		return
	}

	session, err := s.auth.Verify(r.Context(), tokens.IDToken)
	if err != nil {
		s.logger.WithError(err).Error("identity provider issued a token that failed verification")
		s.internalServerError(w, r)
		return
	}

	encrypted, err := s.cookie.Encode(internal.COOKIE_ID_TOKEN_NAME, tokens.IDToken)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt id token")
		s.internalServerError(w, r)
		return
	}

	maxAge := tokens.ExpiresIn
	if maxAge <= 0 || maxAge > s.config.SessionMaxAgeSec {
		maxAge = s.config.SessionMaxAgeSec
	}

	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ID_TOKEN_NAME,
		Value:    encrypted,
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
		Expires:  s.now().Add(time.Duration(maxAge) * time.Second),
		Path:     "/",
	})

	s.logger.WithField("uid", session.UID).Info("user logged in")

	s.writeJSON(w, http.StatusOK, session)
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleGetMe(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, sessionFromContext(r.Context()))
}

func (s *Service) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ID_TOKEN_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func (s *Service) secureCookies() bool {
	return s.config.Environment != "development"
}
