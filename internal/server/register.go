package server

import (
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strings"

	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

func (s *Service) handlePostRegister(w http.ResponseWriter, r *http.Request) {
	var input RegisterInput
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	input.GivenName = strings.TrimSpace(input.GivenName)
	input.FamilyName = strings.TrimSpace(input.FamilyName)
	input.Email = strings.TrimSpace(input.Email)

	fieldErrs := validateRegisterInput(&input)
	if len(fieldErrs) > 0 {
		s.logger.WithField("field_errors", fieldErrs).Info("validation errors during registration")
		s.validationError(w, r, fieldErrs)
		return
	}

	err := s.auth.Register(r.Context(), &input)
	if err != nil {
		status, msg, fieldErrs := s.mapSignUpError(err)
		s.writeError(w, r, status, msg, fieldErrs)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"email": input.Email})
}

type confirmInput struct {
	Email string `form:"email" json:"email"`
	Code  string `form:"code" json:"code"`
}

func (s *Service) handlePostRegisterConfirm(w http.ResponseWriter, r *http.Request) {
	var input confirmInput
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	email := strings.TrimSpace(input.Email)
	code := strings.TrimSpace(input.Code)
	if email == "" || code == "" {
		s.validationError(w, r, map[string]string{"code": "Informe o e-mail e o código de confirmação."})
		return
	}

	err := s.auth.ConfirmRegistration(r.Context(), email, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			s.validationError(w, r, map[string]string{"code": "Código de confirmação inválido."})
			return
		}
		s.logger.WithError(err).Error("failed to confirm user signup")
		s.internalServerError(w, r)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

var (
	hasUpperReg  = regexp.MustCompile(`[A-Z]`)
	hasLowerReg  = regexp.MustCompile(`[a-z]`)
	hasDigitReg  = regexp.MustCompile(`[0-9]`)
	hasSymbolReg = regexp.MustCompile(`[^A-Za-z0-9]`)
)

func validateRegisterInput(input *RegisterInput) map[string]string {
	errs := map[string]string{}

	if input.GivenName == "" {
		errs["given_name"] = "O nome é obrigatório."
	}

	if input.FamilyName == "" {
		errs["family_name"] = "O sobrenome é obrigatório."
	}

	if input.Email == "" {
		errs["email"] = "O e-mail é obrigatório."
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		errs["email"] = "Informe um e-mail válido."
	}

	if input.Password != input.ConfirmPassword {
		errs["confirm_password"] = "As senhas não conferem."
	}

	password := input.Password
	if len(password) < 12 ||
		!hasUpperReg.MatchString(password) ||
		!hasLowerReg.MatchString(password) ||
		!hasDigitReg.MatchString(password) ||
		!hasSymbolReg.MatchString(password) {
		errs["password"] = "A senha deve ter ao menos 12 caracteres com maiúsculas, minúsculas, números e símbolos."
	}

	return errs
}

func (s *Service) mapSignUpError(err error) (int, string, map[string]string) {
	var invalidPw *ctypes.InvalidPasswordException
	if errors.As(err, &invalidPw) {
		return http.StatusUnprocessableEntity, "Corrija os campos destacados.", map[string]string{
			"password": "A senha não atende à política de senhas.",
		}
	}

	var userExists *ctypes.UsernameExistsException
	if errors.As(err, &userExists) {
		return http.StatusConflict, "Já existe uma conta com este e-mail.", map[string]string{
			"email": "Já existe uma conta com este e-mail.",
		}
	}

	var invalidParam *ctypes.InvalidParameterException
	if errors.As(err, &invalidParam) {
		return http.StatusUnprocessableEntity, "Alguns dados são inválidos.", nil
	}

	s.logger.WithError(err).Error("unhandled signup error")

	return http.StatusInternalServerError, "Não foi possível criar a conta agora.", nil
}
