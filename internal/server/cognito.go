package server

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"selecao/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotConfirmed   = errors.New("account not confirmed")
	ErrInvalidCode        = errors.New("invalid confirmation code")
	ErrInvalidToken       = errors.New("invalid id token")
)

// Authenticator is the identity provider behind sessions.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*Tokens, error)
	Register(ctx context.Context, input *RegisterInput) error
	ConfirmRegistration(ctx context.Context, email, code string) error
	Verify(ctx context.Context, idToken string) (*types.Session, error)
}

type Tokens struct {
	IDToken   string
	ExpiresIn int
}

type RegisterInput struct {
	GivenName       string `form:"given_name" json:"given_name"`
	FamilyName      string `form:"family_name" json:"family_name"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

type cognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cognitoidentityprovider.ConfirmSignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error)
}

// CognitoAuthenticator signs users in against a Cognito user pool and
// verifies the ID tokens it issues against the pool JWKS.
type CognitoAuthenticator struct {
	client     cognitoAPI
	clientID   string
	issuer     string
	adminGroup string

	jwksCache *jwk.Cache
	jwksURL   string
}

func NewCognitoAuthenticator(client cognitoAPI, config *types.Config, jwksCache *jwk.Cache, jwksURL string) *CognitoAuthenticator {
	return &CognitoAuthenticator{
		client:     client,
		clientID:   config.CognitoClientID,
		issuer:     config.CognitoIssuerURL,
		adminGroup: config.AdminGroup,
		jwksCache:  jwksCache,
		jwksURL:    jwksURL,
	}
}

func (a *CognitoAuthenticator) Login(ctx context.Context, email, password string) (*Tokens, error) {
	resp, err := a.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: ctypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(a.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		var notConfirmed *ctypes.UserNotConfirmedException
		if errors.As(err, &notConfirmed) {
			return nil, ErrUserNotConfirmed
		}

		var notAuthorized *ctypes.NotAuthorizedException
		var notFound *ctypes.UserNotFoundException
		if errors.As(err, &notAuthorized) || errors.As(err, &notFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to initiate auth: %w", err)
	}

	if resp.AuthenticationResult == nil || resp.AuthenticationResult.IdToken == nil {
		return nil, ErrInvalidCredentials
	}

	return &Tokens{
		IDToken:   aws.ToString(resp.AuthenticationResult.IdToken),
		ExpiresIn: int(resp.AuthenticationResult.ExpiresIn),
	}, nil
}

func (a *CognitoAuthenticator) Register(ctx context.Context, input *RegisterInput) error {
	_, err := a.client.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(a.clientID),
		Username: aws.String(input.Email),
		Password: aws.String(input.Password),
		UserAttributes: []ctypes.AttributeType{
			{Name: aws.String("email"), Value: aws.String(input.Email)},
			{Name: aws.String("given_name"), Value: aws.String(input.GivenName)},
			{Name: aws.String("family_name"), Value: aws.String(input.FamilyName)},
		},
	})
	return err
}

func (a *CognitoAuthenticator) ConfirmRegistration(ctx context.Context, email, code string) error {
	_, err := a.client.ConfirmSignUp(ctx, &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(a.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	if err != nil {
		var codeMismatch *ctypes.CodeMismatchException
		if errors.As(err, &codeMismatch) {
			return ErrInvalidCode
		}
		return fmt.Errorf("failed to confirm signup: %w", err)
	}

	return nil
}

func (a *CognitoAuthenticator) Verify(ctx context.Context, idToken string) (*types.Session, error) {
	set, err := a.jwksCache.Lookup(ctx, a.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	token, err := a.parseIDToken(idToken, set)
	if err != nil {
		return nil, err
	}

	return sessionFromClaims(token, a.adminGroup)
}

// parseIDToken checks the signature against set and that the token was
// issued by the pool for this app client.
func (a *CognitoAuthenticator) parseIDToken(idToken string, set jwk.Set) (jwt.Token, error) {
	opts := []jwt.ParseOption{jwt.WithKeySet(set), jwt.WithValidate(true)}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.clientID != "" {
		opts = append(opts, jwt.WithAudience(a.clientID))
	}

	token, err := jwt.Parse([]byte(idToken), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return token, nil
}

func sessionFromClaims(token jwt.Token, adminGroup string) (*types.Session, error) {
	var tokenUse string
	if err := token.Get("token_use", &tokenUse); err == nil && tokenUse != "id" {
		return nil, fmt.Errorf("%w: token_use is %q", ErrInvalidToken, tokenUse)
	}

	uid, ok := token.Subject()
	if !ok || uid == "" {
		return nil, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}

	session := &types.Session{
		IsLoggedIn: true,
		Role:       types.RoleCandidate,
		UID:        uid,
	}

	_ = token.Get("email", &session.Email)

	var name, givenName, familyName string
	_ = token.Get("name", &name)
	_ = token.Get("given_name", &givenName)
	_ = token.Get("family_name", &familyName)
	if name == "" {
		name = strings.TrimSpace(givenName + " " + familyName)
	}
	if name == "" {
		name = session.Email
	}
	session.DisplayName = name

	if slices.Contains(tokenGroups(token), adminGroup) {
		session.Role = types.RoleAdmin
	}

	return session, nil
}

// tokenGroups reads cognito:groups, which decodes as []any from a parsed
// token and as []string from a built one.
func tokenGroups(token jwt.Token) []string {
	var groups []string
	if err := token.Get("cognito:groups", &groups); err == nil {
		return groups
	}

	var raw []any
	if err := token.Get("cognito:groups", &raw); err != nil {
		return nil
	}
	for _, g := range raw {
		if name, ok := g.(string); ok {
			groups = append(groups, name)
		}
	}
	return groups
}
