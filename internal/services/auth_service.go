package services

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/jobber/internal/auth"
	"github.com/yoockh/jobber/internal/models"
	"github.com/yoockh/jobber/internal/utils"
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// TokenStatus is the result of validating an access token. ShouldRefresh is
// set once less than auth.DefaultRefreshThreshold of its lifetime is left.
type TokenStatus struct {
	Claims        *auth.Claims
	Remaining     time.Duration
	ShouldRefresh bool
}

type AuthService interface {
	Login(ctx context.Context, login, password string) (*models.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Validate(ctx context.Context, accessToken string) (*TokenStatus, error)
}

type authService struct {
	users  UserService
	tokens auth.Codec
}

func NewAuthService(users UserService, tokens auth.Codec) AuthService {
	return &authService{users: users, tokens: tokens}
}

func PrincipalOf(u *models.User) auth.Principal {
	return auth.Principal{UserID: u.ID, Username: u.Username, Role: u.Role.Name}
}

func (s *authService) Login(ctx context.Context, login, password string) (*models.User, *TokenPair, error) {
	const op = "AuthService.Login"

	u, err := s.users.Authenticate(ctx, login, password)
	if err != nil {
		return nil, nil, err
	}
	p := PrincipalOf(u)
	access, err := s.tokens.Issue(p, auth.Access)
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	refresh, err := s.tokens.Issue(p, auth.Refresh)
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	return u, &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.TTL(auth.Access).Seconds()),
	}, nil
}

// Refresh exchanges a refresh token for a new access token carrying the
// user's current role.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	const op = "AuthService.Refresh"

	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, utils.E(utils.CodeUnauthorized, op, tokenErrorMessage(err), err)
	}
	if claims.TokenType != auth.Refresh {
		return nil, utils.E(utils.CodeUnauthorized, op, "Invalid refresh token", nil)
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if utils.IsCode(err, utils.CodeNotFound) {
			return nil, utils.E(utils.CodeUnauthorized, op, "Invalid refresh token", err)
		}
		return nil, err
	}

	access, err := s.tokens.Issue(PrincipalOf(u), auth.Access)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	return &TokenPair{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL(auth.Access).Seconds()),
	}, nil
}

func (s *authService) Validate(_ context.Context, accessToken string) (*TokenStatus, error) {
	const op = "AuthService.Validate"

	claims, err := s.tokens.Verify(accessToken)
	if err != nil {
		return nil, utils.E(utils.CodeUnauthorized, op, tokenErrorMessage(err), err)
	}
	if claims.TokenType != auth.Access {
		return nil, utils.E(utils.CodeUnauthorized, op, "Invalid token", nil)
	}
	left, err := s.tokens.Remaining(accessToken)
	if err != nil {
		return nil, utils.E(utils.CodeUnauthorized, op, tokenErrorMessage(err), err)
	}
	return &TokenStatus{
		Claims:        claims,
		Remaining:     left,
		ShouldRefresh: s.tokens.IsNearExpiry(accessToken, auth.DefaultRefreshThreshold),
	}, nil
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpired):
		return "Token expired"
	case errors.Is(err, auth.ErrBadSignature):
		return "Invalid token signature"
	case errors.Is(err, auth.ErrUnsupported):
		return "Unsupported token"
	default:
		return "Invalid token"
	}
}
