package service

import (
	"context"
	"errors"
	"time"

	"github.com/lumenworks/intake-api/internal/auth"
	"github.com/lumenworks/intake-api/internal/models"
	"github.com/lumenworks/intake-api/internal/repository"
)

type AuthService struct {
	operators *repository.OperatorRepo
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(operators *repository.OperatorRepo, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{operators: operators, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

type AuthResult struct {
	Token    string           `json:"token"`
	Operator *models.Operator `json:"operator"`
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	op, err := s.operators.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, errors.New("invalid credentials")
	}
	if !auth.CheckPassword(password, op.PasswordHash) {
		return nil, errors.New("invalid credentials")
	}
	token, err := auth.GenerateToken(s.jwtSecret, s.tokenTTL, op.ID, op.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Operator: op}, nil
}

// SeedAdmin creates the operator account once; it is a no-op when the email
// is already registered.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	existing, _ := s.operators.FindByEmail(ctx, email)
	if existing != nil {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	op := &models.Operator{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	_, err = s.operators.Create(ctx, op)
	return err
}
