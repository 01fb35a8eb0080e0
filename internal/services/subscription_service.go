package services

import (
	"context"
	"errors"
	"strings"

	"cybertronic/internal/logging"
	"cybertronic/internal/models"
	"cybertronic/internal/repositories"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrAlreadySubscribed = models.ErrDuplicateEmail
)

// SubscriptionService manages newsletter sign-ups.
type SubscriptionService struct {
	repo     repositories.SubscriberRepository
	validate *validator.Validate
	log      *zap.Logger
}

func NewSubscriptionService(repo repositories.SubscriberRepository, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{repo: repo, validate: validator.New(), log: logger}
}

// Subscribe stores email as a subscriber. Addresses are compared case-insensitively.
func (s *SubscriptionService) Subscribe(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	if err := s.repo.Create(ctx, &models.Subscriber{Email: email}); err != nil {
		return err
	}
	logging.FromContext(ctx, s.log).Info("subscriber_added")
	return nil
}
