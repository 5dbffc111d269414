package service

import (
	"context"
	"errors"

	providererrors "healthfirst/internal/providers/errors"
	"healthfirst/internal/providers/repository"
	"healthfirst/pkg/config"
	apperrors "healthfirst/pkg/errors"
	"healthfirst/pkg/model"
	"healthfirst/pkg/sanitizer"
)

type ProviderService interface {
	GetByID(ctx context.Context, id string) (*model.Provider, error)
	GetByUserID(ctx context.Context, userID string) (*model.Provider, error)
	GetBySpecialization(ctx context.Context, specialization string) ([]*model.Provider, error)
}

type providerService struct {
	repo repository.ProviderRepository
	cfg  *config.Config
}

func NewProviderService(repo repository.ProviderRepository, cfg *config.Config) ProviderService {
	return &providerService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *providerService) GetByID(ctx context.Context, id string) (*model.Provider, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Provider ID cannot be empty")
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, providererrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Provider", id)
		}
		if errors.Is(err, providererrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid provider ID format")
		}
		s.cfg.Log.Error("Failed to get provider by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve provider", err)
	}

	return p, nil
}

func (s *providerService) GetByUserID(ctx context.Context, userID string) (*model.Provider, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	p, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, providererrors.ErrNotFound) {
			return nil, apperrors.NotFound("Provider")
		}
		s.cfg.Log.Error("Failed to get provider by user ID",
			"user_id", userID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve provider", err)
	}

	return p, nil
}

func (s *providerService) GetBySpecialization(ctx context.Context, specialization string) ([]*model.Provider, error) {
	specialization = sanitizer.TrimAndNormalize(specialization)
	if specialization == "" {
		return nil, apperrors.InvalidInput("Specialization cannot be empty")
	}

	providers, err := s.repo.FindBySpecialization(ctx, specialization)
	if err != nil {
		s.cfg.Log.Error("Failed to get providers by specialization",
			"specialization", specialization,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve providers", err)
	}

	s.cfg.Log.Debug("Provider specialization lookup completed",
		"specialization", specialization,
		"results_count", len(providers),
	)

	return providers, nil
}
