package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crudai-app/backend/internal/auth"
	db "github.com/crudai-app/backend/internal/core/database"
	"github.com/crudai-app/backend/internal/models"
)

// UserService maps verified identity claims onto local user records.
type UserService struct {
	db db.DbClient
}

func NewUserService(db db.DbClient) *UserService {
	return &UserService{db: db}
}

// ResolveUser returns the local user for the claim subject, provisioning one
// on first sight. If a concurrent request wins the insert race the unique
// constraint fires and the surviving row is fetched instead.
func (s *UserService) ResolveUser(ctx context.Context, claims *auth.Claims) (*models.User, error) {
	if claims == nil || claims.Subject == "" {
		return nil, errors.New("missing identity claims")
	}

	user, err := s.db.GetUserByAuthID(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	user = &models.User{
		ID:          uuid.NewString(),
		Auth0UserID: claims.Subject,
		Username:    usernameFromClaims(claims),
		Email:       claims.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if claims.Name != "" {
		user.Name = &claims.Name
	}
	if claims.Picture != "" {
		user.Picture = &claims.Picture
	}

	if err := s.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return s.db.GetUserByAuthID(ctx, claims.Subject)
		}
		return nil, fmt.Errorf("provision user: %w", err)
	}
	return user, nil
}

// CurrentUser returns the local user for the claim subject without
// provisioning; models.ErrNotFound if none exists yet.
func (s *UserService) CurrentUser(ctx context.Context, claims *auth.Claims) (*models.User, error) {
	if claims == nil || claims.Subject == "" {
		return nil, errors.New("missing identity claims")
	}
	return s.db.GetUserByAuthID(ctx, claims.Subject)
}

// Update persists profile changes for an existing user.
func (s *UserService) Update(ctx context.Context, user *models.User) error {
	return s.db.UpdateUser(ctx, user)
}

// usernameFromClaims applies the provisioning fallback chain.
func usernameFromClaims(claims *auth.Claims) string {
	if claims.Nickname != "" {
		return claims.Nickname
	}
	if claims.Email != "" {
		return claims.Email
	}
	return "user"
}
