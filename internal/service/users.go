package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jdelrosario/kiosk-server/internal/models"
	"github.com/jdelrosario/kiosk-server/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

func validRole(role string) bool {
	switch role {
	case models.RoleStudent, models.RoleInstructor, models.RoleAdmin, models.RoleSuperAdmin:
		return true
	}
	return false
}

// User administration methods
func (s *DefaultService) CreateUser(ctx context.Context, req models.SaveUserRequest) (*models.User, error) {
	if !validRole(req.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}

	existing, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email %s already registered", ErrConflict, req.Email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		GivenName:  req.GivenName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Email:      req.Email,
		Password:   string(hashedPassword),
		Role:       req.Role,
		Program:    req.Program,
		Year:       req.Year,
		Department: req.Department,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

func (s *DefaultService) UpdateUser(ctx context.Context, userID string, req models.SaveUserRequest) (*models.User, error) {
	if !validRole(req.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}

	if req.Email != user.Email {
		other, err := s.repo.GetUserByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("error checking user existence: %w", err)
		}
		if other != nil {
			return nil, fmt.Errorf("%w: email %s already registered", ErrConflict, req.Email)
		}
	}

	user.GivenName = req.GivenName
	user.MiddleName = req.MiddleName
	user.LastName = req.LastName
	user.Email = req.Email
	user.Role = req.Role
	user.Program = req.Program
	user.Year = req.Year
	user.Department = req.Department

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	return user, nil
}

func (s *DefaultService) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return fmt.Errorf("%w: user %s has transaction history", ErrConflict, userID)
		}
		return fmt.Errorf("error deleting user: %w", err)
	}

	return nil
}

func (s *DefaultService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	return users, nil
}
