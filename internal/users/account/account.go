// Copyright (c) 2026 FitHub. All rights reserved.

/*
Package account exposes the profile surface of the identity system.

It provides the authenticated self-profile lookup and the operator-only
account listing. Profile mutation, coaching data, and preference management
live in their own domain modules.

# Architecture

  - Entities: This package owns no entities; it reads [auth.Principal]
    through the repository contract the auth domain defines.
  - Security: Every endpoint sits behind the authorization gate.
*/
package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ideafit/fithub/internal/auth"
)

// # Service Layer

// Service orchestrates read access to principal profiles.
type Service struct {
	principals auth.PrincipalRepository
	logger     *slog.Logger
}

// NewService constructs a new [Service] with its repository dependency.
func NewService(principals auth.PrincipalRepository, logger *slog.Logger) *Service {
	return &Service{principals: principals, logger: logger}
}

/*
GetProfile retrieves the full private profile of a principal.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *auth.Principal: The hydrated profile
  - error: apperr.NotFound or execution failures
*/
func (service *Service) GetProfile(context context.Context, id int64) (*auth.Principal, error) {
	principal, err := service.principals.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	return principal, nil
}

/*
ListAccounts returns every registered principal.

Description: Operator tooling only; the route mounting this operation is
restricted to ADMIN callers.

Parameters:
  - context: context.Context

Returns:
  - []*auth.Principal: All accounts ordered by ID
  - error: Execution failures
*/
func (service *Service) ListAccounts(context context.Context) ([]*auth.Principal, error) {
	principals, err := service.principals.List(context)
	if err != nil {
		return nil, fmt.Errorf("account_service_list_failed: %w", err)
	}
	return principals, nil
}
