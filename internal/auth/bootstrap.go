// Copyright (c) 2026 FitHub. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ideafit/fithub/internal/platform/apperr"
	"github.com/ideafit/fithub/internal/platform/sec"
)

// # Operator Bootstrap

/*
EnsureAdmin provisions the operator account at startup.

Description: No endpoint can create an ADMIN principal (sign-up restricts the
role, federation provisions LEARNER), so the operator surface depends on this
seed. The call is idempotent: an existing account under the configured email
is left untouched, and a unique-violation from a concurrently starting
replica is treated as success.

Parameters:
  - context: context.Context
  - adminEmail: string
  - adminPassword: string

Returns:
  - error: Lookup, hashing, or persistence failures
*/
func (service *Service) EnsureAdmin(context context.Context, adminEmail, adminPassword string) error {
	_, err := service.principals.FindByEmail(context, adminEmail)
	if err == nil {
		service.logger.InfoContext(context, "admin account already present, skipping seed")
		return nil
	}
	if appError := apperr.As(err); appError == nil || appError.Code != "NOT_FOUND" {
		return fmt.Errorf("auth_bootstrap_admin_lookup_failed: %w", err)
	}

	hashedPassword, err := sec.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("auth_bootstrap_admin_hash_failed: %w", err)
	}

	admin := &Principal{
		FirstName:    "Admin",
		LastName:     "FitHub",
		Username:     "admin",
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Gender:       GenderMale,
		PhoneNumber:  "000000000",
		Role:         sec.RoleAdmin,
		Status:       StatusAvailable,
		HeightMeters: 1.0,
		WeightKilos:  1.0,
	}

	err = service.principals.Create(context, admin)
	if err == nil {
		service.logger.InfoContext(context, "admin account created",
			slog.String("email", adminEmail))
		return nil
	}

	// Another replica seeded the account between the lookup and the insert.
	if appError := apperr.As(err); appError != nil && appError.Code == "CONFLICT" {
		service.logger.InfoContext(context, "admin account seeded concurrently, skipping")
		return nil
	}

	return fmt.Errorf("auth_bootstrap_admin_create_failed: %w", err)
}
