// Copyright (c) 2026 FitHub. All rights reserved.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ideafit/fithub/internal/platform/apperr"
	"github.com/ideafit/fithub/internal/platform/dberr"
)

// # Principal Repository

// principalColumns is the shared projection for hydrating a Principal.
const principalColumns = `
	id, firstname, lastname, username, email, passwordhash, gender,
	phonenumber, role, status, birthday, description, photo,
	heightmeters, weightkilos, createdat, updatedat`

// PostgresPrincipalRepository implements the PrincipalRepository interface using pgx.
type PostgresPrincipalRepository struct {
	pool *pgxpool.Pool
}

// NewPrincipalRepository creates a new PostgreSQL implementation of the PrincipalRepository.
func NewPrincipalRepository(pool *pgxpool.Pool) *PostgresPrincipalRepository {
	return &PostgresPrincipalRepository{pool: pool}
}

/*
Create persists a new principal record into the auth.principal table.

Description: The database generates the numeric identifier; it is written back
into the entity on success. Unique-index violations on email or username are
mapped to apperr.Conflict so callers can distinguish a lost provisioning race
from an infrastructure failure.

Parameters:
  - context: context.Context
  - principal: *Principal (Entity to persist)

Returns:
  - error: apperr.Conflict, or database connectivity errors
*/
func (repository *PostgresPrincipalRepository) Create(context context.Context, principal *Principal) error {
	const query = `
		INSERT INTO auth.principal (
			firstname, lastname, username, email, passwordhash, gender,
			phonenumber, role, status, birthday, description, photo,
			heightmeters, weightkilos, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`

	now := time.Now()
	if principal.CreatedAt.IsZero() {
		principal.CreatedAt = now
	}
	principal.UpdatedAt = now

	err := repository.pool.QueryRow(context, query,
		principal.FirstName,
		principal.LastName,
		principal.Username,
		principal.Email,
		principal.PasswordHash,
		principal.Gender,
		principal.PhoneNumber,
		principal.Role,
		principal.Status,
		principal.Birthday,
		principal.Description,
		principal.Photo,
		principal.HeightMeters,
		principal.WeightKilos,
		principal.CreatedAt,
		principal.UpdatedAt,
	).Scan(&principal.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return apperr.Conflict("An account with this email or username already exists")
		}
		return fmt.Errorf("postgres_principal_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByEmail retrieves a principal record by their unique email address.

Description: Serves sign-in, token refresh, the reset flow, and the federated
lost-race re-fetch.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *Principal: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresPrincipalRepository) FindByEmail(context context.Context, email string) (*Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM auth.principal WHERE email = $1`

	principal := &Principal{}
	err := repository.pool.QueryRow(context, query, email).Scan(
		&principal.ID,
		&principal.FirstName,
		&principal.LastName,
		&principal.Username,
		&principal.Email,
		&principal.PasswordHash,
		&principal.Gender,
		&principal.PhoneNumber,
		&principal.Role,
		&principal.Status,
		&principal.Birthday,
		&principal.Description,
		&principal.Photo,
		&principal.HeightMeters,
		&principal.WeightKilos,
		&principal.CreatedAt,
		&principal.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_principal_repo_find_by_email_failed: %w", err)
	}

	return principal, nil
}

/*
FindByID retrieves a principal record by their numeric identifier.

Description: Primary key resolution, used by the authorization gate to
re-resolve the caller behind a verified token.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *Principal: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresPrincipalRepository) FindByID(context context.Context, id int64) (*Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM auth.principal WHERE id = $1`

	principal := &Principal{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&principal.ID,
		&principal.FirstName,
		&principal.LastName,
		&principal.Username,
		&principal.Email,
		&principal.PasswordHash,
		&principal.Gender,
		&principal.PhoneNumber,
		&principal.Role,
		&principal.Status,
		&principal.Birthday,
		&principal.Description,
		&principal.Photo,
		&principal.HeightMeters,
		&principal.WeightKilos,
		&principal.CreatedAt,
		&principal.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_principal_repo_find_by_id_failed: %w", err)
	}

	return principal, nil
}

/*
ExistsByUsername reports whether a principal already holds the username.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - bool: Presence flag
  - error: Execution errors
*/
func (repository *PostgresPrincipalRepository) ExistsByUsername(context context.Context, username string) (bool, error) {
	const query = "SELECT EXISTS (SELECT 1 FROM auth.principal WHERE username = $1)"

	var exists bool
	if err := repository.pool.QueryRow(context, query, username).Scan(&exists); err != nil {
		return false, dberr.Wrap(fmt.Errorf("postgres_principal_repo_exists_by_username_failed: %w", err))
	}

	return exists, nil
}

/*
UpdatePassword updates only the password hash for a specific principal.

Parameters:
  - context: context.Context
  - id: int64
  - newHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresPrincipalRepository) UpdatePassword(context context.Context, id int64, newHash string) error {
	const query = `
		UPDATE auth.principal
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, id, newHash, time.Now())
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_principal_repo_update_password_failed: %w", err))
	}

	return nil
}

/*
List returns all principal records ordered by ID.

Description: Serves the operator-only account listing.

Parameters:
  - context: context.Context

Returns:
  - []*Principal: Hydrated entities
  - error: Execution errors
*/
func (repository *PostgresPrincipalRepository) List(context context.Context) ([]*Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM auth.principal ORDER BY id`

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_principal_repo_list_failed: %w", err))
	}
	defer rows.Close()

	var principals []*Principal
	for rows.Next() {
		principal := &Principal{}
		err := rows.Scan(
			&principal.ID,
			&principal.FirstName,
			&principal.LastName,
			&principal.Username,
			&principal.Email,
			&principal.PasswordHash,
			&principal.Gender,
			&principal.PhoneNumber,
			&principal.Role,
			&principal.Status,
			&principal.Birthday,
			&principal.Description,
			&principal.Photo,
			&principal.HeightMeters,
			&principal.WeightKilos,
			&principal.CreatedAt,
			&principal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres_principal_repo_list_scan_failed: %w", err)
		}
		principals = append(principals, principal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_principal_repo_list_rows_failed: %w", err)
	}

	return principals, nil
}
