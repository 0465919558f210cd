// Copyright (c) 2026 FitHub. All rights reserved.

package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ideafit/fithub/internal/email"
	"github.com/ideafit/fithub/internal/platform/apperr"
	"github.com/ideafit/fithub/internal/platform/sec"
)

// # Contracts & Types

// TokenIssuer defines the contract for minting and inspecting session tokens.
// Satisfied by [sec.TokenCodec].
type TokenIssuer interface {
	// IssueAccessToken creates a signed short-lived access token carrying the
	// principal's id and role next to the email subject.
	IssueAccessToken(userID int64, email string, role sec.Role, timeToLive time.Duration) (string, error)

	// IssueRefreshToken creates a signed long-lived token carrying the email
	// subject only.
	IssueRefreshToken(email string, timeToLive time.Duration) (string, error)

	// ExtractSubject validates a token and returns its subject claim.
	ExtractSubject(tokenString string) (string, error)
}

// IdentityVerifier defines the contract for validating an external identity
// provider's ID token. Satisfied by [GoogleVerifier].
type IdentityVerifier interface {
	Verify(context context.Context, idToken string) (*FederatedClaims, error)
}

// Config carries the tunable parameters of the orchestrator.
type Config struct {
	// AccessTokenTTL overrides DefaultAccessTokenTTL when positive.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL overrides DefaultRefreshTokenTTL when positive.
	RefreshTokenTTL time.Duration

	// ResetLinkBaseURL is the front-end page the reset email points at; the
	// raw token is appended as a query parameter.
	ResetLinkBaseURL string
}

// Credentials is the access/refresh token pair returned by every successful
// authentication flow.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, issuance,
// federation, or reset logic must be reviewed by the security team.
type Service struct {
	principals  PrincipalRepository
	resetTokens ResetTokenRepository
	tokens      TokenIssuer
	federation  IdentityVerifier
	mailer      email.Sender
	logger      *slog.Logger
	config      Config
}

// NewService constructs a new [Service] with its collaborators. Zero TTLs in
// the config fall back to the package defaults.
func NewService(
	principals PrincipalRepository,
	resetTokens ResetTokenRepository,
	tokens TokenIssuer,
	federation IdentityVerifier,
	mailer email.Sender,
	logger *slog.Logger,
	config Config,
) *Service {
	if config.AccessTokenTTL <= 0 {
		config.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if config.RefreshTokenTTL <= 0 {
		config.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	return &Service{
		principals:  principals,
		resetTokens: resetTokens,
		tokens:      tokens,
		federation:  federation,
		mailer:      mailer,
		logger:      logger,
		config:      config,
	}
}

// # Registration Flow

// SignUpInput holds the data required to enroll a new member.
type SignUpInput struct {
	FirstName    string
	LastName     string
	Username     string
	Email        string
	Password     string
	Gender       Gender
	PhoneNumber  string
	Role         sec.Role
	Birthday     time.Time
	HeightMeters float64
	WeightKilos  float64
}

/*
SignUp validates, hashes, and persists a brand new principal.

Description: Uniqueness of email and username is pre-checked for precise
Conflict messages; the database constraints remain the final arbiter. Only
TRAINER and LEARNER may self-register: operator accounts are provisioned
out of band. Enrollment doubles as the first sign-in, so the new principal
comes back with its first token pair.

Parameters:
  - context: context.Context
  - input: SignUpInput

Returns:
  - *Principal: Created entity
  - *Credentials: First access/refresh token pair
  - error: Conflict (if identity exists), validation, or storage errors
*/
func (service *Service) SignUp(context context.Context, input SignUpInput) (*Principal, *Credentials, error) {

	// Closed enrollment set: ADMIN cannot be self-assigned.
	if !input.Role.In(sec.RoleTrainer, sec.RoleLearner) {
		return nil, nil, apperr.ValidationError("Role must be TRAINER or LEARNER")
	}

	// Verify email uniqueness. Return a client-safe Conflict err. Only a
	// definite NOT_FOUND means the email is free; an infrastructure failure
	// must not be mistaken for absence.
	_, err := service.principals.FindByEmail(context, input.Email)
	if err == nil {
		return nil, nil, apperr.Conflict("An account with this email already exists")
	}
	if appError := apperr.As(err); appError == nil || appError.Code != "NOT_FOUND" {
		return nil, nil, fmt.Errorf("auth_service_email_check_failed: %w", err)
	}

	// Verify username uniqueness. Return a client-safe Conflict err.
	taken, err := service.principals.ExistsByUsername(context, input.Username)
	if err != nil {
		return nil, nil, fmt.Errorf("auth_service_username_check_failed: %w", err)
	}
	if taken {
		return nil, nil, apperr.Conflict("This username is already taken")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	principal := &Principal{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Gender:       input.Gender,
		PhoneNumber:  input.PhoneNumber,
		Role:         input.Role,
		Status:       StatusAvailable,
		Birthday:     input.Birthday,
		HeightMeters: input.HeightMeters,
		WeightKilos:  input.WeightKilos,
	}

	if err := service.principals.Create(context, principal); err != nil {
		return nil, nil, err
	}

	// Welcome mail is a best-effort side effect; enrollment already succeeded.
	service.notify(email.Message{
		To:      principal.Email,
		Subject: "Welcome to FitHub",
		Body:    fmt.Sprintf("Hi %s, your account is ready. Time to start training!", principal.FirstName),
	})

	credentials, err := service.issueCredentials(principal)
	if err != nil {
		return nil, nil, err
	}

	return principal, credentials, nil
}

// # Authentication Flow

/*
SignIn validates credentials and issues a token pair.

Description: Unknown email and wrong password produce the identical generic
Unauthorized so that the endpoint cannot be used to enumerate accounts.

Parameters:
  - context: context.Context
  - loginEmail: string
  - password: string

Returns:
  - *Credentials: Access/refresh token pair
  - error: Unauthorized or internal failures
*/
func (service *Service) SignIn(context context.Context, loginEmail, password string) (*Credentials, error) {
	principal, err := service.principals.FindByEmail(context, loginEmail)

	// If (err != nil) the account does not exist. Generic message to prevent enumeration.
	if err != nil {
		return nil, apperr.Unauthorized("Invalid email or password")
	}

	// bcrypt comparison is constant-time with respect to the hash content.
	if !sec.CheckPasswordHash(password, principal.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid email or password")
	}

	return service.issueCredentials(principal)
}

/*
Refresh exchanges a valid refresh token for a brand-new token pair.

Description: The incoming token is verified (signature and expiry), then the
principal is re-resolved by the subject email so the fresh access token
carries current id and role. The old refresh token is not revoked; it simply
ages out at its own expiry.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *Credentials: New token pair
  - error: Unauthorized on an invalid token, NotFound if the account is gone
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*Credentials, error) {
	subject, err := service.tokens.ExtractSubject(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	principal, err := service.principals.FindByEmail(context, subject)
	if err != nil {
		return nil, err
	}

	return service.issueCredentials(principal)
}

// # Identity Federation

/*
SignInWithGoogle authenticates a caller through a Google-issued ID token.

Description: The token is verified against the configured audience; any
verification failure is a generic Unauthorized. A first-time caller is
auto-provisioned as a LEARNER with placeholder profile values and a random
password that is hashed and immediately discarded, so the account can only
ever authenticate through federation. Two concurrent first sign-ins race on
the unique email index; the loser detects the Conflict and re-fetches the
winner's row instead of failing.

Parameters:
  - context: context.Context
  - idToken: string

Returns:
  - *Credentials: Access/refresh token pair
  - error: Unauthorized or provisioning failures
*/
func (service *Service) SignInWithGoogle(context context.Context, idToken string) (*Credentials, error) {
	claims, err := service.federation.Verify(context, idToken)
	if err != nil {
		service.logger.WarnContext(context, "google id token rejected", slog.Any("error", err))
		return nil, apperr.Unauthorized("Google sign-in could not be verified")
	}

	principal, err := service.principals.FindByEmail(context, claims.Email)
	if err == nil {
		return service.issueCredentials(principal)
	}
	if apperr.As(err) == nil || apperr.As(err).Code != "NOT_FOUND" {
		return nil, fmt.Errorf("auth_service_federated_lookup_failed: %w", err)
	}

	principal, err = service.provisionFederated(context, claims)
	if err != nil {
		return nil, err
	}

	return service.issueCredentials(principal)
}

// provisionFederated creates a placeholder LEARNER account for a verified
// federated identity, falling back to the winner's row when the insert loses
// a concurrent race.
func (service *Service) provisionFederated(context context.Context, claims *FederatedClaims) (*Principal, error) {

	// Profile attributes Google does not supply get neutral placeholders the
	// member can edit later.
	firstName := claims.GivenName
	if firstName == "" {
		firstName = localPart(claims.Email)
	}
	lastName := claims.FamilyName
	if lastName == "" {
		lastName = "."
	}

	// Random password, hashed and discarded: the account is federation-only.
	randomPassword, err := sec.GenerateSecureToken(FederatedPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_federated_password_failed: %w", err)
	}
	hashedPassword, err := sec.HashPassword(randomPassword)
	if err != nil {
		return nil, fmt.Errorf("auth_service_federated_hash_failed: %w", err)
	}

	principal := &Principal{
		FirstName:    firstName,
		LastName:     lastName,
		Username:     claims.Email,
		Email:        claims.Email,
		PasswordHash: hashedPassword,
		Gender:       GenderMale,
		PhoneNumber:  randomPhoneNumber(),
		Role:         sec.RoleLearner,
		Status:       StatusAvailable,
		HeightMeters: 1.0,
		WeightKilos:  1.0,
	}

	err = service.principals.Create(context, principal)
	if err == nil {
		return principal, nil
	}

	// Lost the provisioning race: the unique email index rejected the insert,
	// so the winner's row must exist now. Re-fetch and continue.
	if appError := apperr.As(err); appError != nil && appError.Code == "CONFLICT" {
		existing, fetchErr := service.principals.FindByEmail(context, claims.Email)
		if fetchErr != nil {
			return nil, fmt.Errorf("auth_service_federated_refetch_failed: %w", fetchErr)
		}
		return existing, nil
	}

	return nil, fmt.Errorf("auth_service_federated_create_failed: %w", err)
}

// # Password Recovery

/*
RequestPasswordReset initiates the forgot-password flow.

Description: A single-use token is generated, stored under its raw value,
and mailed to the account's address. An unknown email is reported as
NotFound. Mail delivery failures are logged and swallowed; the token has
already been stored, so the caller still receives success.

Parameters:
  - context: context.Context
  - accountEmail: string

Returns:
  - error: apperr.NotFound for an unknown email, generation or storage errors
*/
func (service *Service) RequestPasswordReset(context context.Context, accountEmail string) error {
	principal, err := service.principals.FindByEmail(context, accountEmail)
	if err != nil {
		return err
	}

	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	grant := PasswordResetToken{
		PrincipalID: principal.ID,
		Email:       principal.Email,
		ExpiresAt:   time.Now().Add(ResetTokenTTL),
	}
	if err := service.resetTokens.Set(context, token, grant); err != nil {
		return fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	service.notify(email.Message{
		To:      principal.Email,
		Subject: "Reset your FitHub password",
		Body: fmt.Sprintf(
			"Hi %s, use the link below within %d minutes to choose a new password:\n%s?token=%s",
			principal.FirstName, int(ResetTokenTTL.Minutes()), service.config.ResetLinkBaseURL, token,
		),
	})

	return nil
}

/*
ResetPassword completes the forgot-password flow.

Description: An unknown or consumed token is NotFound; a known token past
its 15-minute deadline is Unauthorized. The grant is deleted only after the
new hash has been persisted, so a failed update leaves the token usable for
a retry within the window.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string

Returns:
  - error: NotFound, Unauthorized, or update failures
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {
	grant, err := service.resetTokens.Get(context, token)
	if err != nil {
		return err
	}

	if grant.Expired(time.Now()) {
		return apperr.Unauthorized("Reset token has expired")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	if err := service.principals.UpdatePassword(context, grant.PrincipalID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	// Single use: consumed only after the new hash is durable.
	if err := service.resetTokens.Delete(context, token); err != nil {
		service.logger.ErrorContext(context, "failed to delete consumed reset token", slog.Any("error", err))
	}

	return nil
}

// # Gate Support

/*
ResolveIdentity turns a verified token subject into the live caller.

Description: Backs the request authorization gate. The principal is always
re-fetched from storage so a deleted account stops authenticating the moment
its row is gone, regardless of tokens still in the wild.

Parameters:
  - context: context.Context
  - subject: string (email claim of a verified token)

Returns:
  - *sec.Identity: Resolved caller
  - error: apperr.NotFound or storage failures
*/
func (service *Service) ResolveIdentity(context context.Context, subject string) (*sec.Identity, error) {
	principal, err := service.principals.FindByEmail(context, subject)
	if err != nil {
		return nil, err
	}
	return &sec.Identity{
		ID:       principal.ID,
		Email:    principal.Email,
		Username: principal.Username,
		Role:     principal.Role,
	}, nil
}

// # Internals

// issueCredentials mints the access/refresh pair for a resolved principal.
func (service *Service) issueCredentials(principal *Principal) (*Credentials, error) {
	accessToken, err := service.tokens.IssueAccessToken(
		principal.ID, principal.Email, principal.Role, service.config.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	refreshToken, err := service.tokens.IssueRefreshToken(principal.Email, service.config.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	return &Credentials{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// notify delivers a message on a detached goroutine with its own deadline.
// Delivery failures are logged, never returned: mail is best-effort.
func (service *Service) notify(message email.Message) {
	go func() {
		sendContext, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := service.mailer.Send(sendContext, message); err != nil {
			service.logger.Error("failed to send notification email",
				slog.String("to", message.To),
				slog.String("subject", message.Subject),
				slog.Any("error", err),
			)
		}
	}()
}

// localPart returns everything before the '@' of an email address.
func localPart(address string) string {
	if at := strings.Index(address, "@"); at > 0 {
		return address[:at]
	}
	return address
}

// randomPhoneNumber builds a 10-digit placeholder phone number for
// auto-provisioned accounts.
func randomPhoneNumber() string {
	buffer := make([]byte, 10)
	_, _ = rand.Read(buffer)
	digits := make([]byte, len(buffer))
	for index, value := range buffer {
		digits[index] = '0' + value%10
	}
	return string(digits)
}
