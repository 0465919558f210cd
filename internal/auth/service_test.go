// Copyright (c) 2026 FitHub. All rights reserved.

package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideafit/fithub/internal/email"
	"github.com/ideafit/fithub/internal/platform/apperr"
	"github.com/ideafit/fithub/internal/platform/sec"
)

// # Test Fakes

// fakePrincipalRepository is an in-memory PrincipalRepository.
type fakePrincipalRepository struct {
	nextID     int64
	principals map[string]*Principal // keyed by email

	// onCreate, when set, intercepts Create before the default behavior.
	onCreate func(principal *Principal) error

	// findByEmailErr, when set, is returned by every FindByEmail call to
	// simulate an infrastructure failure.
	findByEmailErr error
}

func newFakePrincipalRepository() *fakePrincipalRepository {
	return &fakePrincipalRepository{principals: map[string]*Principal{}}
}

func (repo *fakePrincipalRepository) add(principal *Principal) *Principal {
	repo.nextID++
	principal.ID = repo.nextID
	repo.principals[principal.Email] = principal
	return principal
}

func (repo *fakePrincipalRepository) FindByID(_ context.Context, id int64) (*Principal, error) {
	for _, principal := range repo.principals {
		if principal.ID == id {
			return principal, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (repo *fakePrincipalRepository) FindByEmail(_ context.Context, address string) (*Principal, error) {
	if repo.findByEmailErr != nil {
		return nil, repo.findByEmailErr
	}
	if principal, ok := repo.principals[address]; ok {
		return principal, nil
	}
	return nil, apperr.NotFound("Account")
}

func (repo *fakePrincipalRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, principal := range repo.principals {
		if principal.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (repo *fakePrincipalRepository) Create(_ context.Context, principal *Principal) error {
	if repo.onCreate != nil {
		return repo.onCreate(principal)
	}
	if _, exists := repo.principals[principal.Email]; exists {
		return apperr.Conflict("An account with this email or username already exists")
	}
	repo.add(principal)
	return nil
}

func (repo *fakePrincipalRepository) UpdatePassword(_ context.Context, id int64, newHash string) error {
	for _, principal := range repo.principals {
		if principal.ID == id {
			principal.PasswordHash = newHash
			return nil
		}
	}
	return apperr.NotFound("Account")
}

func (repo *fakePrincipalRepository) List(_ context.Context) ([]*Principal, error) {
	all := make([]*Principal, 0, len(repo.principals))
	for _, principal := range repo.principals {
		all = append(all, principal)
	}
	return all, nil
}

// fakeResetTokenRepository is an in-memory ResetTokenRepository.
type fakeResetTokenRepository struct {
	grants map[string]PasswordResetToken
}

func newFakeResetTokenRepository() *fakeResetTokenRepository {
	return &fakeResetTokenRepository{grants: map[string]PasswordResetToken{}}
}

func (repo *fakeResetTokenRepository) Set(_ context.Context, token string, grant PasswordResetToken) error {
	repo.grants[token] = grant
	return nil
}

func (repo *fakeResetTokenRepository) Get(_ context.Context, token string) (*PasswordResetToken, error) {
	grant, ok := repo.grants[token]
	if !ok {
		return nil, apperr.NotFound("Reset token")
	}
	return &grant, nil
}

func (repo *fakeResetTokenRepository) Delete(_ context.Context, token string) error {
	delete(repo.grants, token)
	return nil
}

// stubIdentityVerifier returns canned federated claims or a failure.
type stubIdentityVerifier struct {
	claims *FederatedClaims
	err    error
}

func (verifier *stubIdentityVerifier) Verify(context.Context, string) (*FederatedClaims, error) {
	return verifier.claims, verifier.err
}

// failingSender always fails delivery.
type failingSender struct{}

func (failingSender) Send(context.Context, email.Message) error {
	return errors.New("smtp unreachable")
}

// # Test Harness

const serviceTestSecret = "0123456789abcdef0123456789abcdef"

type serviceHarness struct {
	service    *Service
	principals *fakePrincipalRepository
	resets     *fakeResetTokenRepository
	verifier   *stubIdentityVerifier
	codec      *sec.TokenCodec
}

func newServiceHarness(t *testing.T) *serviceHarness {
	t.Helper()

	codec, err := sec.NewTokenCodec(serviceTestSecret, "test")
	require.NoError(t, err)

	harness := &serviceHarness{
		principals: newFakePrincipalRepository(),
		resets:     newFakeResetTokenRepository(),
		verifier:   &stubIdentityVerifier{},
		codec:      codec,
	}
	harness.service = NewService(
		harness.principals,
		harness.resets,
		codec,
		harness.verifier,
		email.NewLogSender(discardLogger()),
		discardLogger(),
		Config{ResetLinkBaseURL: "https://fithub.app/reset-password"},
	)
	return harness
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedLearner registers an account through the real signup path.
func (harness *serviceHarness) seedLearner(t *testing.T, address, username, password string) *Principal {
	t.Helper()
	principal, _, err := harness.service.SignUp(context.Background(), SignUpInput{
		FirstName:    "Jamie",
		LastName:     "Fox",
		Username:     username,
		Email:        address,
		Password:     password,
		Gender:       GenderFemale,
		Role:         sec.RoleLearner,
		HeightMeters: 1.7,
		WeightKilos:  62,
	})
	require.NoError(t, err)
	return principal
}

// # Registration

func TestService_SignUp(t *testing.T) {
	harness := newServiceHarness(t)

	principal, credentials, err := harness.service.SignUp(context.Background(), SignUpInput{
		FirstName: "Jamie", LastName: "Fox", Username: "jamie",
		Email: "jamie@example.com", Password: "Secret123",
		Gender: GenderFemale, Role: sec.RoleLearner,
		HeightMeters: 1.7, WeightKilos: 62,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), principal.ID)
	assert.Equal(t, StatusAvailable, principal.Status)
	assert.Equal(t, sec.RoleLearner, principal.Role)

	// Stored as a hash, never plain text.
	assert.NotEqual(t, "Secret123", principal.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("Secret123", principal.PasswordHash))

	// Enrollment doubles as the first sign-in.
	accessClaims, err := harness.codec.Verify(credentials.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "jamie@example.com", accessClaims.Subject)
	assert.Equal(t, []string{"LEARNER"}, accessClaims.Roles)
}

func TestService_SignUp_DuplicateEmail(t *testing.T) {
	harness := newServiceHarness(t)
	harness.seedLearner(t, "jamie@example.com", "jamie", "Secret123")

	_, _, err := harness.service.SignUp(context.Background(), SignUpInput{
		FirstName: "Other", LastName: "Person", Username: "someoneelse",
		Email: "jamie@example.com", Password: "Secret123", Role: sec.RoleLearner,
	})

	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	// Nothing was written for the rejected attempt.
	assert.Len(t, harness.principals.principals, 1)
}

func TestService_SignUp_DuplicateUsername(t *testing.T) {
	harness := newServiceHarness(t)
	harness.seedLearner(t, "jamie@example.com", "jamie", "Secret123")

	_, _, err := harness.service.SignUp(context.Background(), SignUpInput{
		FirstName: "Other", LastName: "Person", Username: "jamie",
		Email: "other@example.com", Password: "Secret123", Role: sec.RoleTrainer,
	})

	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	assert.Len(t, harness.principals.principals, 1)
}

func TestService_SignUp_RejectsOperatorRole(t *testing.T) {
	harness := newServiceHarness(t)

	_, _, err := harness.service.SignUp(context.Background(), SignUpInput{
		FirstName: "Eve", LastName: "Intruder", Username: "eve",
		Email: "eve@example.com", Password: "Secret123", Role: sec.RoleAdmin,
	})

	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

func TestService_SignUp_LookupFailureIsNotAbsence(t *testing.T) {
	harness := newServiceHarness(t)
	harness.principals.findByEmailErr = apperr.Internal(errors.New("connection refused"))

	_, _, err := harness.service.SignUp(context.Background(), SignUpInput{
		FirstName: "Jamie", LastName: "Fox", Username: "jamie",
		Email: "jamie@example.com", Password: "Secret123", Role: sec.RoleLearner,
	})

	// A broken lookup must surface, not be read as "email free".
	require.Error(t, err)
	appError := apperr.As(err)
	if appError != nil {
		assert.NotEqual(t, "CONFLICT", appError.Code)
	}
	assert.Empty(t, harness.principals.principals)
}

// # Operator Bootstrap

func TestService_EnsureAdmin(t *testing.T) {
	harness := newServiceHarness(t)

	require.NoError(t, harness.service.EnsureAdmin(context.Background(), "root@fithub.app", "Operator99"))

	admin, err := harness.principals.FindByEmail(context.Background(), "root@fithub.app")
	require.NoError(t, err)
	assert.Equal(t, sec.RoleAdmin, admin.Role)
	assert.Equal(t, "admin", admin.Username)
	assert.Equal(t, StatusAvailable, admin.Status)
	assert.True(t, sec.CheckPasswordHash("Operator99", admin.PasswordHash))

	// The seeded operator passes the role gate end to end.
	identity, err := harness.service.ResolveIdentity(context.Background(), "root@fithub.app")
	require.NoError(t, err)
	assert.True(t, identity.Role.In(sec.RoleAdmin))
}

func TestService_EnsureAdmin_Idempotent(t *testing.T) {
	harness := newServiceHarness(t)

	require.NoError(t, harness.service.EnsureAdmin(context.Background(), "root@fithub.app", "Operator99"))
	seeded, err := harness.principals.FindByEmail(context.Background(), "root@fithub.app")
	require.NoError(t, err)

	// A second run with a different password leaves the account untouched.
	require.NoError(t, harness.service.EnsureAdmin(context.Background(), "root@fithub.app", "Changed123"))
	assert.Len(t, harness.principals.principals, 1)

	current, err := harness.principals.FindByEmail(context.Background(), "root@fithub.app")
	require.NoError(t, err)
	assert.Equal(t, seeded.PasswordHash, current.PasswordHash)
}

func TestService_EnsureAdmin_LostSeedingRace(t *testing.T) {
	harness := newServiceHarness(t)

	// A concurrently starting replica wins the insert.
	harness.principals.onCreate = func(*Principal) error {
		harness.principals.add(&Principal{
			FirstName: "Admin", LastName: "FitHub", Username: "admin",
			Email: "root@fithub.app", Role: sec.RoleAdmin, Status: StatusAvailable,
		})
		return apperr.Conflict("An account with this email or username already exists")
	}

	require.NoError(t, harness.service.EnsureAdmin(context.Background(), "root@fithub.app", "Operator99"))
	assert.Len(t, harness.principals.principals, 1)
}

func TestService_EnsureAdmin_LookupFailure(t *testing.T) {
	harness := newServiceHarness(t)
	harness.principals.findByEmailErr = apperr.Internal(errors.New("connection refused"))

	err := harness.service.EnsureAdmin(context.Background(), "root@fithub.app", "Operator99")

	require.Error(t, err)
	assert.Empty(t, harness.principals.principals)
}

// # Sign-In

func TestService_SignIn(t *testing.T) {
	harness := newServiceHarness(t)
	harness.seedLearner(t, "jamie@example.com", "jamie", "Secret123")

	credentials, err := harness.service.SignIn(context.Background(), "jamie@example.com", "Secret123")
	require.NoError(t, err)

	// The access token carries identity and role claims.
	accessClaims, err := harness.codec.Verify(credentials.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "jamie@example.com", accessClaims.Subject)
	assert.Equal(t, int64(1), accessClaims.UserID)
	assert.Equal(t, []string{"LEARNER"}, accessClaims.Roles)

	// The refresh token carries the subject only.
	refreshClaims, err := harness.codec.Verify(credentials.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "jamie@example.com", refreshClaims.Subject)
	assert.Zero(t, refreshClaims.UserID)
	assert.Empty(t, refreshClaims.Roles)
}

func TestService_SignIn_GenericFailure(t *testing.T) {
	harness := newServiceHarness(t)
	harness.seedLearner(t, "jamie@example.com", "jamie", "Secret123")

	_, unknownErr := harness.service.SignIn(context.Background(), "nobody@example.com", "Secret123")
	_, wrongErr := harness.service.SignIn(context.Background(), "jamie@example.com", "wrong-password")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(unknownErr).Code)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(wrongErr).Code)

	// Identical message in both cases: the endpoint must not reveal whether
	// the email is registered.
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

// # Token Refresh

func TestService_Refresh(t *testing.T) {
	harness := newServiceHarness(t)
	harness.seedLearner(t, "jamie@example.com", "jamie", "Secret123")

	credentials, err := harness.service.SignIn(context.Background(), "jamie@example.com", "Secret123")
	require.NoError(t, err)

	renewed, err := harness.service.Refresh(context.Background(), credentials.RefreshToken)
	require.NoError(t, err)

	accessClaims, err := harness.codec.Verify(renewed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), accessClaims.UserID)
	assert.Equal(t, []string{"LEARNER"}, accessClaims.Roles)
}

func TestService_Refresh_InvalidToken(t *testing.T) {
	harness := newServiceHarness(t)

	_, err := harness.service.Refresh(context.Background(), "not-a-token")

	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

func TestService_Refresh_ExpiredToken(t *testing.T) {
	harness := newServiceHarness(t)
	harness.seedLearner(t, "jamie@example.com", "jamie", "Secret123")

	expired, err := harness.codec.IssueRefreshToken("jamie@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = harness.service.Refresh(context.Background(), expired)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

func TestService_Refresh_AccountGone(t *testing.T) {
	harness := newServiceHarness(t)

	// A structurally valid token whose subject no longer has an account.
	orphaned, err := harness.codec.IssueRefreshToken("ghost@example.com", time.Hour)
	require.NoError(t, err)

	_, err = harness.service.Refresh(context.Background(), orphaned)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

// # Federated Sign-In

func TestService_SignInWithGoogle_ExistingAccount(t *testing.T) {
	harness := newServiceHarness(t)
	harness.seedLearner(t, "jamie@example.com", "jamie", "Secret123")
	harness.verifier.claims = &FederatedClaims{Email: "jamie@example.com", GivenName: "Jamie"}

	credentials, err := harness.service.SignInWithGoogle(context.Background(), "stub-id-token")
	require.NoError(t, err)

	accessClaims, err := harness.codec.Verify(credentials.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), accessClaims.UserID)

	// No second account was provisioned.
	assert.Len(t, harness.principals.principals, 1)
}

func TestService_SignInWithGoogle_AutoProvision(t *testing.T) {
	harness := newServiceHarness(t)
	harness.verifier.claims = &FederatedClaims{Email: "newcomer@gmail.com"}

	_, err := harness.service.SignInWithGoogle(context.Background(), "stub-id-token")
	require.NoError(t, err)

	principal, err := harness.principals.FindByEmail(context.Background(), "newcomer@gmail.com")
	require.NoError(t, err)

	// Missing provider names fall back to placeholders.
	assert.Equal(t, "newcomer", principal.FirstName)
	assert.Equal(t, ".", principal.LastName)
	assert.Equal(t, sec.RoleLearner, principal.Role)
	assert.Equal(t, StatusAvailable, principal.Status)
	assert.Equal(t, 1.0, principal.HeightMeters)
	assert.Equal(t, 1.0, principal.WeightKilos)
	assert.Len(t, principal.PhoneNumber, 10)
	assert.NotEmpty(t, principal.PasswordHash)
}

func TestService_SignInWithGoogle_VerifierRejects(t *testing.T) {
	harness := newServiceHarness(t)
	harness.verifier.err = errors.New("audience mismatch")

	_, err := harness.service.SignInWithGoogle(context.Background(), "stub-id-token")

	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	// No placeholder account slipped through.
	assert.Empty(t, harness.principals.principals)
}

func TestService_SignInWithGoogle_LostProvisioningRace(t *testing.T) {
	harness := newServiceHarness(t)
	harness.verifier.claims = &FederatedClaims{Email: "racer@gmail.com", GivenName: "Rae"}

	// Simulate a concurrent winner: the insert hits the unique index, and by
	// then the winner's row is visible.
	harness.principals.onCreate = func(loser *Principal) error {
		winner := &Principal{
			FirstName: "Rae", LastName: ".", Username: "racer@gmail.com",
			Email: "racer@gmail.com", Role: sec.RoleLearner, Status: StatusAvailable,
		}
		harness.principals.add(winner)
		return apperr.Conflict("An account with this email or username already exists")
	}

	credentials, err := harness.service.SignInWithGoogle(context.Background(), "stub-id-token")
	require.NoError(t, err)

	// The loser authenticated as the winner's account.
	accessClaims, err := harness.codec.Verify(credentials.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), accessClaims.UserID)
	assert.Len(t, harness.principals.principals, 1)
}

// # Password Recovery

func TestService_RequestPasswordReset(t *testing.T) {
	harness := newServiceHarness(t)
	learner := harness.seedLearner(t, "jamie@example.com", "jamie", "Secret123")

	require.NoError(t, harness.service.RequestPasswordReset(context.Background(), "jamie@example.com"))

	require.Len(t, harness.resets.grants, 1)
	for _, grant := range harness.resets.grants {
		assert.Equal(t, learner.ID, grant.PrincipalID)
		assert.Equal(t, "jamie@example.com", grant.Email)
		assert.WithinDuration(t, time.Now().Add(ResetTokenTTL), grant.ExpiresAt, 5*time.Second)
	}
}

func TestService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	harness := newServiceHarness(t)

	err := harness.service.RequestPasswordReset(context.Background(), "nobody@example.com")

	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	assert.Empty(t, harness.resets.grants)
}

func TestService_RequestPasswordReset_MailFailureSwallowed(t *testing.T) {
	harness := newServiceHarness(t)
	harness.seedLearner(t, "jamie@example.com", "jamie", "Secret123")
	harness.service.mailer = failingSender{}

	// The token is stored before delivery is attempted; a dead mailer must
	// not fail the request.
	require.NoError(t, harness.service.RequestPasswordReset(context.Background(), "jamie@example.com"))
	assert.Len(t, harness.resets.grants, 1)
}

func TestService_ResetPassword(t *testing.T) {
	harness := newServiceHarness(t)
	harness.seedLearner(t, "jamie@example.com", "jamie", "Secret123")
	require.NoError(t, harness.service.RequestPasswordReset(context.Background(), "jamie@example.com"))

	var token string
	for stored := range harness.resets.grants {
		token = stored
	}

	require.NoError(t, harness.service.ResetPassword(context.Background(), token, "Fresher456"))

	// The new password works, the old one does not.
	_, err := harness.service.SignIn(context.Background(), "jamie@example.com", "Fresher456")
	assert.NoError(t, err)
	_, err = harness.service.SignIn(context.Background(), "jamie@example.com", "Secret123")
	assert.Error(t, err)

	// Single use: the consumed token is gone and reports NotFound.
	err = harness.service.ResetPassword(context.Background(), token, "Another789")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

func TestService_ResetPassword_UnknownToken(t *testing.T) {
	harness := newServiceHarness(t)

	err := harness.service.ResetPassword(context.Background(), "never-issued", "Fresher456")

	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

func TestService_ResetPassword_ValidityWindow(t *testing.T) {
	harness := newServiceHarness(t)
	learner := harness.seedLearner(t, "jamie@example.com", "jamie", "Secret123")

	issue := func(age time.Duration) string {
		token := "window-token-" + age.String()
		harness.resets.grants[token] = PasswordResetToken{
			PrincipalID: learner.ID,
			Email:       learner.Email,
			ExpiresAt:   time.Now().Add(ResetTokenTTL - age),
		}
		return token
	}

	// 14 minutes after issuance: still inside the window.
	fresh := issue(14 * time.Minute)
	assert.NoError(t, harness.service.ResetPassword(context.Background(), fresh, "Fresher456"))

	// 16 minutes after issuance: present but past the deadline. This must be
	// distinguishable from an unknown token.
	stale := issue(16 * time.Minute)
	err := harness.service.ResetPassword(context.Background(), stale, "Fresher456")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

// # Gate Support

func TestService_ResolveIdentity(t *testing.T) {
	harness := newServiceHarness(t)
	learner := harness.seedLearner(t, "jamie@example.com", "jamie", "Secret123")

	identity, err := harness.service.ResolveIdentity(context.Background(), "jamie@example.com")
	require.NoError(t, err)
	assert.Equal(t, learner.ID, identity.ID)
	assert.Equal(t, "jamie", identity.Username)
	assert.Equal(t, sec.RoleLearner, identity.Role)

	_, err = harness.service.ResolveIdentity(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

// # Helpers

func TestLocalPart(t *testing.T) {
	assert.Equal(t, "jamie", localPart("jamie@example.com"))
	assert.Equal(t, "no-at-sign", localPart("no-at-sign"))
}

func TestRandomPhoneNumber(t *testing.T) {
	number := randomPhoneNumber()
	assert.Len(t, number, 10)
	assert.Equal(t, "", strings.Trim(number, "0123456789"))
}
