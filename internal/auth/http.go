// Copyright (c) 2026 FitHub. All rights reserved.

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ideafit/fithub/internal/platform/metrics"
	requestutil "github.com/ideafit/fithub/internal/platform/request"
	"github.com/ideafit/fithub/internal/platform/respond"
	"github.com/ideafit/fithub/internal/platform/sec"
	"github.com/ideafit/fithub/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// Every route here is public by construction: credentials or tokens arrive in
// the request body, never through the authorization gate. This layer is
// strictly responsible for transport concerns (status codes, validation, JSON).
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with the authentication endpoints.
//
// # Endpoints
//   - POST /signup          : Creates a new account.
//   - POST /signin          : Authenticates and returns a token pair.
//   - POST /refresh         : Exchanges a refresh token for a new pair.
//   - POST /google          : Federated sign-in via a Google ID token.
//   - POST /forgot-password : Starts the reset flow.
//   - POST /reset-password  : Completes the reset flow.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/signup", handler.signUp)
	router.Post("/signin", handler.signIn)
	router.Post("/refresh", handler.refresh)
	router.Post("/google", handler.signInWithGoogle)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)

	return router
}

// # Request Payloads

type signUpRequest struct {
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	Gender       string  `json:"gender"`
	PhoneNumber  string  `json:"phoneNumber"`
	Role         string  `json:"role"`
	Birthday     string  `json:"birthday"`
	HeightMeters float64 `json:"height"`
	WeightKilos  float64 `json:"weight"`
}

// signUpResponse is the enrollment payload: a confirmation next to the first
// token pair, so clients can proceed without a separate sign-in round trip.
type signUpResponse struct {
	Message      string `json:"message"`
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signInResponse is the payload of both credential and federated sign-in.
type signInResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type googleSignInRequest struct {
	IDToken string `json:"idToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

/*
SignUp handles the creation of a new account.

POST /api/v1/auth/signup

Description: Validates input, checks for identity conflicts, and persists a
new principal.

Request:
  - Body: signUpRequest

Response:
  - 201: signUpResponse: Confirmation plus the first token pair
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Username or Email already exists
*/
func (handler *Handler) signUp(writer http.ResponseWriter, request *http.Request) {
	var input signUpRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldFirstName, input.FirstName).
		Required(FieldLastName, input.LastName).
		Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		Password(FieldPassword, input.Password).
		Required(FieldRole, input.Role).
		OneOf(FieldRole, input.Role, string(sec.RoleTrainer), string(sec.RoleLearner))

	if input.Gender != "" {
		validator.OneOf(FieldGender, input.Gender,
			string(GenderMale), string(GenderFemale), string(GenderOther))
	}
	validator.Custom(FieldHeight, input.HeightMeters < 0, "Must not be negative")
	validator.Custom(FieldWeight, input.WeightKilos < 0, "Must not be negative")

	var birthday time.Time
	if input.Birthday != "" {
		parsed, err := time.Parse("2006-01-02", input.Birthday)
		if err != nil {
			validator.Custom("birthday", true, "Must be a date in YYYY-MM-DD format")
		}
		birthday = parsed
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	gender := Gender(input.Gender)
	if gender == "" {
		gender = GenderOther
	}

	principal, credentials, err := handler.authService.SignUp(request.Context(), SignUpInput{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Username:     input.Username,
		Email:        input.Email,
		Password:     input.Password,
		Gender:       gender,
		PhoneNumber:  input.PhoneNumber,
		Role:         sec.Role(input.Role),
		Birthday:     birthday,
		HeightMeters: input.HeightMeters,
		WeightKilos:  input.WeightKilos,
	})
	metrics.ObserveAuthOperation("signup", err)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, signUpResponse{
		Message:      "Account created successfully",
		Email:        principal.Email,
		AccessToken:  credentials.AccessToken,
		RefreshToken: credentials.RefreshToken,
	})
}

/*
SignIn authenticates an account and issues a token pair.

POST /api/v1/auth/signin

Request:
  - Body: signInRequest (Email, Password)

Response:
  - 200: signInResponse: Confirmation plus accessToken and refreshToken
  - 401: ErrUnauthorized: Invalid credentials (always the same generic message)
*/
func (handler *Handler) signIn(writer http.ResponseWriter, request *http.Request) {
	var input signInRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	credentials, err := handler.authService.SignIn(request.Context(), input.Email, input.Password)
	metrics.ObserveAuthOperation("signin", err)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, signInResponse{
		Message:      "Login successful.",
		AccessToken:  credentials.AccessToken,
		RefreshToken: credentials.RefreshToken,
	})
}

/*
Refresh exchanges a refresh token for a fresh token pair.

POST /api/v1/auth/refresh

Request:
  - Body: refreshRequest (RefreshToken)

Response:
  - 200: Credentials: New token pair
  - 401: ErrUnauthorized: Invalid or expired refresh token
  - 404: ErrNotFound: The token subject no longer exists
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.RefreshToken == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "This field is required"))
		return
	}

	credentials, err := handler.authService.Refresh(request.Context(), input.RefreshToken)
	metrics.ObserveAuthOperation("refresh", err)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, credentials)
}

/*
SignInWithGoogle authenticates via a Google-issued ID token.

POST /api/v1/auth/google

Request:
  - Body: googleSignInRequest (IDToken)

Response:
  - 200: signInResponse: Confirmation plus token pair (account auto-provisioned
    on first sign-in)
  - 401: ErrUnauthorized: The ID token could not be verified
*/
func (handler *Handler) signInWithGoogle(writer http.ResponseWriter, request *http.Request) {
	var input googleSignInRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.IDToken == "" {
		respond.Error(writer, request, validate.RequiredError(FieldIDToken, "This field is required"))
		return
	}

	credentials, err := handler.authService.SignInWithGoogle(request.Context(), input.IDToken)
	metrics.ObserveAuthOperation("google", err)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, signInResponse{
		Message:      "Login with Google successful.",
		AccessToken:  credentials.AccessToken,
		RefreshToken: credentials.RefreshToken,
	})
}

/*
ForgotPassword initiates the password recovery flow.

POST /api/v1/auth/forgot-password

Description: Stores a single-use reset token and mails a reset link to the
account's address.

Request:
  - Body: forgotPasswordRequest (Email)

Response:
  - 200: Success: Reset link sent
  - 404: ErrNotFound: No account with this email
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.authService.RequestPasswordReset(request.Context(), input.Email)
	metrics.ObserveAuthOperation("forgot_password", err)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "A reset link has been sent to your email.",
	})
}

/*
ResetPassword completes the password recovery flow.

POST /api/v1/auth/reset-password

Request:
  - Body: resetPasswordRequest (Token, NewPassword)

Response:
  - 200: Success: Password updated
  - 401: ErrUnauthorized: Token past its validity window
  - 404: ErrNotFound: Unknown or already-consumed token
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldToken, input.Token).
		Required(FieldNewPassword, input.NewPassword).
		Password(FieldNewPassword, input.NewPassword)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err := handler.authService.ResetPassword(request.Context(), input.Token, input.NewPassword)
	metrics.ObserveAuthOperation("reset_password", err)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password updated successfully",
	})
}
