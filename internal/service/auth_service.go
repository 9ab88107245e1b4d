package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/geocoder89/authhub/internal/observability"
	"github.com/geocoder89/authhub/internal/security"
	"github.com/go-playground/validator/v10"
)

var (
	ErrRegistrationFailed = errors.New("registration failed")
	ErrLoginFailed        = errors.New("login failed")
)

// bcrypt ignores everything past 72 bytes, so longer passwords are rejected.
const maxPasswordBytes = 72

// UserStore is the credential store contract.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (user.User, error)
	Create(ctx context.Context, username, email, passwordHash string) (user.User, error)
	UpdateToken(ctx context.Context, id, token string) error
}

type TokenIssuer interface {
	Issue(subject string) (token string, expiresAt time.Time, err error)
}

// The binding tags are shared by gin request binding and Register's own validation.
type RegisterInput struct {
	Username string `json:"username" binding:"required,min=8,max=64"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// UnmarshalJSON normalizes while decoding, so binding validation checks the
// same username and email that Register stores.
func (in *RegisterInput) UnmarshalJSON(b []byte) error {
	type plain RegisterInput

	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}

	*in = RegisterInput(p)
	in.normalize()

	return nil
}

// usernames are trimmed; emails are trimmed and lowercased
func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"-"`
}

type AuthService struct {
	users    UserStore
	hasher   security.PasswordHasher
	tokens   TokenIssuer
	validate *validator.Validate
	log      *slog.Logger
	prom     *observability.Prom

	// compared against when the username is unknown so both failure paths cost one hash check
	dummyHash string
}

func NewAuthService(users UserStore, hasher security.PasswordHasher, tokens TokenIssuer, log *slog.Logger, prom *observability.Prom) *AuthService {
	if log == nil {
		log = slog.Default()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	v.RegisterTagNameFunc(user.JSONFieldName)

	dummy, err := hasher.Hash("authhub-timing-equalizer")
	if err != nil {
		log.Warn("could not prepare dummy password hash", "err", err)
	}

	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		validate:  v,
		log:       log,
		prom:      prom,
		dummyHash: dummy,
	}
}

// Register creates a user with a hashed password. It never issues a token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	in.normalize()

	if err := s.validateRegister(in); err != nil {
		s.prom.ObserveRegistration("invalid")
		return user.User{}, err
	}

	existing, err := s.users.FindByUsernameOrEmail(ctx, in.Username, in.Email)

	switch {
	case err == nil:
		field := user.FieldEmail
		if existing.Username == in.Username {
			field = user.FieldUsername
		}
		s.prom.ObserveRegistration("conflict")
		return user.User{}, user.NewConflict(field)

	case !errors.Is(err, user.ErrNotFound):
		s.prom.ObserveRegistration("error")
		return user.User{}, fmt.Errorf("%w: lookup existing user: %w", ErrRegistrationFailed, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.prom.ObserveRegistration("error")
		return user.User{}, fmt.Errorf("%w: hash password: %w", ErrRegistrationFailed, err)
	}

	// the prior lookup is only a fast path; the store constraint settles races
	created, err := s.users.Create(ctx, in.Username, in.Email, hash)
	if err != nil {
		var conflict *user.ConflictError
		if errors.As(err, &conflict) {
			s.prom.ObserveRegistration("conflict")
			return user.User{}, conflict
		}

		s.prom.ObserveRegistration("error")
		return user.User{}, fmt.Errorf("%w: create user: %w", ErrRegistrationFailed, err)
	}

	s.prom.ObserveRegistration("created")
	s.log.InfoContext(ctx, "user registered", "user_id", created.ID)

	return created, nil
}

// Login returns user.ErrInvalidCredentials for an unknown username and for a
// wrong password alike.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	username := strings.TrimSpace(in.Username)

	found, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			if s.dummyHash != "" {
				_ = s.hasher.Verify(in.Password, s.dummyHash)
			}
			s.prom.ObserveLogin("invalid_credentials")
			return LoginResult{}, user.ErrInvalidCredentials
		}

		s.prom.ObserveLogin("error")
		return LoginResult{}, fmt.Errorf("%w: find user: %w", ErrLoginFailed, err)
	}

	if !s.hasher.Verify(in.Password, found.PasswordHash) {
		s.prom.ObserveLogin("invalid_credentials")
		return LoginResult{}, user.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(found.ID)
	if err != nil {
		s.prom.ObserveLogin("error")
		return LoginResult{}, fmt.Errorf("%w: issue token: %w", ErrLoginFailed, err)
	}

	if err := s.users.UpdateToken(ctx, found.ID, token); err != nil {
		s.prom.ObserveLogin("error")
		return LoginResult{}, fmt.Errorf("%w: store token: %w", ErrLoginFailed, err)
	}

	s.prom.ObserveLogin("ok")
	s.log.InfoContext(ctx, "user logged in", "user_id", found.ID)

	return LoginResult{Token: token, ExpiresAt: expiresAt, UserID: found.ID}, nil
}

func (s *AuthService) validateRegister(in RegisterInput) error {
	err := s.validate.Struct(in)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		return &user.ValidationError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Message: user.RuleMessage(fe.Tag(), fe.Param()),
		}
	}
	if err != nil {
		return err
	}

	if len(in.Password) > maxPasswordBytes {
		return &user.ValidationError{
			Field:   user.FieldPassword,
			Rule:    "max",
			Param:   "72",
			Message: "must be at most 72 bytes",
		}
	}

	return nil
}
