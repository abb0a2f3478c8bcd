package user

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbook/booking/pkg/apperr"
)

const (
	minPasswordLength = 8
	// bcrypt only reads the first 72 bytes and refuses anything longer.
	maxPasswordBytes = 72
)

// PasswordHasher is satisfied by auth.BcryptHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	logger zerolog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, hasher: hasher, logger: logger.With().Str("component", "user").Logger()}
}

func (s *Service) CreateUser(ctx context.Context, req CreateRequest) (*User, error) {
	name, email, err := validateProfile(req.Name, req.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	publicID := uuid.New()
	if raw := strings.TrimSpace(req.PublicID); raw != "" {
		if publicID, err = uuid.Parse(raw); err != nil {
			return nil, apperr.Invalid("invalid publicId: %s", raw)
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	u := &User{PublicID: publicID, Name: name, Email: email, PasswordHash: hash}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", u.ID).Str("public_id", u.PublicID.String()).Msg("user created")
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetUserByPublicID(ctx context.Context, publicID string) (*User, error) {
	pid, err := uuid.Parse(publicID)
	if err != nil {
		// Unknown rather than malformed: callers treat both as "no such user".
		return nil, apperr.NotFound("user not found: %s", publicID)
	}
	return s.repo.GetByPublicID(ctx, pid)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// UpdateUser replaces name and email of the user with publicID and re-hashes
// the password when a new one is given. With verifyCurrent set, a password
// change must carry the current password.
func (s *Service) UpdateUser(ctx context.Context, publicID string, req UpdateRequest, verifyCurrent bool) (*User, error) {
	u, err := s.GetUserByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	name, email, err := validateProfile(req.Name, req.Email)
	if err != nil {
		return nil, err
	}

	if req.Password != "" {
		if err := validatePassword(req.Password); err != nil {
			return nil, err
		}
		if verifyCurrent {
			if req.CurrentPassword == "" {
				return nil, apperr.Invalid("currentPassword is required to change the password")
			}
			if err := s.hasher.Verify(u.PasswordHash, req.CurrentPassword); err != nil {
				return nil, apperr.Invalid("current password is incorrect")
			}
		}
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	u.Name, u.Email = name, email
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, publicID string) error {
	u, err := s.GetUserByPublicID(ctx, publicID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, u.ID); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", u.ID).Msg("user deleted")
	return nil
}

func validateProfile(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", apperr.Invalid("name is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", "", apperr.Invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", "", apperr.Invalid("invalid email: %s", email)
	}
	return name, email, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperr.Invalid("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return apperr.Invalid("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}
