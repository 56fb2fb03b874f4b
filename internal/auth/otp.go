package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/curelink/telemed-backend/internal/user"
)

var (
	ErrBadPhone      = errors.New("phone must be in E.164 format")
	ErrSuspended     = errors.New("account is suspended")
	ErrNameRequired  = errors.New("name is required for signup")
	ErrRoleForbidden = errors.New("role cannot be self-assigned")
)

var phonePattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// CodeStore is the Redis-backed OTP storage contract.
type CodeStore interface {
	Put(ctx context.Context, phone, code string) error
	Verify(ctx context.Context, phone, code string) error
}

// Service implements phone-based OTP login. A verified code either logs
// an existing user in or creates the account on the spot.
type Service struct {
	users  user.Repository
	codes  CodeStore
	sender CodeSender
	issuer *TokenIssuer
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(users user.Repository, codes CodeStore, sender CodeSender, issuer *TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		codes:  codes,
		sender: sender,
		issuer: issuer,
		logger: logger.With().Str("component", "auth").Logger(),
		now:    time.Now,
	}
}

// RequestCode generates and delivers a login code for the phone.
// Suspended accounts are refused before any SMS goes out.
func (s *Service) RequestCode(ctx context.Context, phone string) error {
	if !phonePattern.MatchString(phone) {
		return ErrBadPhone
	}

	existing, err := s.users.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return fmt.Errorf("load user: %w", err)
	}
	if existing != nil && existing.Suspended {
		return ErrSuspended
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	if err := s.codes.Put(ctx, phone, code); err != nil {
		return err
	}

	if err := s.sender.SendCode(ctx, phone, code); err != nil {
		return fmt.Errorf("deliver code: %w", err)
	}
	return nil
}

type VerifyRequest struct {
	Phone string
	Code  string
	// Signup fields, used only when the phone is new.
	Name  string
	Email *string
	Role  user.Role
}

type Session struct {
	Token string
	User  *user.User
}

// VerifyCode checks the submitted code and returns a session. New phones
// become accounts; the admin role can never be self-assigned.
func (s *Service) VerifyCode(ctx context.Context, req VerifyRequest) (*Session, error) {
	if !phonePattern.MatchString(req.Phone) {
		return nil, ErrBadPhone
	}

	if err := s.codes.Verify(ctx, req.Phone, req.Code); err != nil {
		return nil, err
	}

	u, err := s.users.GetByPhone(ctx, req.Phone)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if u == nil {
		role := req.Role
		if role == "" {
			role = user.RolePatient
		}
		if !user.ValidSignupRole(role) {
			return nil, ErrRoleForbidden
		}
		if req.Name == "" {
			return nil, ErrNameRequired
		}
		u, err = s.users.Create(ctx, req.Name, req.Phone, req.Email, role)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		s.logger.Info().Stringer("user_id", u.ID).Str("role", string(u.Role)).Msg("user signed up")
	}

	if u.Suspended {
		return nil, ErrSuspended
	}

	token, err := s.issuer.Issue(u, s.now())
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}

// generateCode returns a uniformly random 6-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
