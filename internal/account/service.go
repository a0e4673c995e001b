package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidRole  = errors.New("invalid account role")
	ErrInvalidScope = errors.New("invalid account scope")
	ErrMissingField = errors.New("username and email are required")
	// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// MaxPasswordBytes is the bcrypt input limit.
const MaxPasswordBytes = 72

type RegisterInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	Role      Role
}

// UpdateInput carries the editable fields. Nil fields are left unchanged.
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Password  *string
	Active    *bool
}

type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(a *Account, password string) bool {
	if a.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	if username == "" || email == "" {
		return nil, ErrMissingField
	}

	role := in.Role
	if role == "" {
		role = RolePatient
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	taken, err := s.repo.EmailInUse(ctx, email, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	a := &Account{
		ID:           uuid.New(),
		Username:     username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		Role:         role,
		Active:       true,
		PasswordHash: hash,
	}
	if p := strings.TrimSpace(in.Phone); p != "" {
		a.Phone = &p
	}

	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.log.Info("account registered",
		zap.String("account_id", a.ID.String()),
		zap.String("role", string(a.Role)),
	)
	return a, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Account, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return nil, ErrMissingField
		}
		taken, err := s.repo.EmailInUse(ctx, email, &a.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
		a.Email = email
	}
	if in.FirstName != nil {
		a.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		a.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		if p := strings.TrimSpace(*in.Phone); p != "" {
			a.Phone = &p
		} else {
			a.Phone = nil
		}
	}
	if in.Active != nil {
		a.Active = *in.Active
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		a.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update account: %w", err)
	}

	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the accounts visible under scope. Patients never include staff
// or admin accounts.
func (s *Service) List(ctx context.Context, scope Scope, f ListFilter) ([]Account, error) {
	roles := scope.Roles()
	if len(roles) == 0 {
		return nil, ErrInvalidScope
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	accounts, err := s.repo.ListByRoles(ctx, roles, f)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}
