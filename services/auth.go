package services

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mohamedzeina/node-social/models"
	"github.com/mohamedzeina/node-social/utils"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLen = 6

// SignupInput carries the fields of a signup request.
type SignupInput struct {
	Email    string
	Name     string
	Password string
}

// AuthService implements signup, login and status operations.
type AuthService struct {
	db       *gorm.DB
	tokenTTL time.Duration
}

// NewAuthService creates an AuthService issuing tokens valid for tokenTTL.
func NewAuthService(db *gorm.DB, tokenTTL time.Duration) *AuthService {
	return &AuthService{db: db, tokenTTL: tokenTTL}
}

// Signup validates the input, hashes the password and creates the user.
// All field violations are collected before failing.
func (s *AuthService) Signup(in SignupInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := utils.Sanitize(strings.TrimSpace(in.Name))

	var violations []FieldError
	if !emailPattern.MatchString(email) {
		violations = append(violations, FieldError{Field: "email", Message: "please enter a valid email"})
	}
	if name == "" {
		violations = append(violations, FieldError{Field: "name", Message: "name is required"})
	}
	if len(in.Password) < minPasswordLen {
		violations = append(violations, FieldError{Field: "password", Message: "password too short"})
	}
	if len(violations) > 0 {
		return nil, ErrValidation(violations)
	}

	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrValidation([]FieldError{{Field: "email", Message: "email address already exists"}})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInternal("failed to check email")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, ErrInternal("failed to hash password")
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, ErrInternal("failed to create user")
	}
	return &user, nil
}

// Login verifies the credentials and issues a token. A wrong password and an
// unknown email both fail the same way.
func (s *AuthService) Login(email, password string) (string, uint, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", 0, &Error{Kind: KindUnauthenticated, Message: "invalid email or password"}
		}
		return "", 0, ErrInternal("failed to load user")
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return "", 0, &Error{Kind: KindUnauthenticated, Message: "invalid email or password"}
	}

	token, err := utils.GenerateToken(user.ID, user.Email, s.tokenTTL)
	if err != nil {
		return "", 0, ErrInternal("failed to generate token")
	}
	return token, user.ID, nil
}

// CurrentUser loads the acting user.
func (s *AuthService) CurrentUser(id Identity) (*models.User, error) {
	if !id.Authenticated {
		return nil, ErrUnauthenticated()
	}
	var user models.User
	if err := s.db.First(&user, id.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("user not found")
		}
		return nil, ErrInternal("failed to load user")
	}
	return &user, nil
}

// Status returns the acting user's status text.
func (s *AuthService) Status(id Identity) (string, error) {
	user, err := s.CurrentUser(id)
	if err != nil {
		return "", err
	}
	return user.Status, nil
}

// UpdateStatus replaces the acting user's status text.
func (s *AuthService) UpdateStatus(id Identity, status string) (*models.User, error) {
	user, err := s.CurrentUser(id)
	if err != nil {
		return nil, err
	}

	status = utils.Sanitize(strings.TrimSpace(status))
	if status == "" {
		return nil, ErrValidation([]FieldError{{Field: "status", Message: "status must not be empty"}})
	}

	user.Status = status
	if err := s.db.Save(user).Error; err != nil {
		return nil, ErrInternal("failed to update status")
	}
	return user, nil
}
