package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/taskhub/internal/constants"
	"github.com/yukikurage/taskhub/internal/logger"
	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/policy"
	"github.com/yukikurage/taskhub/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
)

// AuthService handles registration, login and account removal.
type AuthService struct {
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	invites     *InviteTokens
}

// NewAuthService creates a new AuthService. invites may be nil, in which case invite
// tokens on registration are ignored.
func NewAuthService(userRepo repository.UserRepository, projectRepo repository.ProjectRepository, invites *InviteTokens) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		projectRepo: projectRepo,
		invites:     invites,
	}
}

// RegisterInput represents the registration form.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	Role            models.UserRole
	InviteToken     string
}

// Register creates a user. A valid invite token issued for the same email adds the new
// user to the inviting project as a plain member.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	verr := NewValidationError()

	username := strings.TrimSpace(input.Username)
	switch {
	case username == "":
		verr.Add("username", "This field is required.")
	case len(username) > constants.MaxUsernameLen:
		verr.Add("username", fmt.Sprintf("Ensure this value has at most %d characters.", constants.MaxUsernameLen))
	case strings.ContainsAny(username, " \t\r\n"):
		verr.Add("username", "Enter a valid username without spaces.")
	}

	if email := strings.TrimSpace(input.Email); email != "" {
		if err := validate.Var(email, "email"); err != nil {
			verr.Add("email", "Enter a valid email address.")
		}
	}

	if len(input.Password) < constants.MinPasswordLength {
		verr.Add("password", fmt.Sprintf("This password is too short. It must contain at least %d characters.", constants.MinPasswordLength))
	}
	if input.Password != input.PasswordConfirm {
		verr.Add("password_confirm", "The two password fields didn't match.")
	}

	role := input.Role
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		verr.Add("role", "Select a valid choice.")
	}

	if _, exists := verr.Fields["username"]; !exists {
		if _, err := s.userRepo.FindByUsername(username); err == nil {
			verr.Add("username", "A user with that username already exists.")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateUser, err)
	}

	if input.InviteToken != "" {
		s.acceptInvite(user, input.InviteToken)
	}

	return user, nil
}

// acceptInvite never fails registration; a bad or stale token is logged and dropped.
func (s *AuthService) acceptInvite(user *models.User, token string) {
	if s.invites == nil {
		return
	}

	claims, err := s.invites.Parse(token)
	if err != nil {
		logger.Warn("ignoring invite token", "user_id", user.ID, "error", err)
		return
	}
	if claims.Email != normalizeEmail(user.Email) {
		logger.Warn("invite token email mismatch", "user_id", user.ID, "jti", claims.ID)
		return
	}

	if _, err := s.projectRepo.FindByID(claims.ProjectID); err != nil {
		logger.Warn("invited project no longer available", "project_id", claims.ProjectID, "error", err)
		return
	}
	if _, _, err := s.projectRepo.EnsureMember(claims.ProjectID, user.ID); err != nil {
		logger.Error("failed to accept invite", "project_id", claims.ProjectID, "user_id", user.ID, "error", err)
		return
	}
	logger.Info("invite accepted", "project_id", claims.ProjectID, "user_id", user.ID, "jti", claims.ID)
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// LandingPath returns where the user should be sent after logging in.
func (s *AuthService) LandingPath(userID uint64) (string, error) {
	first, err := s.projectRepo.FirstMembership(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.LandingPath(nil), nil
		}
		return "", fmt.Errorf("failed to find membership: %w", err)
	}
	return policy.LandingPath(first), nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// DeleteAccount removes the user together with the projects they own.
func (s *AuthService) DeleteAccount(userID uint64) error {
	if err := s.userRepo.Delete(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}
	logger.Info("account deleted", "user_id", userID)
	return nil
}
