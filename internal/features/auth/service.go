package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/common/models"
	"taskpilot/internal/config"
	"taskpilot/internal/email"
	"taskpilot/internal/features/notification"
	"taskpilot/internal/features/team"
	"taskpilot/internal/features/user"
	"taskpilot/pkg/utils"

	"github.com/badoux/checkmail"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=manager team-member"`
	TeamID   string `json:"team_id" validate:"omitempty"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, emailAddr, password string) (*models.User, string, error)
	// ForgotPassword never discloses whether the address exists.
	ForgotPassword(ctx context.Context, emailAddr string) error
	VerifyResetToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type AuthServiceImpl struct {
	UserRepo   user.UserRepository
	TeamRepo   team.TeamRepository
	Mailer     email.Mailer
	Dispatcher notification.Dispatcher
	Logger     *zap.Logger
	AppURL     string

	validate *validator.Validate
}

func NewAuthService(userRepo user.UserRepository, teamRepo team.TeamRepository, mailer email.Mailer, dispatcher notification.Dispatcher, logger *zap.Logger, cfg *config.Config) AuthService {
	return &AuthServiceImpl{
		UserRepo:   userRepo,
		TeamRepo:   teamRepo,
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Logger:     logger,
		AppURL:     cfg.AppURL,
		validate:   validator.New(),
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, "", fmt.Errorf("%s: %w", err.Error(), apperr.ErrValidation)
	}
	if err := checkmail.ValidateFormat(input.Email); err != nil {
		return nil, "", fmt.Errorf("invalid email address: %w", apperr.ErrValidation)
	}

	if _, err := s.UserRepo.FindByEmail(ctx, input.Email); err == nil {
		return nil, "", fmt.Errorf("email already registered: %w", apperr.ErrConflict)
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, "", err
	}

	role := models.Role(input.Role)
	if role == "" {
		role = models.RoleTeamMember
	}
	// Admin accounts only come from the seeder.
	if !role.Valid() || role == models.RoleAdmin {
		return nil, "", fmt.Errorf("invalid role %q: %w", input.Role, apperr.ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	var joined *team.Team
	if input.TeamID != "" {
		joined, err = s.TeamRepo.FindByID(ctx, input.TeamID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", fmt.Errorf("team: %w", apperr.ErrNotFound)
		} else if err != nil {
			return nil, "", err
		}
	}

	now := time.Now()
	u := &models.User{
		Name:      input.Name,
		Email:     input.Email,
		Password:  string(hashed),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if joined != nil {
		u.TeamID = &joined.ID
	}
	if err := s.UserRepo.Create(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, "", fmt.Errorf("email already registered: %w", apperr.ErrConflict)
		}
		return nil, "", err
	}

	if joined != nil {
		if err := s.TeamRepo.AddMember(ctx, joined.ID, u.ID); err != nil {
			s.Logger.Warn("team membership write failed on signup", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		}
	}

	token, err := utils.GenerateToken(u.ID, u.Role)
	if err != nil {
		return nil, "", err
	}

	newUser := notification.Actor{ID: u.ID, Name: u.Name}
	if joined != nil {
		manager := joined.Manager
		go s.Dispatcher.UserRegistered(context.Background(), newUser, &manager)
	} else {
		go s.Dispatcher.UserRegistered(context.Background(), newUser, nil)
	}

	return u, token, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, emailAddr, password string) (*models.User, string, error) {
	u, err := s.UserRepo.FindByEmail(ctx, emailAddr)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, "", fmt.Errorf("invalid credentials: %w", apperr.ErrForbidden)
	} else if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials: %w", apperr.ErrForbidden)
	}

	token, err := utils.GenerateToken(u.ID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, emailAddr string) error {
	u, err := s.UserRepo.FindByEmail(ctx, emailAddr)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Same response as the happy path; do not leak account existence.
		return nil
	} else if err != nil {
		return err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	token := hex.EncodeToString(raw)

	if err := s.UserRepo.SetResetToken(ctx, u.ID, hashResetToken(token), time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.AppURL, token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>A password reset was requested for your account. The link below is valid for one hour.</p><p><a href=%q>Reset your password</a></p><p>If you didn't request this, you can ignore this email.</p>",
		u.Name, link,
	)
	if err := s.Mailer.Send(u.Email, "Reset your TaskPilot password", body); err != nil {
		s.Logger.Error("reset mail send failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}
	return nil
}

func (s *AuthServiceImpl) VerifyResetToken(ctx context.Context, token string) error {
	u, err := s.UserRepo.FindByResetTokenHash(ctx, hashResetToken(token))
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("invalid reset token: %w", apperr.ErrNotFound)
	} else if err != nil {
		return err
	}
	if u.ResetTokenExpiry == nil || time.Now().After(*u.ResetTokenExpiry) {
		return fmt.Errorf("reset token expired: %w", apperr.ErrValidation)
	}
	return nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters: %w", apperr.ErrValidation)
	}

	u, err := s.UserRepo.FindByResetTokenHash(ctx, hashResetToken(token))
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("invalid reset token: %w", apperr.ErrNotFound)
	} else if err != nil {
		return err
	}
	if u.ResetTokenExpiry == nil || time.Now().After(*u.ResetTokenExpiry) {
		return fmt.Errorf("reset token expired: %w", apperr.ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.UserRepo.UpdatePassword(ctx, u.ID, string(hashed)); err != nil {
		return err
	}

	go s.Dispatcher.PasswordChanged(context.Background(), u.ID)
	return nil
}
