package main

import (
	"context"
	"errors"
	"os"
	"time"

	"taskpilot/internal/common/models"
	"taskpilot/internal/config"
	"taskpilot/internal/database"
	"taskpilot/internal/features/chat"
	"taskpilot/internal/features/team"
	"taskpilot/internal/features/user"
	"taskpilot/internal/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Seed creates the unique indexes and the initial protected admin
// account. The protected flag keeps later admins from demoting or
// deleting it.
func Seed(
	lc fx.Lifecycle,
	userRepo user.UserRepository,
	teamRepo team.TeamRepository,
	chatRepo chat.ChatRepository,
	zlog *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						zlog.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				zlog.Info("Seeding database")

				if err := userRepo.EnsureIndexes(ctx); err != nil {
					zlog.Error("user index creation failed", zap.Error(err))
				}
				if err := teamRepo.EnsureIndexes(ctx); err != nil {
					zlog.Error("team index creation failed", zap.Error(err))
				}
				if err := chatRepo.EnsureIndexes(ctx); err != nil {
					zlog.Error("chat index creation failed", zap.Error(err))
				}

				adminEmail := os.Getenv("ADMIN_EMAIL")
				adminPassword := os.Getenv("ADMIN_PASSWORD")
				if adminEmail == "" || adminPassword == "" {
					zlog.Warn("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin bootstrap")
					return
				}

				if _, err := userRepo.FindByEmail(ctx, adminEmail); err == nil {
					zlog.Info("admin account already present", zap.String("email", adminEmail))
					return
				} else if !errors.Is(err, mongo.ErrNoDocuments) {
					zlog.Error("admin lookup failed", zap.Error(err))
					return
				}

				hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
				if err != nil {
					zlog.Error("password hashing failed", zap.Error(err))
					return
				}

				now := time.Now()
				admin := &models.User{
					Name:        "Administrator",
					Email:       adminEmail,
					Password:    string(hashed),
					Role:        models.RoleAdmin,
					IsProtected: true,
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if err := userRepo.Create(ctx, admin); err != nil {
					zlog.Error("admin creation failed", zap.Error(err))
					return
				}
				zlog.Info("protected admin created", zap.String("email", adminEmail))
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			user.NewUserRepository,
			team.NewTeamRepository,
			chat.NewChatRepository,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
