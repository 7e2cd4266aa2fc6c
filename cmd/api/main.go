package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "taskpilot/internal/common/api"
	"taskpilot/internal/config"
	"taskpilot/internal/database"
	"taskpilot/internal/email"
	"taskpilot/internal/features/auth"
	"taskpilot/internal/features/chat"
	"taskpilot/internal/features/contact"
	"taskpilot/internal/features/notification"
	"taskpilot/internal/features/project"
	"taskpilot/internal/features/reminder"
	"taskpilot/internal/features/report"
	"taskpilot/internal/features/system"
	"taskpilot/internal/features/task"
	"taskpilot/internal/features/team"
	"taskpilot/internal/features/upload"
	"taskpilot/internal/features/user"
	"taskpilot/internal/logger"
	"taskpilot/internal/middleware"
	"taskpilot/pkg/utils"

	_ "taskpilot/docs" // Import swagger docs

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	return app
}

// NewPresence selects the presence backend: Redis when configured,
// otherwise the in-process map.
func NewPresence(cfg *config.Config, zlog *zap.Logger) chat.PresenceDirectory {
	if cfg.RedisAddr == "" {
		return chat.NewMemoryPresence()
	}
	zlog.Info("using redis presence directory", zap.String("addr", cfg.RedisAddr))
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return chat.NewRedisPresence(client)
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d routes\n", len(routes))
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, userRepo user.UserRepository, teamRepo team.TeamRepository, chatRepo chat.ChatRepository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := userRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure user indexes: %v", err)
				}
				if err := teamRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure team indexes: %v", err)
				}
				if err := chatRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure chat indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

// @title           TaskPilot API
// @version         1.0
// @description     Role-based project and task management backend.

// @host            localhost:8000
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Outbound mail
			email.NewMailer,

			// Initialize Repository
			user.NewUserRepository,
			team.NewTeamRepository,
			project.NewProjectRepository,
			task.NewTaskRepository,
			chat.NewChatRepository,
			chat.NewMessageRepository,
			notification.NewNotificationRepository,
			contact.NewContactRepository,

			// Realtime plumbing
			NewPresence,
			chat.NewHub,
			chat.NewSocketHandler,

			// Initialize Service
			notification.NewDispatcher,
			notification.NewNotificationService,
			user.NewUserService,
			team.NewTeamService,
			project.NewProjectService,
			task.NewTaskService,
			auth.NewAuthService,
			chat.NewChatService,
			contact.NewContactService,
			report.NewReportService,
			upload.NewStorage,
			reminder.NewScheduler,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(r user.UserRepository) notification.AdminFinder { return r },
			func(r team.TeamRepository) user.ManagedTeamChecker { return r },
			func(r task.TaskRepository) project.TaskCascade { return r },
			func(p project.ProjectRepository, t task.TaskRepository) team.CleanerParams {
				return team.CleanerParams{Projects: p, Tasks: t}
			},

			// Initialize Controller
			auth.NewAuthController,
			user.NewUserController,
			team.NewTeamController,
			project.NewProjectController,
			task.NewTaskController,
			chat.NewChatController,
			chat.NewPresenceController,
			notification.NewNotificationController,
			contact.NewContactController,
			report.NewReportController,

			// Initialize API Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(user.NewUserApi),
			AsRoute(team.NewTeamApi),
			AsRoute(project.NewProjectApi),
			AsRoute(task.NewTaskApi),
			AsRoute(chat.NewChatApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(contact.NewContactApi),
			AsRoute(report.NewReportApi),
			AsRoute(upload.NewUploadApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },
			RegisterAllRoutesWithAnnotation,
			StartServer,
			InitializeIndexes,
			reminder.RegisterLifecycle,
		),
	)

	app.Run()
}
