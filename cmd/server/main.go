package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/abudi-09/CMS-sub000/internal/config"
	"github.com/abudi-09/CMS-sub000/internal/database"
	"github.com/abudi-09/CMS-sub000/internal/handlers"
	"github.com/abudi-09/CMS-sub000/internal/logger"
	"github.com/abudi-09/CMS-sub000/internal/middleware"
	"github.com/abudi-09/CMS-sub000/internal/models"
	"github.com/abudi-09/CMS-sub000/internal/repository"
	"github.com/abudi-09/CMS-sub000/internal/services"
	"github.com/abudi-09/CMS-sub000/internal/storage"
	"github.com/abudi-09/CMS-sub000/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	if err := database.Seed(db); err != nil {
		log.Warn().Err(err).Msg("failed to seed database")
	}

	redisClient, err := database.ConnectRedis(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer database.CloseRedis(redisClient)

	minioStorage, err := storage.NewMinIOStorage(&cfg.MinIO)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to minio")
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	sessionStore := database.NewSessionStore(redisClient)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	// Side-effect plumbing starts before the services that feed it.
	dispatcher := services.NewDispatcher(log, 256)
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	mailer := services.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From, log)

	// Services
	notificationService := services.NewNotificationService(notificationRepo, log)
	activityService := services.NewActivityService(activityRepo)
	userService := services.NewUserService(userRepo, notificationService, dispatcher, jwtManager, sessionStore, log)
	complaintService := services.NewComplaintService(complaintRepo, userRepo, activityService, notificationService, dispatcher, mailer, log)
	attachmentService := services.NewAttachmentService(attachmentRepo, complaintRepo, minioStorage, log)

	escalationMonitor := services.NewEscalationMonitor(
		complaintRepo, userRepo, notificationService,
		cfg.Escalation.Interval, cfg.Escalation.Threshold, log,
	)
	escalationMonitor.Start(context.Background())
	defer escalationMonitor.Stop()

	// Handlers
	userHandler := handlers.NewUserHandler(userService)
	complaintHandler := handlers.NewComplaintHandler(complaintService, attachmentService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	activityHandler := handlers.NewActivityHandler(activityService)
	healthHandler := handlers.NewHealthHandler(db, redisClient)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, sessionStore, userRepo)

	app := fiber.New(fiber.Config{
		AppName:      "Complaint Management System",
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000,http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: true,
	}))

	api := app.Group("/api")
	v1 := api.Group("/v1")

	v1.Get("/health", healthHandler.Health)
	v1.Get("/ready", healthHandler.Ready)

	auth := v1.Group("/auth")
	auth.Post("/register", userHandler.Register)
	auth.Post("/login", userHandler.Login)
	auth.Post("/logout", authMiddleware.Authenticate(), userHandler.Logout)

	users := v1.Group("/users", authMiddleware.Authenticate())
	users.Get("/me", userHandler.Me)

	admin := v1.Group("/admin", authMiddleware.Authenticate(), authMiddleware.RequireRole(models.RoleAdmin))
	admin.Get("/users", userHandler.List)
	admin.Put("/users/:id/approve", userHandler.Approve)
	admin.Put("/users/:id/deactivate", userHandler.Deactivate)
	admin.Get("/activity", activityHandler.List)
	admin.Get("/activity/actions", activityHandler.Actions)

	leadership := authMiddleware.RequireRole(models.RoleAdmin, models.RoleHod, models.RoleDean)

	complaints := v1.Group("/complaints", authMiddleware.Authenticate())
	complaints.Post("/", complaintHandler.Create)
	complaints.Get("/mine", complaintHandler.ListMine)
	complaints.Get("/inbox", complaintHandler.ListInbox)
	complaints.Get("/managed", authMiddleware.RequireRole(models.RoleHod), complaintHandler.ListManaged)
	complaints.Get("/all", complaintHandler.ListAll)
	complaints.Get("/escalated", authMiddleware.RequireRole(models.RoleAdmin, models.RoleDean), complaintHandler.ListEscalated)
	complaints.Get("/stats", complaintHandler.Stats)
	complaints.Get("/code/:code", complaintHandler.GetByCode)
	complaints.Get("/:id", complaintHandler.GetByID)
	complaints.Get("/:id/activity", complaintHandler.Timeline)
	complaints.Put("/:id/recipient", complaintHandler.UpdateRecipient)
	complaints.Put("/:id/reassign", leadership, complaintHandler.ReassignRecipient)
	complaints.Put("/:id/assign", authMiddleware.RequireRole(models.RoleAdmin, models.RoleDean), complaintHandler.Assign)
	complaints.Put("/:id/assign-hod", authMiddleware.RequireRole(models.RoleDean), complaintHandler.AssignToHod)
	complaints.Put("/:id/assign-staff", authMiddleware.RequireRole(models.RoleHod), complaintHandler.AssignToStaff)
	complaints.Put("/:id/accept", authMiddleware.RequireRole(models.RoleHod), complaintHandler.AcceptAssignment)
	complaints.Put("/:id/reject", authMiddleware.RequireRole(models.RoleHod), complaintHandler.RejectAssignment)
	complaints.Put("/:id/approve", leadership, complaintHandler.Approve)
	complaints.Put("/:id/status", complaintHandler.UpdateStatus)
	complaints.Delete("/:id", complaintHandler.Delete)
	complaints.Post("/:id/feedback", complaintHandler.SubmitFeedback)
	complaints.Put("/:id/feedback/review", authMiddleware.RequireRole(models.RoleAdmin, models.RoleDean), complaintHandler.ReviewFeedback)
	complaints.Post("/:id/attachments", complaintHandler.UploadAttachment)
	complaints.Get("/:id/attachments", complaintHandler.ListAttachments)

	v1.Get("/attachments/:id", authMiddleware.Authenticate(), complaintHandler.DownloadAttachment)

	notifications := v1.Group("/notifications", authMiddleware.Authenticate())
	notifications.Get("/", notificationHandler.List)
	notifications.Get("/unread-count", notificationHandler.UnreadCount)
	notifications.Put("/read-all", notificationHandler.MarkAllRead)
	notifications.Put("/:id/read", notificationHandler.MarkRead)
	notifications.Delete("/:id", notificationHandler.Delete)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Info().Str("addr", addr).Msg("server starting")
		if err := app.Listen(addr); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
