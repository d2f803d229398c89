package routes

import (
	"award-portal/internal/adapters/http/handlers"
	"award-portal/internal/adapters/http/middleware"
	"award-portal/internal/adapters/persistence/repositories"
	"award-portal/internal/config"
	"award-portal/internal/core/services"
	"award-portal/internal/pkg/paystack"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application. It returns the
// reconciliation service so main can start and stop its scheduled sweeps.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.ReconciliationService {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	nomineeRepo := repositories.NewNomineeRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	voteRepo := repositories.NewVoteRepository(db)
	reconRepo := repositories.NewReconciliationRepository(db)

	// Payment gateway client
	gateway := paystack.NewClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, cfg.Paystack.Mock)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo, voteRepo, paymentRepo)
	tallyService := services.NewTallyService(voteRepo, nomineeRepo)
	categoryService := services.NewCategoryService(categoryRepo, nomineeRepo, voteRepo)
	nomineeService := services.NewNomineeService(nomineeRepo, categoryRepo, userRepo, voteRepo, tallyService)
	eligibilityService := services.NewEligibilityService(categoryRepo, voteRepo, userRepo)
	voteService := services.NewVoteService(
		eligibilityService,
		gateway,
		userRepo,
		categoryRepo,
		nomineeRepo,
		paymentRepo,
		voteRepo,
		reconRepo,
		tallyService,
		cfg,
	)
	reconService := services.NewReconciliationService(paymentRepo, reconRepo, voteService, cfg)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, tallyService)
	nomineeHandler := handlers.NewNomineeHandler(nomineeService)
	voteHandler := handlers.NewVoteHandler(voteService, gateway)
	reconHandler := handlers.NewReconciliationHandler(reconService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Profile routes (authenticated users)
	profileRoutes := apiV1.Group("/users/me")
	profileRoutes.Use(middleware.AuthMiddleware(cfg))
	setupProfileRoutes(profileRoutes, userHandler)

	// Category routes (public reads; OptionalAuth lets admins see archived)
	categoryRoutes := apiV1.Group("/categories")
	categoryRoutes.Use(middleware.OptionalAuth(cfg))
	setupCategoryRoutes(categoryRoutes, categoryHandler)

	// Nominee routes
	nomineeRoutes := apiV1.Group("/nominees")
	setupNomineeRoutes(nomineeRoutes, nomineeHandler, cfg)

	// Gateway webhook (public, signature-validated in the handler)
	apiV1.Post("/votes/webhook", voteHandler.Webhook)

	// Vote routes (authenticated users)
	voteRoutes := apiV1.Group("/votes")
	voteRoutes.Use(middleware.AuthMiddleware(cfg))
	setupVoteRoutes(voteRoutes, voteHandler)

	// Admin routes (Admin only)
	adminRoutes := apiV1.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.AdminOnly())
	setupAdminRoutes(adminRoutes, userHandler, categoryHandler, nomineeHandler, reconHandler)

	return reconService
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (rate limited against brute force)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupProfileRoutes configures profile routes (authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Put("/password", handler.ChangePassword)
}

// setupCategoryRoutes configures public category routes
func setupCategoryRoutes(router fiber.Router, handler *handlers.CategoryHandler) {
	router.Get("/", handler.ListCategories)
	router.Get("/:id", handler.GetCategory)
	router.Get("/:id/counts", handler.GetCounts)
}

// setupNomineeRoutes configures nominee routes
func setupNomineeRoutes(router fiber.Router, handler *handlers.NomineeHandler, cfg *config.Config) {
	// Public reads
	router.Get("/category/:categoryId", handler.ListByCategory)
	router.Get("/:id", handler.GetNominee)

	// Submitting a nomination requires login
	router.Post("/", middleware.AuthMiddleware(cfg), handler.Nominate)
}

// setupVoteRoutes configures vote routes (authenticated)
func setupVoteRoutes(router fiber.Router, handler *handlers.VoteHandler) {
	router.Post("/", middleware.VoteRateLimiter(), handler.CastVote)
	router.Get("/verify/:reference", handler.VerifyVote)
	router.Get("/my-votes", handler.GetMyVotes)
	router.Get("/category/:categoryId/mine", handler.GetMyVote)
}

// setupAdminRoutes configures admin routes (Admin only)
func setupAdminRoutes(
	router fiber.Router,
	userHandler *handlers.UserHandler,
	categoryHandler *handlers.CategoryHandler,
	nomineeHandler *handlers.NomineeHandler,
	reconHandler *handlers.ReconciliationHandler,
) {
	// User management
	router.Get("/users", userHandler.ListUsers)
	router.Get("/users/:id", userHandler.GetUser)
	router.Put("/users/:id/role", userHandler.SetRole)
	router.Put("/users/:id/active", userHandler.SetActive)
	router.Delete("/users/:id", userHandler.DeleteUser)

	// Category management
	router.Post("/categories", categoryHandler.CreateCategory)
	router.Put("/categories/:id", categoryHandler.UpdateCategory)
	router.Post("/categories/:id/open", categoryHandler.OpenVoting)
	router.Post("/categories/:id/close", categoryHandler.CloseVoting)
	router.Delete("/categories/:id", categoryHandler.DeleteCategory)

	// Nomination review queue
	router.Get("/nominees", nomineeHandler.ListByStatus)
	router.Post("/nominees/:id/review", nomineeHandler.Review)
	router.Delete("/nominees/:id", nomineeHandler.DeleteNominee)

	// Reconciliation queue
	router.Get("/reconciliation", reconHandler.ListEntries)
	router.Post("/reconciliation/:id/resolve", reconHandler.ResolveEntry)
}
