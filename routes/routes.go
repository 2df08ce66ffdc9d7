package routes

import (
	"sams_go/controllers"
	"sams_go/database"
	"sams_go/middleware"
	"sams_go/services"
	"sams_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, wsHub *websocket.Hub) {
	db := database.GetDB()

	// Initialize services
	batchService := services.NewBatchService(db)
	studentService := services.NewStudentService(db, batchService)
	studentService.SetFeed(wsHub)
	authService := services.NewAuthService(db)
	reportService := services.NewReportService(db, batchService)

	// Initialize controllers
	batchController := controllers.NewBatchController(batchService, reportService)
	studentController := controllers.NewStudentController(studentService)
	authController := controllers.NewAuthController(authService)
	wsController := controllers.NewWebSocketController(wsHub)

	api := app.Group("/api/v1")

	// Authentication routes (no middleware)
	auth := api.Group("/auth")
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)
	auth.Get("/profile", middleware.JWTMiddleware(), authController.GetProfile)
	auth.Post("/logout", middleware.JWTMiddleware(), authController.Logout)

	// Protected routes (require authentication)
	protected := api.Group("/", middleware.JWTMiddleware())

	// Batch management routes
	batches := protected.Group("/batches")
	batches.Get("/", batchController.GetBatches)
	batches.Get("/active", batchController.GetActiveBatches)
	batches.Get("/available", batchController.GetAvailableBatches)
	batches.Get("/search", batchController.SearchBatches)
	batches.Get("/:id", batchController.GetBatch)
	batches.Get("/:id/summary", batchController.GetBatchSummary)
	batches.Get("/:id/report", middleware.RequireTeacherOrAdmin(), batchController.ExportBatchReport)
	batches.Post("/", middleware.RequireTeacherOrAdmin(), batchController.CreateBatch)
	batches.Put("/:id", middleware.RequireTeacherOrAdmin(), batchController.UpdateBatch)
	batches.Patch("/:id/status", middleware.RequireTeacherOrAdmin(), batchController.UpdateBatchStatus)
	batches.Delete("/:id", middleware.RequireAdmin(), batchController.DeleteBatch)

	// Student management routes
	students := protected.Group("/students")
	students.Get("/", studentController.GetStudents)
	students.Get("/search", studentController.SearchStudents)
	students.Get("/checked-in", studentController.GetCheckedIn)
	students.Get("/present-today", studentController.GetPresentToday)
	students.Get("/batch/:batchId", studentController.GetStudentsByBatch)
	students.Get("/:id", studentController.GetStudent)
	students.Get("/:id/attendance-summary", studentController.GetAttendanceSummary)
	students.Post("/", middleware.RequireTeacherOrAdmin(), studentController.CreateStudent)
	students.Put("/:id", middleware.RequireTeacherOrAdmin(), studentController.UpdateStudent)
	students.Patch("/:id/checkin", middleware.RequireTeacherOrAdmin(), studentController.CheckIn)
	students.Patch("/:id/checkout", middleware.RequireTeacherOrAdmin(), studentController.CheckOut)
	students.Delete("/:id", middleware.RequireAdmin(), studentController.DeleteStudent)

	// WebSocket routes
	ws := protected.Group("/ws")
	ws.Get("/stats", middleware.RequireAdmin(), wsController.GetFeedStats)

	// WebSocket connection endpoint - use websocket upgrade middleware
	app.Use("/ws/attendance", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/attendance", wsController.WebSocketHandler())
}
