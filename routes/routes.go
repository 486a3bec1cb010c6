package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	controller "worknest/controllers"
	"worknest/middleware"
	"worknest/utils"
)

// SetupRoutes wires every controller onto the app. All handles (db,
// cache, mailer) are constructed once here and passed down; nothing
// reaches for globals beyond config.
func SetupRoutes(app *fiber.App, db *gorm.DB, log *logrus.Logger, cache *utils.Cache, mailer *utils.Mailer) {
	authz := utils.NewAuthorizer(db)
	sync := utils.NewMembershipSync(db, log)
	emitter := utils.NewEmitter(db, log, mailer)

	authController := controller.NewAuthController(db, log, emitter)
	departmentController := controller.NewDepartmentController(db, log, authz, emitter)
	projectController := controller.NewProjectController(db, log, authz, sync, emitter, cache)
	taskController := controller.NewTaskController(db, log, authz, sync, emitter, cache)
	userController := controller.NewUserController(db, log, authz, sync, emitter)
	notificationController := controller.NewNotificationController(db, log)
	activityController := controller.NewActivityController(db, log)

	requestLogger := logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	})

	// Public endpoints
	app.Post("/organizations", requestLogger, authController.RegisterOrganization)

	auth := app.Group("/auth", requestLogger)
	auth.Post("/login", authController.Login)
	auth.Get("/me", middleware.Protected(), authController.Me)

	// Protected API surface
	api := app.Group("/api/v1", middleware.Protected(), requestLogger)

	departments := api.Group("/departments")
	departments.Post("/", departmentController.CreateDepartment)
	departments.Get("/", departmentController.ListDepartments)
	departments.Post("/:id/switch", departmentController.SwitchDepartment)

	projects := api.Group("/projects")
	projects.Post("/", projectController.CreateProject)
	projects.Get("/", projectController.ListProjects)
	projects.Get("/:id", projectController.GetProject)
	projects.Put("/:id", projectController.UpdateProject)
	projects.Get("/:id/members", projectController.ListMembers)
	projects.Post("/:id/members", projectController.AddMember)
	projects.Put("/:id/members", projectController.ReplaceMembers)
	projects.Delete("/:id/members/:userId", projectController.RemoveMember)
	projects.Post("/:id/tasks", taskController.CreateTask)
	projects.Get("/:id/tasks", taskController.ListTasks)

	tasks := api.Group("/tasks")
	tasks.Put("/:id", taskController.UpdateTask)
	tasks.Post("/:id/comments", taskController.CreateComment)
	tasks.Get("/:id/comments", taskController.ListComments)

	api.Get("/users", userController.ListUsers)

	notifications := api.Group("/notifications")
	notifications.Get("/", notificationController.ListNotifications)
	notifications.Put("/:id/read", notificationController.MarkRead)

	admin := api.Group("/admin", middleware.RequireSuperAdmin())
	admin.Put("/users/:id", userController.AdminUpdateUser)
	admin.Delete("/users/:id", userController.AdminDeleteUser)
	admin.Get("/activity", activityController.ListActivity)
}
