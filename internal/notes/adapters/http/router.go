// Package http содержит компоненты для HTTP сервера.
package http

import (
	"github.com/gofiber/fiber/v3"

	"notekeeper/internal/notes/adapters/http/middleware"
	"notekeeper/internal/notes/adapters/http/notes"
	"notekeeper/internal/notes/ports/services"
)

// SetupRouter настраивает маршрутизацию для HTTP сервера.
func SetupRouter(app *fiber.App, noteService services.NoteService, verifier services.TokenVerifier) {
	handler := notes.NewHandler(noteService)

	// Middleware для всех запросов.
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewRecoveryMiddleware())

	app.Get("/health", handler.Health)

	// Маршруты заметок (требуют авторизации).
	notesRoutes := app.Group("/api/v1/notes")
	notesRoutes.Use(middleware.NewAuthMiddleware(verifier))
	notesRoutes.Post("/", handler.CreateNote)
	notesRoutes.Get("/", handler.FindNotes)
	notesRoutes.Get("/title/:title", handler.GetNoteByTitle)
	notesRoutes.Get("/page/:page", handler.ListPage)
	notesRoutes.Get("/:id", handler.GetNote)
	notesRoutes.Patch("/:id", handler.UpdateNote)
	notesRoutes.Delete("/:id", handler.DeleteNote)

	// Обработчик для несуществующих маршрутов.
	app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Route not found",
		})
	})
}
