// Package notes содержит HTTP-обработчики для управления заметками.
package notes

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"notekeeper/internal/notes/adapters/http/middleware"
	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/domain/errs"
	"notekeeper/internal/notes/ports/services"
	"notekeeper/pkg/logger"
)

// Константы ошибок и сообщений для логирования.
const (
	LogHandlerCreateNote   = "handling create note request"
	LogHandlerGetNote      = "handling get note request"
	LogHandlerGetByTitle   = "handling get note by title request"
	LogHandlerFindByTags   = "handling find notes by tags request"
	LogHandlerListPage     = "handling list page request"
	LogHandlerUpdateNote   = "handling update note request"
	LogHandlerDeleteNote   = "handling delete note request"
	LogHandlerHealth       = "handling health request"
	LogHandlerStoreFailure = "note store failure"
	LogEmptyUpdate         = "update carries no fields, only updated_at changes"

	ErrMsgInvalidNoteID      = "invalid note id"
	ErrMsgInvalidPage        = "invalid page number"
	ErrMsgInvalidTitle       = "invalid title"
	ErrMsgInvalidTags        = "invalid tags"
	ErrMsgInvalidRequestBody = "invalid request body"
	ErrMsgNoteNotFound       = "note not found"
	ErrMsgInternal           = "internal server error"
	ErrMsgUnavailable        = "storage unavailable"

	paramID    = "id"
	paramTitle = "title"
	paramPage  = "page"
	queryTags  = "tags"
)

// Handler обработчик HTTP-запросов для работы с заметками.
type Handler struct {
	notes services.NoteService
}

// NewHandler создает новый экземпляр обработчика заметок.
func NewHandler(notes services.NoteService) *Handler {
	return &Handler{
		notes: notes,
	}
}

// requestLog возвращает логгер обработчика, дополненный владельцем токена.
func requestLog(ctx context.Context, handler string) *logger.Logger {
	log := logger.Log(ctx).With(zap.String("handler", handler))
	if p, ok := middleware.PrincipalFromContext(ctx); ok {
		log = log.With(zap.String("subject", p.Subject))
	}
	return log
}

// CreateNote обрабатывает запрос на создание новой заметки.
func (h *Handler) CreateNote(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := requestLog(ctx, "Handler.CreateNote")
	log.Debug(ctx, LogHandlerCreateNote)

	var req CreateNoteRequest
	if err := c.Bind().Body(&req); err != nil {
		log.Debug(ctx, ErrMsgInvalidRequestBody, zap.Error(err))
		return badRequest(c, ErrMsgInvalidRequestBody)
	}

	id, err := h.notes.Create(ctx, req.Title, req.Content, req.Tags)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CreateNoteResponse{ID: id.String()})
}

// GetNote обрабатывает запрос на получение заметки по ID.
func (h *Handler) GetNote(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := requestLog(ctx, "Handler.GetNote")
	log.Debug(ctx, LogHandlerGetNote)

	id, err := uuid.Parse(c.Params(paramID))
	if err != nil {
		return badRequest(c, ErrMsgInvalidNoteID)
	}

	note, err := h.notes.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	if note == nil {
		return notFound(c)
	}

	return c.JSON(note)
}

// GetNoteByTitle обрабатывает запрос на получение заметки по заголовку.
func (h *Handler) GetNoteByTitle(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := requestLog(ctx, "Handler.GetNoteByTitle")
	log.Debug(ctx, LogHandlerGetByTitle)

	title, err := url.PathUnescape(c.Params(paramTitle))
	if err != nil || title == "" {
		return badRequest(c, ErrMsgInvalidTitle)
	}

	note, err := h.notes.GetByTitle(ctx, title)
	if err != nil {
		return writeError(c, err)
	}
	if note == nil {
		return notFound(c)
	}

	return c.JSON(note)
}

// FindNotes обрабатывает запрос на поиск заметок по тегам.
// Без параметра tags возвращаются все заметки.
func (h *Handler) FindNotes(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := requestLog(ctx, "Handler.FindNotes")
	log.Debug(ctx, LogHandlerFindByTags)

	var tags []entities.Tag
	if c.Request().URI().QueryArgs().Has(queryTags) {
		parsed, err := parseTags(c.Query(queryTags))
		if err != nil {
			log.Debug(ctx, ErrMsgInvalidTags, zap.Error(err))
			return badRequest(c, ErrMsgInvalidTags)
		}
		tags = parsed
	}

	notes, err := h.notes.FindByTags(ctx, tags)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(notes)
}

// ListPage обрабатывает запрос на получение страницы превью.
func (h *Handler) ListPage(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := requestLog(ctx, "Handler.ListPage")
	log.Debug(ctx, LogHandlerListPage)

	page, err := strconv.ParseUint(c.Params(paramPage), 10, 32)
	if err != nil {
		return badRequest(c, ErrMsgInvalidPage)
	}

	previews, err := h.notes.ListPage(ctx, uint(page))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(previews)
}

// UpdateNote обрабатывает запрос на частичное обновление заметки.
func (h *Handler) UpdateNote(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := requestLog(ctx, "Handler.UpdateNote")
	log.Debug(ctx, LogHandlerUpdateNote)

	id, err := uuid.Parse(c.Params(paramID))
	if err != nil {
		return badRequest(c, ErrMsgInvalidNoteID)
	}

	var req UpdateNoteRequest
	if err := c.Bind().Body(&req); err != nil {
		log.Debug(ctx, ErrMsgInvalidRequestBody, zap.Error(err))
		return badRequest(c, ErrMsgInvalidRequestBody)
	}

	upd := entities.NoteUpdate{Title: req.Title, Content: req.Content, Tags: req.Tags}
	if upd.Empty() {
		log.Debug(ctx, LogEmptyUpdate, zap.String("note_id", id.String()))
	}
	if err := h.notes.Update(ctx, id, upd); err != nil {
		return writeError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteNote обрабатывает запрос на удаление заметки.
func (h *Handler) DeleteNote(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := requestLog(ctx, "Handler.DeleteNote")
	log.Debug(ctx, LogHandlerDeleteNote)

	id, err := uuid.Parse(c.Params(paramID))
	if err != nil {
		return badRequest(c, ErrMsgInvalidNoteID)
	}

	if err := h.notes.Delete(ctx, id); err != nil {
		return writeError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Health сообщает о доступности хранилища.
func (h *Handler) Health(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	logger.Log(ctx).Debug(ctx, LogHandlerHealth)

	if err := h.notes.Ping(ctx); err != nil {
		logger.Log(ctx).Warn(ctx, ErrMsgUnavailable, zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": ErrMsgUnavailable})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func parseTags(raw string) ([]entities.Tag, error) {
	tags := make([]entities.Tag, 0)
	if raw == "" {
		return tags, nil
	}
	for _, name := range strings.Split(raw, ",") {
		tag, err := entities.ParseTag(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// writeError переводит вид ошибки в HTTP-статус.
func writeError(c fiber.Ctx, err error) error {
	ctx := middleware.RequestContext(c)

	switch {
	case errors.Is(err, errs.NotFound):
		return notFound(c)
	case errors.Is(err, errs.InvalidArgument):
		msg := ErrMsgInvalidRequestBody
		var typed *errs.Error
		if errors.As(err, &typed) && typed.Field != "" {
			msg = "invalid " + typed.Field
		}
		return badRequest(c, msg)
	default:
		logger.Log(ctx).Error(ctx, LogHandlerStoreFailure, zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: ErrMsgInternal})
	}
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
}

func notFound(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: ErrMsgNoteNotFound})
}
