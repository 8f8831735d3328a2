package notes

import "notekeeper/internal/notes/domain/entities"

// CreateNoteRequest - тело запроса на создание заметки.
type CreateNoteRequest struct {
	Title   string         `json:"title"`
	Content string         `json:"content"`
	Tags    []entities.Tag `json:"tags"`
}

// CreateNoteResponse - ответ на создание заметки.
type CreateNoteResponse struct {
	ID string `json:"id"`
}

// UpdateNoteRequest - тело запроса на частичное обновление.
type UpdateNoteRequest struct {
	Title   *string         `json:"title,omitempty"`
	Content *string         `json:"content,omitempty"`
	Tags    *[]entities.Tag `json:"tags,omitempty"`
}

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}
