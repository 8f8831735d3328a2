// Package entities defines the domain entities for the notes service.
package entities

import (
	"time"

	"github.com/google/uuid"
)

// Note представляет собой заметку.
// Content == nil означает отсутствие текста, что отличается от пустой строки.
type Note struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   *string   `json:"content,omitempty"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
	Tags      []Tag     `json:"tags"`
}

// NotePreview - заметка без содержимого, элемент страницы.
type NotePreview struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
	Tags      []Tag     `json:"tags"`
}

// NoteUpdate - частичное обновление: nil-поля не меняются.
type NoteUpdate struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Tags    *[]Tag  `json:"tags,omitempty"`
}

// NewNote creates a note stamped with the given time; both timestamps are equal.
func NewNote(id uuid.UUID, title, content string, tags []Tag, now time.Time) *Note {
	ts := now.Unix()
	if tags == nil {
		tags = []Tag{}
	}
	return &Note{
		ID:        id,
		Title:     title,
		Content:   &content,
		CreatedAt: ts,
		UpdatedAt: ts,
		Tags:      tags,
	}
}

// Preview отбрасывает содержимое.
func (n *Note) Preview() *NotePreview {
	return &NotePreview{
		ID:        n.ID,
		Title:     n.Title,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		Tags:      n.Tags,
	}
}

// HasAnyTag сообщает, пересекается ли список тегов заметки с набором.
func (n *Note) HasAnyTag(set []Tag) bool {
	for _, have := range n.Tags {
		for _, want := range set {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Empty сообщает, что обновление не задает ни одного поля.
func (u NoteUpdate) Empty() bool {
	return u.Title == nil && u.Content == nil && u.Tags == nil
}
