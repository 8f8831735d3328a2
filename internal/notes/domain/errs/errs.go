// Package errs определяет закрытый набор видов ошибок сервиса заметок.
package errs

import (
	"errors"
	"strings"
)

// Kind - вид ошибки. Сам Kind реализует error, поэтому
// errors.Is(err, errs.NotFound) проверяет вид любой обернутой ошибки.
type Kind uint8

// Виды ошибок.
const (
	Unknown Kind = iota
	NotFound
	InvalidArgument
	Storage
	Configuration
	Signing
)

var kindNames = map[Kind]string{
	Unknown:         "unknown",
	NotFound:        "not found",
	InvalidArgument: "invalid argument",
	Storage:         "storage error",
	Configuration:   "configuration error",
	Signing:         "signing error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[Unknown]
}

func (k Kind) Error() string {
	return k.String()
}

// ErrDeleteLostRace - заметка существовала при проверке, но удаление не затронуло ни одной записи.
var ErrDeleteLostRace = errors.New("note disappeared between existence check and delete")

// Error - типизированная ошибка со структурированными полями.
type Error struct {
	Kind   Kind
	Op     string
	Field  string
	NoteID string
	Err    error
}

// E создает ошибку вида kind для операции op.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithField дополняет ошибку именем поля.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithNoteID дополняет ошибку идентификатором заметки.
func (e *Error) WithNoteID(id string) *Error {
	e.NoteID = id
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Field != "" {
		b.WriteString(" (field ")
		b.WriteString(e.Field)
		b.WriteString(")")
	}
	if e.NoteID != "" {
		b.WriteString(" (note ")
		b.WriteString(e.NoteID)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сопоставляет ошибку с ее видом.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf возвращает вид первой *Error в цепочке или Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
