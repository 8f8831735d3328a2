package entities

import (
	"errors"
	"fmt"
)

// Tag - значение из закрытого словаря тем заметок.
// Сериализуется каноническим именем.
type Tag string

// Допустимые теги.
const (
	TagRiscV   Tag = "RiscV"
	TagLinux   Tag = "Linux"
	TagWindows Tag = "Windows"
	TagKernel  Tag = "Kernel"
)

// ErrUnknownTag возвращается для имени вне словаря.
var ErrUnknownTag = errors.New("unknown tag")

// AllTags возвращает словарь в каноническом порядке.
func AllTags() []Tag {
	return []Tag{TagRiscV, TagLinux, TagWindows, TagKernel}
}

// Valid сообщает, входит ли тег в словарь.
func (t Tag) Valid() bool {
	switch t {
	case TagRiscV, TagLinux, TagWindows, TagKernel:
		return true
	}
	return false
}

func (t Tag) String() string {
	return string(t)
}

// ParseTag разбирает каноническое имя.
func ParseTag(s string) (Tag, error) {
	t := Tag(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTag, s)
	}
	return t, nil
}

// MarshalText реализует encoding.TextMarshaler.
func (t Tag) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, string(t))
	}
	return []byte(t), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler и отвергает имена вне словаря.
func (t *Tag) UnmarshalText(text []byte) error {
	parsed, err := ParseTag(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TagsToStrings переводит теги в имена для хранилища.
func TagsToStrings(tags []Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

// TagsFromStrings разбирает имена из хранилища.
func TagsFromStrings(names []string) ([]Tag, error) {
	out := make([]Tag, len(names))
	for i, name := range names {
		t, err := ParseTag(name)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// FirstInvalidTag возвращает первый тег вне словаря.
func FirstInvalidTag(tags []Tag) (Tag, bool) {
	for _, t := range tags {
		if !t.Valid() {
			return t, true
		}
	}
	return "", false
}
