// Package pagination implements keyset paging over rows listed newest first.
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

const cursorPrefix = "after:"

var ErrInvalidCursor = errors.New("invalid cursor")

// Params is the page request parsed from the query string.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the id of the last row already returned. The next page holds ids
// strictly below it.
type Cursor struct {
	ID uint
}

// Page is embedded in list responses.
type Page struct {
	NextCursor string `json:"next_cursor,omitempty"`
}

// NormalizeLimit clamps limit into [1, MaxLimit], using DefaultLimit when unset.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer asks for one row more than the page so Trim can tell whether
// another page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

func EncodeCursor(c Cursor) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatUint(uint64(c.ID), 10)))
}

// ParseCursor returns nil for a blank value.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	digits, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return nil, ErrInvalidCursor
	}
	id, err := strconv.ParseUint(digits, 10, 64)
	if err != nil || id == 0 {
		return nil, ErrInvalidCursor
	}
	return &Cursor{ID: uint(id)}, nil
}

// Trim cuts the buffered row fetched by LimitWithBuffer and, when it was
// present, points the next cursor at the last row kept.
func Trim[T any](rows []T, limit int, idOf func(T) uint) ([]T, Page) {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return rows, Page{}
	}
	kept := rows[:limit]
	return kept, Page{NextCursor: EncodeCursor(Cursor{ID: idOf(kept[limit-1])})}
}
