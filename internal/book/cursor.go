package book

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidCursor is returned for cursors this server did not issue.
var ErrInvalidCursor = errors.New("invalid cursor")

// CursorData is the keyset position carried by an opaque list cursor.
type CursorData struct {
	AfterID int64 `json:"after_id,omitempty"`
}

// EncodeCursor returns "" for the start of the list.
func EncodeCursor(data CursorData) string {
	if data.AfterID <= 0 {
		return ""
	}
	raw, _ := json.Marshal(data)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor reverses EncodeCursor. An empty cursor is the start of the list.
func DecodeCursor(cursor string) (CursorData, error) {
	var data CursorData
	if cursor == "" {
		return data, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return CursorData{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return CursorData{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if data.AfterID < 0 {
		return CursorData{}, fmt.Errorf("%w: negative position", ErrInvalidCursor)
	}
	return data, nil
}
