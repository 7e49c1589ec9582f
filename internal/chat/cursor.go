package chat

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/PedroBarbosa73/chat-app/internal/repository"
)

// The pagination cursor is opaque to clients: base64 over a tiny JSON
// envelope of the keyset (created_at, id) of the last message seen.
type cursorPayload struct {
	CreatedAt time.Time `json:"t"`
	ID        int64     `json:"i"`
}

func encodeCursor(key repository.PageKey) string {
	raw, _ := json.Marshal(cursorPayload{CreatedAt: key.CreatedAt, ID: key.ID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(cursor string) (repository.PageKey, error) {
	if cursor == "" {
		return repository.PageKey{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return repository.PageKey{}, err
	}
	var p cursorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return repository.PageKey{}, err
	}
	return repository.PageKey{CreatedAt: p.CreatedAt, ID: p.ID}, nil
}
