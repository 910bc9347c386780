package orders

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// cursorPayload — сериализуемая форма ключа keyset-пагинации.
// Кодировка непрозрачна для клиента, гарантируется только round-trip.
type cursorPayload struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// EncodeCursor кодирует ключ страницы в непрозрачный курсор (base64 JSON).
func EncodeCursor(key domain.PageKey) string {
	data, err := json.Marshal(cursorPayload{
		CreatedAt: key.CreatedAt.UTC(),
		ID:        key.ID,
	})
	if err != nil {
		// Структура из времени и строки не может не сериализоваться.
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCursor восстанавливает ключ страницы или возвращает ErrInvalidCursor.
func DecodeCursor(cursor string) (domain.PageKey, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return domain.PageKey{}, domain.ErrInvalidCursor
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.PageKey{}, domain.ErrInvalidCursor
	}
	if payload.ID == "" || payload.CreatedAt.IsZero() {
		return domain.PageKey{}, domain.ErrInvalidCursor
	}

	return domain.PageKey{CreatedAt: payload.CreatedAt, ID: payload.ID}, nil
}
