package orders

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// BodyDigest вычисляет детерминированный sha256-дайджест тела запроса.
// encoding/json сериализует map-ключи в отсортированном порядке, поэтому
// семантически одинаковые тела с разным порядком ключей дают один дайджест.
func BodyDigest(body map[string]any) (string, error) {
	if body == nil {
		body = map[string]any{}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request body: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
