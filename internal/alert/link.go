package alert

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// liveLocationLink формирует подписанную ссылку на живую геолокацию для доверенного контакта
func liveLocationLink(baseURL, key string, incidentID uuid.UUID, contactID string) string {
	q := url.Values{}
	q.Set("contact", contactID)
	q.Set("sig", generateHMACSHA256(incidentID.String()+":"+contactID, key))
	return fmt.Sprintf("%s/%s?%s", baseURL, incidentID, q.Encode())
}

// generateHMACSHA256 генерирует HMAC-SHA256 подпись для данных
func generateHMACSHA256(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
