// Package callback delivers signed outcome payloads to the backend. The
// signature scheme (HMAC-SHA256, base64 tag over the exact body bytes, carried
// in the X-Callback-HMAC header) is a fixed contract with the receiver.
package callback

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Canonicalize serializes v deterministically: object keys sorted, no
// incidental whitespace. The verifier reconstructs the same serialization, so
// any formatting drift breaks verification.
func Canonicalize(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	// Round-trip through a generic value so keys come out sorted regardless
	// of struct field order.
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, fmt.Errorf("reparse payload: %w", err)
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("canonical marshal: %w", err)
	}
	return out, nil
}

// Sign computes the base64 HMAC-SHA256 tag over body with the shared secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the tag and compares in constant time.
func Verify(body []byte, tag, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)
	got, err := base64.StdEncoding.DecodeString(tag)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}
