package plisio

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
)

const verifyHashField = "verify_hash"

// canonicalJSON serializes the payload with lexicographically ordered keys
// and without HTML escaping, matching the form the gateway signs. A plain
// json.Marshal would escape &, < and > and break signatures over payloads
// containing them.
func canonicalJSON(payload map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// VerifyCallback checks the authenticity of an inbound webhook payload.
// The declared verify_hash must equal the hex HMAC-SHA1 of the remaining
// payload serialized as JSON with lexicographically ordered keys, keyed by
// the shared secret. Returns false on any missing field or mismatch; it never
// panics on malformed input.
func VerifyCallback(payload map[string]any, secret string) bool {
	if payload == nil || secret == "" {
		return false
	}
	declared, ok := payload[verifyHashField].(string)
	if !ok || declared == "" {
		return false
	}

	ordered := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == verifyHashField {
			continue
		}
		ordered[k] = v
	}

	serialized, err := canonicalJSON(ordered)
	if err != nil {
		return false
	}

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(serialized)
	computed := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(computed), []byte(declared))
}

// SignCallback computes the verify_hash for a payload. Used by tests and by
// tooling that replays callbacks against a local instance.
func SignCallback(payload map[string]any, secret string) (string, error) {
	ordered := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == verifyHashField {
			continue
		}
		ordered[k] = v
	}
	serialized, err := canonicalJSON(ordered)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(serialized)
	return hex.EncodeToString(mac.Sum(nil)), nil
}
