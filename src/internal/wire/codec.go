// FILE: haystackauth/src/internal/wire/codec.go
package wire

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Field is a single key=value pair of an authorization header.
// Values are written verbatim: a value containing "," or "=" corrupts the
// header, callers must not pass one.
type Field struct {
	Key   string
	Value string
}

// F is shorthand for building a Field
func F(key, value string) Field {
	return Field{Key: key, Value: value}
}

// EncodeAuthHeader formats an authorization header value as
// "<scheme> k1=v1, k2=v2" keeping field order.
func EncodeAuthHeader(scheme string, fields ...Field) string {
	var b strings.Builder
	b.WriteString(scheme)
	for i, f := range fields {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(f.Value)
	}
	return b.String()
}

// DecodeField returns the text between the first occurrence of startMarker
// and the first occurrence of endMarker after it. A missing end marker
// yields the remainder of body, a missing start marker yields "".
func DecodeField(body, startMarker, endMarker string) string {
	start := strings.Index(body, startMarker)
	if start < 0 {
		return ""
	}
	rest := body[start+len(startMarker):]
	if endMarker == "" {
		return rest
	}
	end := strings.Index(rest, endMarker)
	if end < 0 {
		return rest
	}
	return rest[:end]
}

// EncodeData encodes an outbound binary payload (URL-safe, unpadded).
func EncodeData(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeData decodes a payload returned by the server. Standard base64 is
// what the server sends; the URL-safe alphabets are accepted as fallback.
func DecodeData(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty data field")
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid data encoding: %w", err)
	}
	return b, nil
}
