// Package sanitize scrubs vendor responses before they are stored as job
// results: string fields are trimmed and known PII fields are removed.
package sanitize

import (
	"encoding/json"
	"strings"
)

// piiFields are removed from vendor payloads at every nesting level.
// Matching is case-insensitive.
var piiFields = map[string]struct{}{
	"ssn":                    {},
	"social_security_number": {},
	"email":                  {},
	"phone":                  {},
	"phone_number":           {},
}

// Result decodes a vendor response body, strips PII fields, trims string
// values, and re-encodes it. A body that is not valid JSON is returned
// unchanged; there is nothing structured to scrub.
func Result(body []byte) json.RawMessage {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return body
	}

	cleaned := scrub(decoded)

	out, err := json.Marshal(cleaned)
	if err != nil {
		return body
	}
	return out
}

func scrub(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for key, inner := range val {
			if _, pii := piiFields[strings.ToLower(key)]; pii {
				delete(val, key)
				continue
			}
			val[key] = scrub(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = scrub(inner)
		}
		return val
	case string:
		return strings.TrimSpace(val)
	default:
		return v
	}
}
