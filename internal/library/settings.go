// internal/library/settings.go
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// settingsKey is the settings row holding the authorized-sender allow-list,
// stored as a JSON array of phone numbers. Loaded per request, never cached:
// settings can change at runtime.
const settingsKey = "sms_authorized_numbers"

// allowListSchema guards against a corrupted settings row being trusted as an
// allow-list. Anything that fails validation is treated as a load failure,
// which callers handle fail-open.
const allowListSchema = `{
	"type": "array",
	"items": {
		"type": "string",
		"minLength": 4,
		"pattern": "^[+0-9][0-9 ()-]*$"
	}
}`

func (s *Store) AuthorizedSenders(ctx context.Context) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = $1`, settingsKey,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No allow-list configured means everyone is allowed.
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrSettingsLoadFailed, err)
	}

	schemaLoader := gojsonschema.NewStringLoader(allowListSchema)
	documentLoader := gojsonschema.NewStringLoader(raw)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettingsLoadFailed, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, fmt.Errorf("%w: invalid allow-list payload: %s",
			ErrSettingsLoadFailed, strings.Join(details, "; "))
	}

	var numbers []string
	if err := json.Unmarshal([]byte(raw), &numbers); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettingsLoadFailed, err)
	}

	normalized := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if norm := NormalizePhoneNumber(n); norm != "" {
			normalized = append(normalized, norm)
		}
	}
	return normalized, nil
}

// NormalizePhoneNumber strips formatting characters and ensures a leading "+"
// so allow-list entries and webhook senders compare equal.
func NormalizePhoneNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	return "+" + digits
}
