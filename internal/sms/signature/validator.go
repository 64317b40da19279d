// internal/sms/signature/validator.go
package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"sort"
	"strings"
)

// Validator checks that a webhook request genuinely originated from the
// telephony provider. The provider signs each request by concatenating the
// full request URL with every POST parameter name and value, sorted by name,
// then taking an HMAC-SHA1 of the result with the account's auth token and
// base64-encoding it into the signature header.
type Validator struct {
	authToken string
}

func NewValidator(authToken string) *Validator {
	return &Validator{authToken: authToken}
}

// Validate reports whether signatureHeader matches the expected signature for
// the given URL and form parameters. It returns false on any malformed input
// and never panics; callers treat false as "reject with 401".
func (v *Validator) Validate(signatureHeader, fullURL string, params map[string]string) bool {
	if v.authToken == "" || signatureHeader == "" || fullURL == "" {
		return false
	}

	expected := v.compute(fullURL, params)

	provided, err := base64.StdEncoding.DecodeString(signatureHeader)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(expected, provided) == 1
}

// compute builds the raw expected signature. Parameter order in the map is
// irrelevant: names are sorted before concatenation, which is what makes
// validation order-independent.
func (v *Validator) compute(fullURL string, params map[string]string) []byte {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(fullURL)
	for _, k := range keys {
		payload.WriteString(k)
		payload.WriteString(params[k])
	}

	mac := hmac.New(sha1.New, []byte(v.authToken))
	mac.Write([]byte(payload.String()))
	return mac.Sum(nil)
}

// Expected returns the base64 signature the provider would send for the given
// request. Exposed for tests and for constructing signed requests locally.
func (v *Validator) Expected(fullURL string, params map[string]string) string {
	return base64.StdEncoding.EncodeToString(v.compute(fullURL, params))
}
