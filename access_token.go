package linkedin

import (
	"encoding/json"
)

const RedactedAccessToken = "[REDACTED: access_token]"

// AccessToken is an oauth access_token.
type AccessToken string

// String will redact the token.
func (t AccessToken) String() string {
	return RedactedAccessToken
}

// MarshalJSON will redact the token.
func (t AccessToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedAccessToken)
}
