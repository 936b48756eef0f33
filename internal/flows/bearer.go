package flows

import "strings"

const bearerScheme = "bearer "

// BearerToken extracts the credential from an Authorization header value. The scheme
// matches in any case and surrounding whitespace is dropped.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) <= len(bearerScheme) || !strings.EqualFold(header[:len(bearerScheme)], bearerScheme) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerScheme):])
	if token == "" {
		return "", false
	}
	return token, true
}
