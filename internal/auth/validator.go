package auth

import (
	"fmt"
	"net/url"
	"strings"
)

// ExtractValidatorSession pulls the one-shot validator session id out of user
// input. The user completes a third-party login elsewhere and pastes either
// the resulting URL (carrying a sessionId query parameter) or the bare token.
func ExtractValidatorSession(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrMalformedInput
	}

	if strings.Contains(input, "://") || strings.Contains(input, "?") {
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		sessionID := u.Query().Get("sessionId")
		if sessionID == "" {
			return "", ErrMalformedInput
		}
		return sessionID, nil
	}

	return input, nil
}
