package conversation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// validateRequest валидирует входные данные
func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Utterance) == "" {
		return fmt.Errorf("%w: utterance is required", ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(req.Utterance); n > maxUtteranceLength {
		return fmt.Errorf("%w: utterance is %d characters, max %d", ErrInvalidInput, n, maxUtteranceLength)
	}
	if len(req.SessionID) > 128 {
		return fmt.Errorf("%w: session id is too long", ErrInvalidInput)
	}
	return nil
}
