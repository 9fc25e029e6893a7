package conversation

import "errors"

var (
	// ErrInvalidInput возвращается при пустой или слишком длинной реплике
	ErrInvalidInput = errors.New("conversation: invalid input data")
)
