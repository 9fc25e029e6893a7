package gemini

import "errors"

var (
	// ErrClient не удалось создать клиента Gemini
	ErrClient = errors.New("gemini: failed to create client")

	// ErrGenerate модель вернула ошибку
	ErrGenerate = errors.New("gemini: generate content failed")

	// ErrEmptyResponse в ответе нет кандидатов или текста
	ErrEmptyResponse = errors.New("gemini: empty response")

	// ErrDecode ответ модели не является ожидаемым JSON
	ErrDecode = errors.New("gemini: failed to decode extraction")
)
