package session

import "errors"

var (
	// ErrSessionNotFound сессии нет или она истекла
	ErrSessionNotFound = errors.New("session: not found")

	// ErrEncode не удалось сериализовать сессию
	ErrEncode = errors.New("session: failed to encode")

	// ErrDecode не удалось прочитать сохраненную сессию
	ErrDecode = errors.New("session: failed to decode")
)
