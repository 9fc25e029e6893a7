package events

import "errors"

var (
	// ErrConnect не удалось подключиться к NATS
	ErrConnect = errors.New("events: failed to connect to NATS")

	// ErrPublish не удалось опубликовать сообщение
	ErrPublish = errors.New("events: failed to publish")
)
