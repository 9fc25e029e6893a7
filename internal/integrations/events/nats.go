package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPublisher публикует события бронирований в NATS
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher подключается к NATS по url
func NewNATSPublisher(url, clientName string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name(clientName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.conn.Publish(topic, msg); err != nil {
		return fmt.Errorf("%w: topic %s: %v", ErrPublish, topic, err)
	}
	return nil
}

// Close сбрасывает буфер и закрывает соединение
func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}

// Noop используется, когда шина событий не настроена
type Noop struct{}

func (Noop) Publish(context.Context, string, []byte) error { return nil }
