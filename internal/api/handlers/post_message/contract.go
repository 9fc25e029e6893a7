package post_message

import (
	"context"

	"github.com/m04kA/SMC-TableBooking/internal/usecase/conversation"
)

type ConversationUseCase interface {
	Execute(ctx context.Context, req *conversation.Request) (*conversation.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
