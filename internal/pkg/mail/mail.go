package mail

import (
	"context"
	"io"
)

// Message is a provider-agnostic email payload. TextBody is used when
// HTMLBody is empty; when both are set the sender builds a
// multipart/alternative body.
type Message struct {
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mail sends email messages.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
