package mailer

import "context"

// Attachment is a file carried by a mail job. Data is base64-encoded in the
// queued JSON by virtue of being a byte slice.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Message is one mail job. Body is plain text.
type Message struct {
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	Kind        string       `json:"kind"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Dispatcher enqueues mail jobs. Callers treat Send as fire-and-forget:
// a failed enqueue is logged by the caller, never surfaced to the end user.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// Sender performs the actual delivery. The consumer worker drives it.
type Sender interface {
	Deliver(ctx context.Context, msg Message) error
}
