package mailer

import "context"

// Message is an outbound email.
type Message struct {
	Subject string
	Body    string
	// HTMLBody is an optional HTML alternative; empty means plain text only.
	HTMLBody string
	From     string
	To       []string
}

// Mailer delivers outbound email. Implementations are synchronous: Send
// returns once the transport has accepted or refused the message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error

	// Configured reports whether the transport has the settings it needs.
	// An unconfigured mailer fails every Send with ErrNotConfigured without
	// attempting transmission.
	Configured() bool
}
