package platforms

import "context"

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is one round event rendered for a chat or webhook receiver.
// Key stays the same across retries of one push.
type Message struct {
	Key         string
	Title       string
	Content     string
	Description string
	Color       int
	Timestamp   string
	Footer      string
	Fields      []Field
}

// Summary is the single line shown by receivers without rich layout.
func (m Message) Summary() string {
	if m.Description != "" {
		return m.Description
	}
	return m.Content
}

// Adapter delivers a Message to one platform's webhook endpoint.
type Adapter interface {
	Name() string
	Send(ctx context.Context, endpoint, secret string, msg Message) error
}
