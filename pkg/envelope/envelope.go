// Package envelope implements the error envelope shared by every public
// operation of the notifier: an accumulator of {code, message, meta} entries
// rendered as {"errors": [...]} on the wire.
package envelope

import (
	"fmt"
	"net/http"
	"strings"
)

// Code pairs a stable numeric error code with its canonical message.
// The numbering is part of the wire contract and must never be reused.
type Code struct {
	Code    int
	Message string
}

// Request validation errors.
var (
	ErrAppID             = Code{1001, "You should provide a valid appId"}
	ErrUserID            = Code{1002, "You should provide a valid userId"}
	ErrBodyParamsMissing = Code{1003, "Maybe you forget some body params"}
	ErrUserNotFound      = Code{1004, "User not found"}
	ErrDeviceID          = Code{1005, "You should provide a valid deviceId"}
	ErrDeviceNotFound    = Code{1006, "Device not found"}
	ErrInvalidTopic      = Code{1007, "You should provide a valid topic"}
	ErrTopicNotFound     = Code{1008, "Topic not found"}
)

// Delivery-provider errors.
var (
	ErrCredentialFile = Code{5001, "You should provide a file with fcm credential"}
	ErrDeliveryInit   = Code{5002, "Cannot initialize fcm app"}
	ErrClientNotFound = Code{5003, "FCM client not found"}
	ErrDeliverySend   = Code{5004, "FCM client could not send notifications"}
)

// Store errors.
var (
	ErrStorage = Code{9001, "Database Error"}
)

// Entry is one reported failure.
type Entry struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta"`
}

// Envelope is the wire shape of a failed operation. It satisfies error so it
// can cross core boundaries without a parallel return channel.
type Envelope struct {
	Status int     `json:"-"`
	Errors []Entry `json:"errors"`
}

func (e *Envelope) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, entry := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%d: %s", entry.Code, entry.Message))
	}
	return strings.Join(msgs, "; ")
}

// Builder accumulates independent failures before conversion to the wire
// shape. Validation stages add one entry per failed precondition instead of
// short-circuiting, so a response reports every problem at once.
type Builder struct {
	status  int
	entries []Entry
}

func NewBuilder() *Builder {
	return &Builder{status: http.StatusBadRequest}
}

// Status overrides the HTTP-equivalent status of the final envelope.
func (b *Builder) Status(status int) *Builder {
	b.status = status
	return b
}

// Add records a failure with empty meta.
func (b *Builder) Add(c Code) *Builder {
	return b.AddMeta(c, nil)
}

// AddMeta records a failure with diagnostic meta.
func (b *Builder) AddMeta(c Code, meta map[string]any) *Builder {
	if meta == nil {
		meta = map[string]any{}
	}
	b.entries = append(b.entries, Entry{Code: c.Code, Message: c.Message, Meta: meta})
	return b
}

// Empty reports whether no failure was recorded.
func (b *Builder) Empty() bool {
	return len(b.entries) == 0
}

// Envelope converts the accumulated entries to the wire shape. It returns nil
// when nothing was recorded.
func (b *Builder) Envelope() *Envelope {
	if b.Empty() {
		return nil
	}
	return &Envelope{Status: b.status, Errors: b.entries}
}

// New builds a single-entry envelope for operational failures, which always
// short-circuit individually.
func New(status int, c Code, meta map[string]any) *Envelope {
	return NewBuilder().Status(status).AddMeta(c, meta).Envelope()
}
