package appErrors

import "fmt"

// ErrNoRecipients means recipient resolution produced an empty set. It is a
// hard precondition failure for a send, never retried.
type ErrNoRecipients struct{}

func (e *ErrNoRecipients) Error() string {
	return "no valid recipients resolved for message"
}

func NewNoRecipients() error {
	return &ErrNoRecipients{}
}

// ErrTemplateNotFound is a sentinel error
type ErrTemplateNotFound struct {
	TemplateID int
}

func (e *ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("message template with ID %d not found", e.TemplateID)
}

func NewTemplateNotFound(id int) error {
	return &ErrTemplateNotFound{TemplateID: id}
}

// ErrConfiguration reports a missing or invalid delivery configuration field.
type ErrConfiguration struct {
	Field string
}

func (e *ErrConfiguration) Error() string {
	return fmt.Sprintf("delivery configuration invalid: missing or bad field %q", e.Field)
}

func NewConfiguration(field string) error {
	return &ErrConfiguration{Field: field}
}

// ErrProviderTransport wraps a failure from one transport step. Retriable
// failures (network unreachable, gateway route absent) let the fallback
// chain move to the next step; terminal ones surface immediately.
type ErrProviderTransport struct {
	Provider   string
	StatusCode int
	Retriable  bool
	Err        error
}

func (e *ErrProviderTransport) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s transport failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s transport failed: %v", e.Provider, e.Err)
}

func (e *ErrProviderTransport) Unwrap() error { return e.Err }

func NewProviderTransport(provider string, statusCode int, retriable bool, err error) error {
	return &ErrProviderTransport{Provider: provider, StatusCode: statusCode, Retriable: retriable, Err: err}
}

// ErrRecipientNotFound means a delivery-status callback named a recipient
// that does not belong to the message.
type ErrRecipientNotFound struct {
	RecipientID int
}

func (e *ErrRecipientNotFound) Error() string {
	return fmt.Sprintf("message recipient with ID %d not found", e.RecipientID)
}

func NewRecipientNotFound(id int) error {
	return &ErrRecipientNotFound{RecipientID: id}
}

// ErrInvalidStatusTransition rejects a delivery-status update that would move
// a recipient backwards in the lifecycle.
type ErrInvalidStatusTransition struct {
	From string
	To   string
}

func (e *ErrInvalidStatusTransition) Error() string {
	return fmt.Sprintf("delivery status cannot move from %s to %s", e.From, e.To)
}

func NewInvalidStatusTransition(from, to string) error {
	return &ErrInvalidStatusTransition{From: from, To: to}
}

// ErrPersistence reports a storage failure after a successful dispatch. It is
// a warning, not a delivery failure: the message was sent.
type ErrPersistence struct {
	Op  string
	Err error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *ErrPersistence) Unwrap() error { return e.Err }

func NewPersistence(op string, err error) error {
	return &ErrPersistence{Op: op, Err: err}
}
