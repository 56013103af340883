// internal/logic/result.go
package logic

import "org-messaging/internal/model"

// Status tags the outcome of a message operation. Fatal failures (store
// unavailable and the like) are not a Status; they travel on the plain
// error return.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusConflict
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusConflict:
		return "conflict"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// FieldError names a field and the rule it violated.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the structured outcome returned by every message operation.
// Message is set on StatusOK where the operation has a payload, Fields on
// StatusInvalid, Reason on StatusNotFound and StatusConflict.
type Result struct {
	Status  Status
	Message *model.Message
	Fields  []FieldError
	Reason  string
}

func ok(m *model.Message) Result {
	return Result{Status: StatusOK, Message: m}
}

func notFound(reason string) Result {
	return Result{Status: StatusNotFound, Reason: reason}
}

func conflict(reason string) Result {
	return Result{Status: StatusConflict, Reason: reason}
}

func invalid(fields ...FieldError) Result {
	return Result{Status: StatusInvalid, Fields: fields}
}
