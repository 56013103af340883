// internal/logic/validate.go
package logic

import (
	"fmt"
	"unicode/utf8"
)

// Field length bounds, inclusive on both ends.
const (
	TitleMinLen   = 3
	TitleMaxLen   = 200
	ContentMinLen = 10
	ContentMaxLen = 1000
)

// validateFields checks a trimmed title and the raw content against the
// length rules shared by create and update.
func validateFields(title, content string) []FieldError {
	var fields []FieldError

	if title == "" {
		fields = append(fields, FieldError{
			Field:   "title",
			Message: "title must not be empty",
		})
	} else if n := utf8.RuneCountInString(title); n < TitleMinLen || n > TitleMaxLen {
		fields = append(fields, FieldError{
			Field:   "title",
			Message: fmt.Sprintf("title length must be between %d and %d characters", TitleMinLen, TitleMaxLen),
		})
	}

	if n := utf8.RuneCountInString(content); n < ContentMinLen || n > ContentMaxLen {
		fields = append(fields, FieldError{
			Field:   "content",
			Message: fmt.Sprintf("content length must be between %d and %d characters", ContentMinLen, ContentMaxLen),
		})
	}

	return fields
}
