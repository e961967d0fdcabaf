// Package validation collects field-keyed request validation failures.
package validation

import (
	"fmt"
	"sort"
	"strings"
)

// NonField is the key used for failures that are not tied to one field.
const NonField = "non_field_errors"

// Common messages.
const (
	MsgRequired = "This field is required."
	MsgBlank    = "This field may not be blank."
)

// Errors maps a field name to its failure messages. A non-empty Errors value
// is an error; an empty one is not.
type Errors map[string][]string

// Field returns Errors holding a single message for field.
func Field(field, msg string) Errors {
	return Errors{field: {msg}}
}

// Add appends msg to the messages recorded for field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Err returns e as an error, or nil when nothing was recorded.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], " ")))
	}
	return strings.Join(parts, "; ")
}

// MaxLength returns the message used when a value exceeds n characters.
func MaxLength(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

// InvalidChoice returns the message used for a value outside an enumeration.
func InvalidChoice(v string) string {
	return fmt.Sprintf("\"%s\" is not a valid choice.", v)
}

// UnknownPK returns the message used when a referenced row does not exist.
func UnknownPK(id int64) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}
