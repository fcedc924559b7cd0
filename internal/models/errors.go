package models

import (
	"fmt"
	"strings"
)

// SchemaError reports which fields of an inbound inventory event are missing
// or out of range. Schema violations are terminal: a malformed message cannot
// become valid by retrying, so the consumer routes it to the dead-letter sink.
type SchemaError struct {
	Fields []string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if len(e.Fields) == 0 {
		return "inventory event failed schema validation"
	}
	return fmt.Sprintf("inventory event failed schema validation: %s", strings.Join(e.Fields, ", "))
}
