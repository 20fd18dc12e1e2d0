package domain

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from an input table. It is
// the only fatal error kind: without the join-key columns a run cannot
// proceed.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s table missing required columns: %s",
		e.Table, strings.Join(e.Missing, ", "))
}
