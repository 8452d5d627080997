package dataset

import (
	"fmt"
	"strings"
)

// MissingVariablesError reports every canonical or raw variable the
// dataset lacks, not just the first.
type MissingVariablesError struct {
	Names []string
}

func (e *MissingVariablesError) Error() string {
	return "missing variables in dataset: " + strings.Join(e.Names, ", ")
}

// EmptyDatasetError indicates the canonical table contained no data.
type EmptyDatasetError struct {
	Name string
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("dataset for %q contains no data", e.Name)
}

// NotFoundError indicates no archive exists for the requested name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no dataset found for %q. Run 'weather download --name %s --lat ... --lon ...' first", e.Name, e.Name)
}

// AmbiguousError indicates more than one archive matched the requested
// name; it lists every match.
type AmbiguousError struct {
	Name    string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("multiple datasets found for %q:\n%s\nDelete duplicates or use a unique name",
		e.Name, strings.Join(e.Matches, "\n"))
}
