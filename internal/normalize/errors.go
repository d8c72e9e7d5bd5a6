package normalize

import "fmt"

// UnknownAttributionError reports an attribution value that still contains a
// placeholder token after every table entry was tried.
type UnknownAttributionError struct {
	Value string
}

func (e *UnknownAttributionError) Error() string {
	return fmt.Sprintf("attribution not known: %s", e.Value)
}
