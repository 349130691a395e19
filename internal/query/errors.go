package query

import "fmt"

// ParamError reports a malformed query-string value.
type ParamError struct {
	Param string
	Value string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid value %q for query parameter %q", e.Value, e.Param)
}
