package layer

import "fmt"

// AsErrorAndMessage renders an arbitrary error or recovered value for a span
// event. Errors come back as they are with their message; any other value is
// turned into its string form, returned twice.
func AsErrorAndMessage(v any) (any, string) {
	if err, ok := v.(error); ok {
		return err, err.Error()
	}
	s := fmt.Sprint(v)
	return s, s
}
