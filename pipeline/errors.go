package pipeline

import "fmt"

// MalformedPriceError is fatal for the record carrying it: a price that does
// not parse must never reach the store.
type MalformedPriceError struct {
	Raw string
}

func (e *MalformedPriceError) Error() string {
	return fmt.Sprintf("malformed price %q", e.Raw)
}

// MissingFieldError marks a record whose page lacked a required field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field %q missing after extraction", e.Field)
}
