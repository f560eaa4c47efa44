package processor

import "fmt"

// TransportError is a mailbox failure (connect, search, fetch, flag
// update). It aborts the cycle; the next one starts on schedule.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mailbox %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func transport(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}
