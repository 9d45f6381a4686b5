// Package invariant holds the one assertion helper the matching and P&L
// engines use for conditions that must never happen — an empty heap
// access when can_match returned true, a negative remaining quantity, a
// zero-quantity trade. These are bugs, not recoverable input errors, so
// they panic rather than return an error. Only the HTTP router's recovery
// middleware recovers from them; the engines themselves never do, and
// the websocket client goroutines do not recover either.
package invariant

import "fmt"

// Violation is the panic value raised by Assert.
type Violation struct {
	Message string
}

func (v *Violation) Error() string { return v.Message }

// Assert panics with a *Violation if cond is false.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(&Violation{Message: fmt.Sprintf(format, args...)})
	}
}
