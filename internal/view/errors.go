package view

import (
	"fmt"
	"io"
	"time"
)

// ErrorTimeLayout stamps messages shown to the cashier.
const ErrorTimeLayout = "Jan 2, 2006, 3:04:05 PM"

// ErrorMessageHandler shows failures to the cashier.
type ErrorMessageHandler struct {
	Out io.Writer
	Now func() time.Time
}

// ShowErrorMessage prints "<time>, ERROR: <message>".
func (h ErrorMessageHandler) ShowErrorMessage(message string) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	fmt.Fprintf(h.Out, "%s, ERROR: %s\n", now().Format(ErrorTimeLayout), message)
}
