package dashboard

import "fmt"

// ConfirmationRequired is returned by destructive or role-changing actions
// invoked without explicit confirmation.  Nothing has been sent to the
// backend; the caller shows Prompt and repeats the call confirmed.
type ConfirmationRequired struct {
	Action string
	Prompt string
}

func (e *ConfirmationRequired) Error() string {
	return fmt.Sprintf("confirmation required: %s", e.Prompt)
}

func confirmation(action, format string, args ...any) error {
	return &ConfirmationRequired{Action: action, Prompt: fmt.Sprintf(format, args...)}
}
