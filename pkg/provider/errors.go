package provider

import "fmt"

// CLIError reports a failure of a CLI-backed provider subprocess.
type CLIError struct {
	Provider string
	Message  string
}

func (e *CLIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func cliErrorf(providerName, format string, args ...any) *CLIError {
	return &CLIError{Provider: providerName, Message: fmt.Sprintf(format, args...)}
}
