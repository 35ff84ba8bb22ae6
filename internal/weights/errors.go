package weights

import "fmt"

// ConfigurationError reports a weights resource that is missing, unreadable, or invalid.
// No score can be computed without a valid weight set.
type ConfigurationError struct {
	Source string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scoring weights %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("scoring weights %s: %s", e.Source, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
