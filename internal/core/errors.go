package core

import "fmt"

// InvalidPeriodError is returned when a period token matches no known shape.
type InvalidPeriodError struct {
	Token string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period type %q: expected YTD, F<year> or LTM", e.Token)
}

// InvalidDateError names the date parameter that could not be parsed.
type InvalidDateError struct {
	Param string
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s format %q: %v", e.Param, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s format %q", e.Param, e.Value)
}

func (e *InvalidDateError) Unwrap() error {
	return e.Err
}

// ConfigurationError describes invalid static configuration. It is fatal at startup.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}
