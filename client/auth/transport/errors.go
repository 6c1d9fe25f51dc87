package transport

import "fmt"

// ConfigError reports an invalid RoundTripper configuration.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("transport: invalid configuration: %s %s", e.Option, e.Reason)
}
