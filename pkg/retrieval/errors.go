package retrieval

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("retrieval stage misconfigured")

	// ErrCapability is matched by every *CapabilityError.
	ErrCapability = errors.New("capability call failed")
)

// ConfigurationError reports a missing or unusable collaborator. It is fatal
// and not worth retrying.
type ConfigurationError struct {
	Component string
	Err       error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("retrieval: %s: %v", e.Component, e.Err)
	}
	return fmt.Sprintf("retrieval: missing %s", e.Component)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// CapabilityError reports a failed call to an embedding or judge backend.
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("retrieval: %s: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapability
}
