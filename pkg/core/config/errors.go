package config

import (
	"errors"
	"fmt"
)

// ErrConfigurationMissing is returned when a required setting is absent.
// It is fatal at startup.
var ErrConfigurationMissing = errors.New("configuration missing")

// Missing wraps ErrConfigurationMissing with the name of the absent setting.
func Missing(key string) error {
	return fmt.Errorf("%w: %s", ErrConfigurationMissing, key)
}
