package config

import (
	"strconv"
)

// ConfigValue represents a configuration value that can be set explicitly on a source,
// picked up from the process settings, or left to a default.
// This implements the config overlay pattern: source option > process setting > default
//
// T is the type of the configuration value (bool, string, int, etc.)
//
// Example usage:
//
//	// Source option explicitly sets the value (overrides settings)
//	chunkSize := NewConfigValue(1000)
//
//	// Source option not set (use settings)
//	chunkSize := ConfigValue[int]{} // nil/unset
//
//	// Resolve value with overlay priority
//	n := chunkSize.Resolve(settings.ChunkSize, 0)
type ConfigValue[T any] struct {
	// value is the explicitly set configuration value
	// nil = not set (fall through to the next layer)
	value *T
}

// NewConfigValue creates a ConfigValue with an explicitly set value.
func NewConfigValue[T any](value T) ConfigValue[T] {
	return ConfigValue[T]{value: &value}
}

// IsSet returns true if the value was explicitly set.
func (cv ConfigValue[T]) IsSet() bool {
	return cv.value != nil
}

// Get returns the set value and whether it was set.
// If not set, returns zero value and false.
func (cv ConfigValue[T]) Get() (T, bool) {
	if cv.value != nil {
		return *cv.value, true
	}
	var zero T
	return zero, false
}

// Resolve applies config overlay priority to determine the final value:
//
//	Priority 1: this value - if explicitly set
//	Priority 2: fallback - typically the process setting
//	Priority 3: defaultValue
func (cv ConfigValue[T]) Resolve(fallback ConfigValue[T], defaultValue T) T {
	if cv.value != nil {
		return *cv.value
	}
	if fallback.value != nil {
		return *fallback.value
	}
	return defaultValue
}

// ParseStringConfigValue parses a string value into a ConfigValue[string].
// Returns unset ConfigValue if the parameter is not present.
func ParseStringConfigValue(params map[string]string, key string) ConfigValue[string] {
	if v, ok := params[key]; ok {
		return NewConfigValue(v)
	}
	return ConfigValue[string]{} // Unset
}

// ParseIntConfigValue parses a string value into a ConfigValue[int].
// Returns unset ConfigValue if the parameter is not present and an error if it is not an integer.
func ParseIntConfigValue(params map[string]string, key string) (ConfigValue[int], error) {
	if v, ok := params[key]; ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			return ConfigValue[int]{}, err
		}
		return NewConfigValue(i), nil
	}
	return ConfigValue[int]{}, nil // Unset
}

// ParseInt64ConfigValue parses a string value into a ConfigValue[int64].
// Returns unset ConfigValue if the parameter is not present and an error if it is not an integer.
func ParseInt64ConfigValue(params map[string]string, key string) (ConfigValue[int64], error) {
	if v, ok := params[key]; ok {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return ConfigValue[int64]{}, err
		}
		return NewConfigValue(i), nil
	}
	return ConfigValue[int64]{}, nil // Unset
}
