package schema

import (
	"maps"
	"slices"
)

// Schema maps attribute keys to their expected types.
type Schema map[string]Type

// Validate checks attrs against the schema and returns every failure found,
// in key order. Keys missing from the schema are accepted.
func Validate(schema Schema, attrs map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	var errs []error
	for _, key := range slices.Sorted(maps.Keys(schema)) {
		typ := schema[key]
		value, exists := attrs[key]
		if !exists {
			if !IsOptional(typ) {
				errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			}
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateFields validates only the named keys, for partial updates.
// A key the schema does not define is an error; a nil value (a deletion in
// an update patch) is accepted for optional keys.
func ValidateFields(schema Schema, attrs map[string]any, keys ...string) error {
	var errs []error
	for _, key := range keys {
		typ, defined := schema[key]
		if !defined {
			errs = append(errs, &ValidationError{Key: key, Reason: "not defined in schema"})
			continue
		}
		value, exists := attrs[key]
		if !exists || value == nil {
			if !IsOptional(typ) {
				errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			}
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
