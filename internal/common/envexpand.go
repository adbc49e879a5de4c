// Package common provides utility functions for environment reference expansion.
//
// The {env:NAME} syntax allows configuration values to reference process
// environment variables, keeping tokens and account-specific URLs out of
// checked-in TOML files.
//
// Example:
//
//	Input:  "quote_url = https://api.example.com/eod?token={env:QUOTE_TOKEN}"
//	Env:    QUOTE_TOKEN=abc123
//	Output: "quote_url = https://api.example.com/eod?token=abc123"
//
// Missing variables are logged as warnings but not treated as errors; the
// reference is left in place so the failure surfaces where the value is used.
package common

import (
	"fmt"
	"os"
	"reflect"
	"regexp"

	"github.com/ternarybob/arbor"
)

// envRefPattern matches {env:NAME} references in strings
var envRefPattern = regexp.MustCompile(`\{env:([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvReferences replaces all {env:NAME} references in the input
// string with values from the process environment. Unset variables
// leave the reference unchanged.
func ExpandEnvReferences(input string, logger arbor.ILogger) string {
	if input == "" {
		return input
	}

	return envRefPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := envRefPattern.FindStringSubmatch(match)[1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if logger != nil {
			logger.Warn().
				Str("reference", match).
				Str("variable", name).
				Msg("Unresolved environment reference in config")
		}
		return match
	})
}

// ExpandInStruct uses reflection to recursively expand {env:NAME}
// references in a struct's string fields. Handles nested structs,
// pointers, string slices and map[string]string fields. The struct
// must be passed as a pointer for in-place mutation.
func ExpandInStruct(v interface{}, logger arbor.ILogger) error {
	val := reflect.ValueOf(v)

	if val.Kind() != reflect.Ptr {
		return fmt.Errorf("ExpandInStruct requires a pointer, got %T", v)
	}

	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("ExpandInStruct requires a struct pointer, got pointer to %v", val.Kind())
	}

	expandStructValue(val, logger)
	return nil
}

// expandStructValue is the recursive implementation for struct traversal
func expandStructValue(val reflect.Value, logger arbor.ILogger) {
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)

		// Skip unexported fields
		if !field.CanSet() {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			old := field.String()
			if expanded := ExpandEnvReferences(old, logger); expanded != old {
				field.SetString(expanded)
			}

		case reflect.Struct:
			expandStructValue(field, logger)

		case reflect.Ptr:
			if !field.IsNil() && field.Elem().Kind() == reflect.Struct {
				expandStructValue(field.Elem(), logger)
			}

		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				for j := 0; j < field.Len(); j++ {
					elem := field.Index(j)
					old := elem.String()
					if expanded := ExpandEnvReferences(old, logger); expanded != old {
						elem.SetString(expanded)
					}
				}
			}

		case reflect.Map:
			if field.Type().Key().Kind() == reflect.String && field.Type().Elem().Kind() == reflect.String {
				mapVal := field.Interface().(map[string]string)
				for key, value := range mapVal {
					if expanded := ExpandEnvReferences(value, logger); expanded != value {
						mapVal[key] = expanded
					}
				}
			}
		}
	}
}
