package provider

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ValidateConfigFields validates configuration against provided field definitions
func ValidateConfigFields(gateway string, config map[string]string, fields []ConfigField) error {
	for _, field := range fields {
		value, exists := config[field.Key]
		if !field.Required && strings.TrimSpace(value) == "" {
			continue
		}

		if !exists {
			return fmt.Errorf("%s: required field '%s' is missing", gateway, field.Key)
		}

		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s: required field '%s' cannot be empty", gateway, field.Key)
		}

		if err := validateFieldType(gateway, field, value); err != nil {
			return err
		}

		if err := validateFieldPattern(gateway, field, value); err != nil {
			return err
		}

		if err := validateFieldLength(gateway, field, value); err != nil {
			return err
		}
	}

	return nil
}

// validateFieldType validates field based on its type
func validateFieldType(gateway string, field ConfigField, value string) error {
	switch field.Type {
	case "number":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("%s: field '%s' must be a number", gateway, field.Key)
		}
	case "url":
		u, err := url.ParseRequestURI(value)
		if err != nil || u.Host == "" {
			return fmt.Errorf("%s: field '%s' must be an absolute URL", gateway, field.Key)
		}
	case "boolean":
		if value != "true" && value != "false" {
			return fmt.Errorf("%s: field '%s' must be 'true' or 'false'", gateway, field.Key)
		}
	}
	return nil
}

// validateFieldPattern validates field against regex pattern
func validateFieldPattern(gateway string, field ConfigField, value string) error {
	if field.Pattern == "" {
		return nil
	}

	matched, err := regexp.MatchString(field.Pattern, value)
	if err != nil {
		return fmt.Errorf("%s: invalid pattern for field '%s': %v", gateway, field.Key, err)
	}

	if !matched {
		return fmt.Errorf("%s: field '%s' does not match required pattern", gateway, field.Key)
	}

	return nil
}

// validateFieldLength validates field length constraints
func validateFieldLength(gateway string, field ConfigField, value string) error {
	if field.MinLength > 0 && len(value) < field.MinLength {
		return fmt.Errorf("%s: field '%s' must be at least %d characters", gateway, field.Key, field.MinLength)
	}

	if field.MaxLength > 0 && len(value) > field.MaxLength {
		return fmt.Errorf("%s: field '%s' must not exceed %d characters", gateway, field.Key, field.MaxLength)
	}

	return nil
}
