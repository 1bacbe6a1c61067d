package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateConfigFields(t *testing.T) {
	fields := []ConfigField{
		{Key: "merchantId", Required: true, Type: "string", Pattern: `^[0-9]+$`},
		{Key: "secret", Required: true, Type: "string", MinLength: 8, MaxLength: 64},
		{Key: "baseURL", Required: false, Type: "url"},
		{Key: "testCalls", Required: false, Type: "boolean"},
		{Key: "proxyPort", Required: false, Type: "number"},
	}

	tests := []struct {
		name     string
		config   map[string]string
		errorMsg string
	}{
		{
			name:   "valid minimal",
			config: map[string]string{"merchantId": "123456", "secret": "gx4q8OV3TJt6noJnfhjqJKyX3Z6Ych0y"},
		},
		{
			name: "valid full",
			config: map[string]string{
				"merchantId": "123456", "secret": "gx4q8OV3TJt6noJnfhjqJKyX3Z6Ych0y",
				"baseURL": "https://payments.comgate.cz/v1.0", "testCalls": "true", "proxyPort": "3128",
			},
		},
		{
			name:     "missing merchant",
			config:   map[string]string{"secret": "gx4q8OV3TJt6noJnfhjqJKyX3Z6Ych0y"},
			errorMsg: "comgate: required field 'merchantId' is missing",
		},
		{
			name:     "blank secret",
			config:   map[string]string{"merchantId": "123456", "secret": "  "},
			errorMsg: "comgate: required field 'secret' cannot be empty",
		},
		{
			name:     "pattern mismatch",
			config:   map[string]string{"merchantId": "abc", "secret": "gx4q8OV3TJt6noJnfhjqJKyX3Z6Ych0y"},
			errorMsg: "comgate: field 'merchantId' does not match required pattern",
		},
		{
			name:     "secret too short",
			config:   map[string]string{"merchantId": "123456", "secret": "short"},
			errorMsg: "comgate: field 'secret' must be at least 8 characters",
		},
		{
			name:     "bad url",
			config:   map[string]string{"merchantId": "123456", "secret": "gx4q8OV3TJt6noJnfhjqJKyX3Z6Ych0y", "baseURL": "payments"},
			errorMsg: "comgate: field 'baseURL' must be an absolute URL",
		},
		{
			name:     "bad boolean",
			config:   map[string]string{"merchantId": "123456", "secret": "gx4q8OV3TJt6noJnfhjqJKyX3Z6Ych0y", "testCalls": "yes"},
			errorMsg: "comgate: field 'testCalls' must be 'true' or 'false'",
		},
		{
			name:     "bad number",
			config:   map[string]string{"merchantId": "123456", "secret": "gx4q8OV3TJt6noJnfhjqJKyX3Z6Ych0y", "proxyPort": "x"},
			errorMsg: "comgate: field 'proxyPort' must be a number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfigFields("comgate", tt.config, fields)
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.errorMsg)
		})
	}
}
