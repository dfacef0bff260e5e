package daikin280

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractIPPort(t *testing.T) {
	tests := []struct {
		name         string
		deviceID     string
		expectedIP   string
		expectedPort int
	}{
		{
			name:         "IP only",
			deviceID:     "192.168.1.1",
			expectedIP:   "192.168.1.1",
			expectedPort: 0,
		},
		{
			name:         "IP with port",
			deviceID:     "192.168.1.1:8080",
			expectedIP:   "192.168.1.1",
			expectedPort: 8080,
		},
		{
			name:         "hostname",
			deviceID:     "daikin-ac",
			expectedIP:   "daikin-ac",
			expectedPort: 0,
		},
		{
			name:         "hostname with port",
			deviceID:     "daikin-ac:30050",
			expectedIP:   "daikin-ac",
			expectedPort: 30050,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ip, port := extractIPPort(tt.deviceID)
			assert.Equal(t, tt.expectedIP, ip)
			assert.Equal(t, tt.expectedPort, port)
		})
	}
}

func TestFormatMAC(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "valid MAC",
			input:    "A1B2C3D4E5F6",
			expected: "A1:B2:C3:D4:E5:F6",
		},
		{
			name:     "invalid length",
			input:    "A1B2C3D4E5",
			expected: "A1B2C3D4E5",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatMAC(tt.input))
		})
	}
}

func TestNewAdjustment(t *testing.T) {
	adjustment := newAdjustment(22.3, 22.5)
	assert.Equal(t, 22.3, adjustment.Requested)
	assert.Equal(t, 22.5, adjustment.Actual)
	assert.Equal(t, "temperature adjusted from 22.3°C to 22.5°C (nearest accepted)", adjustment.Message)
}

func TestDaikinErrors(t *testing.T) {
	err := NewDaikinError("test message", nil)
	assert.Equal(t, "daikin error: test message", err.Error())

	wrapped := NewDaikinError("inner error", nil)
	err = NewDaikinError("outer error", wrapped)
	assert.Contains(t, err.Error(), "outer error")
	assert.Contains(t, err.Error(), "inner error")

	connErr := NewConnectionError("connection failed", nil)
	assert.Contains(t, connErr.Error(), "connection failed")

	protocolErr := NewProtocolError("bad body", nil)
	assert.Contains(t, protocolErr.Error(), "bad body")

	unsupported := &UnsupportedOperationError{Op: "set temperature", Mode: ModeFanOnly}
	assert.Equal(t, "cannot set temperature in fan_only mode", unsupported.Error())
}

func TestIsRejection(t *testing.T) {
	assert.True(t, IsRejection(&RejectionError{Endpoint: endpointStatus, Code: 4000}))
	assert.False(t, IsRejection(&StatusError{Endpoint: endpointStatus, Code: 5000}))
	assert.False(t, IsRejection(NewConnectionError("down", nil)))
	assert.False(t, IsRejection(nil))
}
