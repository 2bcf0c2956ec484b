//nolint:goconst // test cases intentionally repeat strings for readability
package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpQueueAdd,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpQueueAdd,
			err:      errors.New("connection refused"),
			expected: "Failed to add tracks to queue: connection refused",
		},
		{
			name:     "retry operation",
			op:       OpQueueRetry,
			err:      errors.New("not found"),
			expected: "Failed to retry download: not found",
		},
		{
			name:     "settings operation",
			op:       OpSettingsSave,
			err:      errors.New("conflict"),
			expected: "Failed to save settings: conflict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpQueueRemove,
			context:  "Autobahn",
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with context",
			op:       OpQueueRemove,
			context:  "Autobahn",
			err:      errors.New("not queued"),
			expected: "Failed to remove track from queue 'Autobahn': not queued",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpQueueRemove,
			context:  "",
			err:      errors.New("not queued"),
			expected: "Failed to remove track from queue: not queued",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}

func TestOpConstants(t *testing.T) {
	// Verify that Op constants are non-empty and produce valid messages
	ops := []Op{
		OpQueueAdd, OpQueueRemove, OpQueueClear, OpQueueClearCompleted,
		OpQueueClearFailed, OpQueueRetry, OpQueueRetryAll, OpQueueRefresh,
		OpQueueLoadMore,
		OpProcessingStart, OpProcessingStop,
		OpSettingsLoad, OpSettingsSave,
		OpCacheLoad, OpCacheSave,
		OpInitialize,
	}

	testErr := errors.New("test error")

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			if op == "" {
				t.Error("Op constant should not be empty")
			}

			expected := "Failed to " + string(op) + ": test error"
			if result := Format(op, testErr); result != expected {
				t.Errorf("Format = %q, want %q", result, expected)
			}
		})
	}
}
