// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Queue operations
	OpQueueAdd            Op = "add tracks to queue"
	OpQueueRemove         Op = "remove track from queue"
	OpQueueClear          Op = "clear queue"
	OpQueueClearCompleted Op = "clear completed downloads"
	OpQueueClearFailed    Op = "clear failed downloads"
	OpQueueRetry          Op = "retry download"
	OpQueueRetryAll       Op = "retry failed downloads"
	OpQueueRefresh        Op = "refresh queue"
	OpQueueLoadMore       Op = "load completed history"

	// Processing operations
	OpProcessingStart Op = "start queue processing"
	OpProcessingStop  Op = "stop queue processing"

	// Settings operations
	OpSettingsLoad Op = "load settings"
	OpSettingsSave Op = "save settings"

	// Cache operations
	OpCacheLoad Op = "load cached queue"
	OpCacheSave Op = "save queue cache"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
