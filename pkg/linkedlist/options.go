package linkedlist

import "log/slog"

// listConfig holds optional settings for New.
type listConfig struct {
	logger *slog.Logger
}

// Option configures a List.
type Option func(*listConfig)

// WithLogger sets the logger used to report allocation failures.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(c *listConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
