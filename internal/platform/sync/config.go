package sync

import "time"

// Config holds configuration for the sync service
type Config struct {
	// PollInterval is how often to push pending bills and refresh the
	// confirmed set
	PollInterval time.Duration

	// RefreshLeeway is how close to its exp the access token may get
	// before a cycle refreshes it up front
	RefreshLeeway time.Duration

	// Enabled determines if background sync is enabled
	Enabled bool
}

// DefaultConfig returns the default sync configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval:  time.Minute,
		RefreshLeeway: 2 * time.Minute,
		Enabled:       true,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Minute
	}
	if c.RefreshLeeway <= 0 {
		c.RefreshLeeway = 2 * time.Minute
	}
	return nil
}
