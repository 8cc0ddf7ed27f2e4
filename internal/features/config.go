package features

import "fmt"

// Config parameterizes window aggregation.
type Config struct {
	// WindowDays lists the trailing window lengths to maintain, in days.
	WindowDays []int `toml:"window_days"`
	// MinRecords is the minimum scored-record count a user needs inside a
	// window for a vector to be produced.
	MinRecords int `toml:"min_records"`
}

// Finalize applies defaults and validation.
func (c *Config) Finalize() error {
	if len(c.WindowDays) == 0 {
		c.WindowDays = []int{7, 30}
	}
	if c.MinRecords == 0 {
		c.MinRecords = 3
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if len(overlay.WindowDays) > 0 {
		c.WindowDays = overlay.WindowDays
	}
	if overlay.MinRecords != 0 {
		c.MinRecords = overlay.MinRecords
	}
}

func (c *Config) validate() error {
	for _, d := range c.WindowDays {
		if d <= 0 {
			return fmt.Errorf("window_days entries must be positive, got %d", d)
		}
	}
	if c.MinRecords < 1 {
		return fmt.Errorf("min_records must be at least 1")
	}
	return nil
}
