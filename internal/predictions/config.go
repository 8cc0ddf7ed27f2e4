package predictions

import "fmt"

// BandCuts are the inclusive lower edges of the medium and high risk bands.
type BandCuts struct {
	Medium float64 `toml:"medium"`
	High   float64 `toml:"high"`
}

type Config struct {
	// MinTrainSamples is the minimum labeled sample count required before
	// training produces an artifact.
	MinTrainSamples int      `toml:"min_train_samples"`
	Bands           BandCuts `toml:"bands"`
	// TopFactors caps how many contributing factors each prediction records.
	TopFactors int `toml:"top_factors"`
}

func (c *Config) Finalize() error {
	c.loadDefaults()
	return c.validate()
}

func (c *Config) Merge(config *Config) {
	if config.MinTrainSamples > 0 {
		c.MinTrainSamples = config.MinTrainSamples
	}

	if config.Bands.Medium > 0 {
		c.Bands.Medium = config.Bands.Medium
	}

	if config.Bands.High > 0 {
		c.Bands.High = config.Bands.High
	}

	if config.TopFactors > 0 {
		c.TopFactors = config.TopFactors
	}
}

func (c *Config) loadDefaults() {
	if c.MinTrainSamples == 0 {
		c.MinTrainSamples = 10
	}

	if c.Bands.Medium == 0 {
		c.Bands.Medium = 0.4
	}

	if c.Bands.High == 0 {
		c.Bands.High = 0.7
	}

	if c.TopFactors == 0 {
		c.TopFactors = 3
	}
}

func (c *Config) validate() error {
	if c.Bands.Medium <= 0 || c.Bands.High >= 1 || c.Bands.Medium >= c.Bands.High {
		return fmt.Errorf("band cut points must satisfy 0 < medium < high < 1: %w", ErrInvalid)
	}

	return nil
}
