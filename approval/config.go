package approval

// Config selects the tool argument subject to the ambiguity check.
type Config struct {
	Tool     string `json:"tool" yaml:"tool"`
	Argument string `json:"argument" yaml:"argument"`

	// EnabledNil defaults to true when nil. Read it through Enabled.
	EnabledNil *bool `json:"enabled" yaml:"enabled"`
}

func (c *Config) Enabled() bool {
	if c.EnabledNil == nil {
		return true
	}
	return *c.EnabledNil
}

// DefaultConfig checks the location of weather lookups.
func DefaultConfig() Config {
	enabled := true
	return Config{
		Tool:       "get_weather",
		Argument:   "location",
		EnabledNil: &enabled,
	}
}

func (c *Config) Merge(source *Config) {
	if source.Tool != "" {
		c.Tool = source.Tool
	}
	if source.Argument != "" {
		c.Argument = source.Argument
	}
	if source.EnabledNil != nil {
		c.EnabledNil = source.EnabledNil
	}
}
