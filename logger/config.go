package logger

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `mapstructure:"level"`

	// Format selects the output format: "json" or "console".
	Format string `mapstructure:"format"`

	// Output selects the destination: "stdout" or "stderr".
	Output string `mapstructure:"output"`

	// NoColor disables ANSI colors in console output.
	NoColor bool `mapstructure:"no_color"`

	// Timestamp enables the timestamp field.
	Timestamp bool `mapstructure:"timestamp"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}
