// Package config loads coffasm settings from a TOML file.
//
// A configuration file looks like:
//
//	output = "hello.obj"
//	log_level = "debug"
//	timestamp = 0
//	listing = true
package config

import (
	"math"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultOutput is the object file written when no output is configured.
const DefaultOutput = "test.obj"

// DefaultLogLevel only reports warnings and diagnostics.
const DefaultLogLevel = "warn"

// Config holds the settings shared by the command line and the config file.
type Config struct {
	// Output is the path of the object file to write.
	Output string `toml:"output"`
	// LogLevel is a logrus level name.
	LogLevel string `toml:"log_level"`
	// Timestamp is the COFF TimeDateStamp. Nil means the current time.
	Timestamp *int64 `toml:"timestamp"`
	// Listing prints a section dump after assembling.
	Listing bool `toml:"listing"`
}

// Default returns a Config with every field at its default.
func Default() *Config {
	return &Config{Output: DefaultOutput, LogLevel: DefaultLogLevel}
}

// Load reads the TOML file at path over the defaults. An empty path returns Default.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading configuration file %s", path)
	}
	if err = c.decode(string(contents)); err != nil {
		return nil, errors.Wrapf(err, "error decoding configuration file %s", path)
	}
	return c, nil
}

func (c *Config) decode(contents string) error {
	md, err := toml.Decode(contents, c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return errors.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return c.Validate()
}

// Validate checks the fields that have a restricted range.
func (c *Config) Validate() error {
	if c.Output == "" {
		return errors.New("output must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Timestamp != nil && (*c.Timestamp < 0 || *c.Timestamp > math.MaxUint32) {
		return errors.Errorf("timestamp %d out of range [0, %d]", *c.Timestamp, uint32(math.MaxUint32))
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, errors.Wrap(err, "invalid log level")
	}
	return lvl, nil
}
