package vm

import (
	"os"

	toml "github.com/pelletier/go-toml"
)

// FileConfig mirrors Config's fields in a form suitable for a TOML config
// file, the way a host CLI would ship a `rvm.toml` next to its binary.
type FileConfig struct {
	RecursionLimit int  `toml:"recursion_limit"`
	Debug          bool `toml:"debug"`
}

// LoadConfig reads a TOML config file and converts it to a Config,
// falling back to DefaultConfig for any field the file omits.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var fc FileConfig
	fc.RecursionLimit = cfg.RecursionLimit
	fc.Debug = cfg.Debug
	if err := toml.Unmarshal(data, &fc); err != nil {
		return Config{}, err
	}

	return Config{RecursionLimit: fc.RecursionLimit, Debug: fc.Debug}, nil
}
