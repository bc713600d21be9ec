package availability

import (
	"fmt"

	"github.com/spf13/viper"
)

// File is the on-disk shape of an availability override. Nearby is the
// optional nearby-city fallback table keyed by city.
type File struct {
	Platforms []Entry             `mapstructure:"platforms"`
	Nearby    map[string][]string `mapstructure:"nearby"`
}

// LoadFile reads a YAML or JSON availability file.
func LoadFile(path string) (*File, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading availability file: %w", err)
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("error unmarshaling availability file: %w", err)
	}
	if len(f.Platforms) == 0 {
		return nil, fmt.Errorf("availability file %s declares no platforms", path)
	}
	for i, e := range f.Platforms {
		if e.Platform == "" {
			return nil, fmt.Errorf("availability file %s: platforms[%d] has no platform id", path, i)
		}
		if e.Category == "" {
			return nil, fmt.Errorf("availability file %s: platform %s has no category", path, e.Platform)
		}
	}
	return &f, nil
}

// Registry builds a registry from the file's platform entries.
func (f *File) Registry() *Registry {
	return New(f.Platforms)
}
