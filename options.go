package geomap

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Options struct {
	// SSEThreshold scales TextureReferenceSize: a tile subdivides when its
	// on-screen size exceeds TextureReferenceSize*SSEThreshold pixels.
	SSEThreshold         float64 `mapstructure:"sse_threshold"`
	TextureReferenceSize float64 `mapstructure:"texture_reference_size"`
	MinSubdivisionLevel  uint32  `mapstructure:"min_subdivision_level"`
	MaxSubdivisionLevel  uint32  `mapstructure:"max_subdivision_level"`
	// Segments is the number of grid cells per tile side.
	Segments int `mapstructure:"segments"`
	// CleanupDelay is how long retired tiles are kept around before they
	// are destroyed.
	CleanupDelay time.Duration `mapstructure:"cleanup_delay"`
	Diagonals    bool          `mapstructure:"diagonals"`
}

func DefaultOptions() Options {
	return Options{
		SSEThreshold:         1.0,
		TextureReferenceSize: 256,
		MinSubdivisionLevel:  0,
		MaxSubdivisionLevel:  30,
		Segments:             8,
		CleanupDelay:         time.Second,
		Diagonals:            true,
	}
}

func (o Options) validate() error {
	switch {
	case o.SSEThreshold <= 0:
		return fmt.Errorf("sse_threshold must be positive, got %g", o.SSEThreshold)
	case o.TextureReferenceSize <= 0:
		return fmt.Errorf("texture_reference_size must be positive, got %g", o.TextureReferenceSize)
	case o.MinSubdivisionLevel > o.MaxSubdivisionLevel:
		return fmt.Errorf("min_subdivision_level %d above max_subdivision_level %d", o.MinSubdivisionLevel, o.MaxSubdivisionLevel)
	case o.Segments < 1:
		return fmt.Errorf("segments must be at least 1, got %d", o.Segments)
	case o.CleanupDelay < 0:
		return fmt.Errorf("cleanup_delay must not be negative, got %s", o.CleanupDelay)
	}
	return nil
}

// LoadOptions reads options from a config file of any format viper
// understands, on top of DefaultOptions. GEOMAP_* environment variables
// override the file, e.g. GEOMAP_CLEANUP_DELAY=5s. An empty path reads the
// environment only.
func LoadOptions(path string) (Options, error) {
	v := viper.New()
	def := DefaultOptions()
	v.SetDefault("sse_threshold", def.SSEThreshold)
	v.SetDefault("texture_reference_size", def.TextureReferenceSize)
	v.SetDefault("min_subdivision_level", def.MinSubdivisionLevel)
	v.SetDefault("max_subdivision_level", def.MaxSubdivisionLevel)
	v.SetDefault("segments", def.Segments)
	v.SetDefault("cleanup_delay", def.CleanupDelay)
	v.SetDefault("diagonals", def.Diagonals)

	v.SetEnvPrefix("geomap")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Options{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var o Options
	if err := v.Unmarshal(&o); err != nil {
		return Options{}, fmt.Errorf("decode config: %w", err)
	}
	if err := o.validate(); err != nil {
		return Options{}, fmt.Errorf("invalid config: %w", err)
	}
	return o, nil
}
