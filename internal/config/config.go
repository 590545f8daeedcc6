package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/roadshape-mcp/internal/detection"
	"github.com/ironsheep/roadshape-mcp/internal/imaging"
	"github.com/ironsheep/roadshape-mcp/internal/ocr"
)

// Text detector names accepted by detection.text_detector.
const (
	TextDetectorNone      = "none"
	TextDetectorTesseract = "tesseract"
	TextDetectorHeuristic = "heuristic"
)

// Config is the full roadshape-mcp configuration.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	Detection DetectionConfig `mapstructure:"detection" yaml:"detection"`
	Mask      MaskConfig      `mapstructure:"mask" yaml:"mask"`
	OCR       OCRConfig       `mapstructure:"ocr" yaml:"ocr"`
}

// DetectionConfig holds the road shape filters.
type DetectionConfig struct {
	MinArea       float64 `mapstructure:"min_area" yaml:"min_area"`
	MaxArea       float64 `mapstructure:"max_area" yaml:"max_area"`
	MinBoxSide    int     `mapstructure:"min_box_side" yaml:"min_box_side"`
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
	MaxShapes     int     `mapstructure:"max_shapes" yaml:"max_shapes"`
	Thumbnails    bool    `mapstructure:"thumbnails" yaml:"thumbnails"`
	ThumbnailSize int     `mapstructure:"thumbnail_size" yaml:"thumbnail_size"`

	// TextDetector picks how map labels are masked: none, tesseract or
	// heuristic.
	TextDetector string `mapstructure:"text_detector" yaml:"text_detector"`
}

// MaskConfig mirrors imaging.MaskOptions.
type MaskConfig struct {
	BlurRadius    float64 `mapstructure:"blur_radius" yaml:"blur_radius"`
	GaussianBlock int     `mapstructure:"gaussian_block" yaml:"gaussian_block"`
	GaussianC     float64 `mapstructure:"gaussian_c" yaml:"gaussian_c"`
	MeanBlock     int     `mapstructure:"mean_block" yaml:"mean_block"`
	MeanC         float64 `mapstructure:"mean_c" yaml:"mean_c"`
	CloseRadius   float64 `mapstructure:"close_radius" yaml:"close_radius"`
	OpenRadius    float64 `mapstructure:"open_radius" yaml:"open_radius"`
	DilateRadius  float64 `mapstructure:"dilate_radius" yaml:"dilate_radius"`
}

// OCRConfig configures the Tesseract label detector.
type OCRConfig struct {
	Language       string  `mapstructure:"language" yaml:"language"`
	TessdataPrefix string  `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix"`
	MinConfidence  float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	mask := imaging.DefaultMaskOptions()
	return &Config{
		LogLevel: "info",
		Detection: DetectionConfig{
			MinArea:       detection.DefaultMinArea,
			MaxArea:       detection.DefaultMaxArea,
			MinBoxSide:    detection.DefaultMinBoxSide,
			MinConfidence: detection.DefaultMinConfidence,
			MaxShapes:     0,
			Thumbnails:    true,
			ThumbnailSize: imaging.DefaultThumbnailSize,
			TextDetector:  TextDetectorTesseract,
		},
		Mask: MaskConfig{
			BlurRadius:    mask.BlurRadius,
			GaussianBlock: mask.GaussianBlock,
			GaussianC:     mask.GaussianC,
			MeanBlock:     mask.MeanBlock,
			MeanC:         mask.MeanC,
			CloseRadius:   mask.CloseRadius,
			OpenRadius:    mask.OpenRadius,
			DilateRadius:  mask.DilateRadius,
		},
		OCR: OCRConfig{
			Language:      ocr.DefaultLanguage,
			MinConfidence: 0.3,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Detection.TextDetector {
	case TextDetectorNone, TextDetectorTesseract, TextDetectorHeuristic:
	default:
		return fmt.Errorf("detection.text_detector: unknown detector %q (want none, tesseract or heuristic)", c.Detection.TextDetector)
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 1 {
		return fmt.Errorf("ocr.min_confidence: %v outside [0, 1]", c.OCR.MinConfidence)
	}
	if c.Mask.GaussianBlock < 3 || c.Mask.GaussianBlock%2 == 0 {
		return fmt.Errorf("mask.gaussian_block: %d must be odd and at least 3", c.Mask.GaussianBlock)
	}
	if c.Mask.MeanBlock < 3 || c.Mask.MeanBlock%2 == 0 {
		return fmt.Errorf("mask.mean_block: %d must be odd and at least 3", c.Mask.MeanBlock)
	}
	if c.Mask.BlurRadius < 0 || c.Mask.CloseRadius < 0 || c.Mask.OpenRadius < 0 || c.Mask.DilateRadius < 0 {
		return errors.New("mask: radii must not be negative")
	}
	if err := c.detectionOptions().Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	return nil
}

// ParseLogLevel converts a level name to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// MaskOptions converts the mask section.
func (c *Config) MaskOptions() imaging.MaskOptions {
	return imaging.MaskOptions{
		BlurRadius:    c.Mask.BlurRadius,
		GaussianBlock: c.Mask.GaussianBlock,
		GaussianC:     c.Mask.GaussianC,
		MeanBlock:     c.Mask.MeanBlock,
		MeanC:         c.Mask.MeanC,
		CloseRadius:   c.Mask.CloseRadius,
		OpenRadius:    c.Mask.OpenRadius,
		DilateRadius:  c.Mask.DilateRadius,
	}
}

// OCRDetector returns the Tesseract detector described by the ocr section.
func (c *Config) OCRDetector() *ocr.Detector {
	d := ocr.NewDetector(c.OCR.Language, c.OCR.MinConfidence)
	d.TessdataPrefix = c.OCR.TessdataPrefix
	return d
}

func (c *Config) detectionOptions() detection.Options {
	return detection.Options{
		MinArea:       c.Detection.MinArea,
		MaxArea:       c.Detection.MaxArea,
		MinBoxSide:    c.Detection.MinBoxSide,
		MinConfidence: c.Detection.MinConfidence,
		MaxShapes:     c.Detection.MaxShapes,
		Thumbnails:    c.Detection.Thumbnails,
		ThumbnailSize: c.Detection.ThumbnailSize,
		Mask:          c.MaskOptions(),
	}
}

// DetectionOptions builds detection.Options with the configured label
// detector and logger.
func (c *Config) DetectionOptions(logger *slog.Logger) detection.Options {
	opts := c.detectionOptions()
	opts.Logger = logger

	switch c.Detection.TextDetector {
	case TextDetectorTesseract:
		opts.TextDetector = c.OCRDetector()
	case TextDetectorHeuristic:
		opts.TextDetector = detection.HeuristicLabelDetector{MinConfidence: c.OCR.MinConfidence}
	}
	return opts
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
//
// An empty cfgFile searches ./roadshape.yaml and ~/.roadshape/roadshape.yaml;
// a missing file is not an error. Every key can be overridden from the
// environment with the ROADSHAPE_ prefix, e.g. ROADSHAPE_DETECTION_MIN_AREA.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v
	setDefaults(v, DefaultConfig())

	// Environment variables with ROADSHAPE_ prefix
	v.SetEnvPrefix("ROADSHAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("roadshape")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.roadshape")
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// setDefaults registers every leaf key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("detection.min_area", d.Detection.MinArea)
	v.SetDefault("detection.max_area", d.Detection.MaxArea)
	v.SetDefault("detection.min_box_side", d.Detection.MinBoxSide)
	v.SetDefault("detection.min_confidence", d.Detection.MinConfidence)
	v.SetDefault("detection.max_shapes", d.Detection.MaxShapes)
	v.SetDefault("detection.thumbnails", d.Detection.Thumbnails)
	v.SetDefault("detection.thumbnail_size", d.Detection.ThumbnailSize)
	v.SetDefault("detection.text_detector", d.Detection.TextDetector)

	v.SetDefault("mask.blur_radius", d.Mask.BlurRadius)
	v.SetDefault("mask.gaussian_block", d.Mask.GaussianBlock)
	v.SetDefault("mask.gaussian_c", d.Mask.GaussianC)
	v.SetDefault("mask.mean_block", d.Mask.MeanBlock)
	v.SetDefault("mask.mean_c", d.Mask.MeanC)
	v.SetDefault("mask.close_radius", d.Mask.CloseRadius)
	v.SetDefault("mask.open_radius", d.Mask.OpenRadius)
	v.SetDefault("mask.dilate_radius", d.Mask.DilateRadius)

	v.SetDefault("ocr.language", d.OCR.Language)
	v.SetDefault("ocr.tessdata_prefix", d.OCR.TessdataPrefix)
	v.SetDefault("ocr.min_confidence", d.OCR.MinConfidence)
}

// load parses the current viper state into a validated Config.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// ConfigFile returns the file the configuration was read from, or "" when
// only defaults and the environment are in use.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. An edit that fails
// to parse or validate is ignored and the previous configuration stays.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// WriteDefault writes the default configuration to the specified path.
// An existing file is left alone unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# roadshape-mcp configuration
# Every key can be overridden from the environment with the ROADSHAPE_ prefix,
# e.g. ROADSHAPE_DETECTION_MIN_AREA=1200 or ROADSHAPE_LOG_LEVEL=debug.
# detection.text_detector: none, tesseract or heuristic

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
