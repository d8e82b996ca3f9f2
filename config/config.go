package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the scanner service.
type Config struct {
	Server   ServerConfig
	Catalog  CatalogConfig
	Capture  CaptureConfig
	OCR      OCRConfig
	Template TemplateConfig
	Match    MatchConfig
	Price    PriceConfig
	Hover    HoverConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig locates the persisted item catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// CaptureConfig holds the fixed ROI geometry for each capture purpose.
// Offsets and fractions are empirical constants tuned for one game layout.
type CaptureConfig struct {
	// Tooltip appears top-right of the cursor.
	TooltipOffsetX int `mapstructure:"tooltip_offset_x"`
	TooltipOffsetY int `mapstructure:"tooltip_offset_y"`
	TooltipWidth   int `mapstructure:"tooltip_width"`
	TooltipHeight  int `mapstructure:"tooltip_height"`

	// Name label is centered on the cursor.
	LabelWidth  int `mapstructure:"label_width"`
	LabelHeight int `mapstructure:"label_height"`

	// Icon scan captures a square around the cursor.
	IconSize int `mapstructure:"icon_size"`

	// Gear zone as fractions of the screen.
	GearLeftPct   float64 `mapstructure:"gear_left_pct"`
	GearTopPct    float64 `mapstructure:"gear_top_pct"`
	GearWidthPct  float64 `mapstructure:"gear_width_pct"`
	GearHeightPct float64 `mapstructure:"gear_height_pct"`

	// DebugDir, when set, receives captured region dumps.
	DebugDir string `mapstructure:"debug_dir"`
}

// OCRConfig holds text-extraction settings.
type OCRConfig struct {
	Language  string  `mapstructure:"language"`
	Whitelist string  `mapstructure:"whitelist"`
	Upscale   float64 `mapstructure:"upscale"`
	Invert    bool    `mapstructure:"invert"`
	TessData  string  `mapstructure:"tessdata"`
}

// TemplateConfig holds template-correlation settings.
type TemplateConfig struct {
	Dir                 string    `mapstructure:"dir"`
	Scales              []float64 `mapstructure:"scales"`
	ScanThreshold       float64   `mapstructure:"scan_threshold"`
	PointThreshold      float64   `mapstructure:"point_threshold"`
	EarlyExitConfidence float64   `mapstructure:"early_exit_confidence"`
	MaxScreenDimension  int       `mapstructure:"max_screen_dimension"`
	DedupeIoU           float64   `mapstructure:"dedupe_iou"`
}

// MatchConfig holds fuzzy-matching settings. The single and zone cutoffs
// are deliberately separate knobs: a zone scan evaluates many candidate
// tokens per frame and needs the stricter one.
type MatchConfig struct {
	SingleCutoff int  `mapstructure:"single_cutoff"`
	ZoneCutoff   int  `mapstructure:"zone_cutoff"`
	Debug        bool `mapstructure:"debug"`
}

// PriceConfig holds price-resolution settings.
type PriceConfig struct {
	SheetURL        string        `mapstructure:"sheet_url"`
	SheetTTL        time.Duration `mapstructure:"sheet_ttl"`
	APIURL          string        `mapstructure:"api_url"`
	APITTL          time.Duration `mapstructure:"api_ttl"`
	APITimeout      time.Duration `mapstructure:"api_timeout"`
	SnapshotTTL     time.Duration `mapstructure:"snapshot_ttl"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// HoverConfig holds dwell-detection settings.
type HoverConfig struct {
	DwellThreshold time.Duration `mapstructure:"dwell_threshold"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	ScanCooldown   time.Duration `mapstructure:"scan_cooldown"`
	GridSize       int           `mapstructure:"grid_size"`
	MoveTolerance  int           `mapstructure:"move_tolerance"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/tarkovlens/")

	v.SetEnvPrefix("SCANNER")
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8765")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("catalog.path", "shortnames.json")

	// Tooltip starts ~10px right and ~27px above the cursor.
	v.SetDefault("capture.tooltip_offset_x", 10)
	v.SetDefault("capture.tooltip_offset_y", -27)
	v.SetDefault("capture.tooltip_width", 200)
	v.SetDefault("capture.tooltip_height", 20)
	v.SetDefault("capture.label_width", 70)
	v.SetDefault("capture.label_height", 30)
	v.SetDefault("capture.icon_size", 200)
	v.SetDefault("capture.gear_left_pct", 0.32)
	v.SetDefault("capture.gear_top_pct", 0.10)
	v.SetDefault("capture.gear_width_pct", 0.33)
	v.SetDefault("capture.gear_height_pct", 0.75)
	v.SetDefault("capture.debug_dir", "")

	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.whitelist",
		"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-() ")
	v.SetDefault("ocr.upscale", 3.0)
	v.SetDefault("ocr.invert", true)

	v.SetDefault("template.dir", "assets/item-icons")
	v.SetDefault("template.scales", []float64{0.7, 0.85, 0.95, 1.0, 1.05, 1.2, 1.5})
	v.SetDefault("template.scan_threshold", 0.80)
	v.SetDefault("template.point_threshold", 0.70)
	v.SetDefault("template.early_exit_confidence", 0.90)
	v.SetDefault("template.max_screen_dimension", 1920)
	v.SetDefault("template.dedupe_iou", 0.5)

	v.SetDefault("match.single_cutoff", 75)
	v.SetDefault("match.zone_cutoff", 82)
	v.SetDefault("match.debug", false)

	v.SetDefault("price.sheet_url", "")
	v.SetDefault("price.sheet_ttl", "1h")
	v.SetDefault("price.api_url", "https://api.tarkov.dev/graphql")
	v.SetDefault("price.api_ttl", "5m")
	v.SetDefault("price.api_timeout", "5s")
	v.SetDefault("price.snapshot_ttl", "10m")
	v.SetDefault("price.refresh_interval", "10m")

	v.SetDefault("hover.dwell_threshold", "2s")
	v.SetDefault("hover.poll_interval", "100ms")
	v.SetDefault("hover.scan_cooldown", "500ms")
	v.SetDefault("hover.grid_size", 50)
	v.SetDefault("hover.move_tolerance", 5)
}

// validate validates the configuration.
func validate(config *Config) error {
	if config.Catalog.Path == "" {
		return fmt.Errorf("catalog path is required (set SCANNER_CATALOG_PATH)")
	}
	if config.Match.SingleCutoff <= 0 || config.Match.SingleCutoff > 100 {
		return fmt.Errorf("match single cutoff must be in (0,100], got: %d", config.Match.SingleCutoff)
	}
	if config.Match.ZoneCutoff <= 0 || config.Match.ZoneCutoff > 100 {
		return fmt.Errorf("match zone cutoff must be in (0,100], got: %d", config.Match.ZoneCutoff)
	}
	if config.Template.ScanThreshold <= 0 || config.Template.ScanThreshold > 1 {
		return fmt.Errorf("template scan threshold must be in (0,1], got: %v", config.Template.ScanThreshold)
	}
	if config.Template.DedupeIoU <= 0 || config.Template.DedupeIoU >= 1 {
		return fmt.Errorf("dedupe IoU must be in (0,1), got: %v", config.Template.DedupeIoU)
	}
	if config.Hover.DwellThreshold <= 0 {
		return fmt.Errorf("hover dwell threshold must be positive")
	}
	if len(config.Template.Scales) == 0 {
		return fmt.Errorf("template scales must not be empty")
	}
	return nil
}
