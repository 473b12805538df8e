// Package config loads and validates the pricing engine configuration.
package config

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Embedding  EmbeddingConfig  `yaml:"embedding" mapstructure:"embedding"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Confidence ConfidenceConfig `yaml:"confidence" mapstructure:"confidence"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Tasks      TaskConfig       `yaml:"tasks" mapstructure:"tasks"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "postgres" or "sqlite"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// EmbeddingConfig configures the text embedding provider.
type EmbeddingConfig struct {
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	Key               string `yaml:"key" mapstructure:"key"`
	Model             string `yaml:"model" mapstructure:"model"`
	Dimensions        int    `yaml:"dimensions" mapstructure:"dimensions"`
	BatchSize         int    `yaml:"batch_size" mapstructure:"batch_size"`
	TimeoutSecs       int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// SearchConfig configures material ranking.
type SearchConfig struct {
	MaxResults          int     `yaml:"max_results" mapstructure:"max_results"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	OverfetchFactor     int     `yaml:"overfetch_factor" mapstructure:"overfetch_factor"`
}

// ConfidenceConfig holds the weights of the four confidence sub-scores.
// Weights must sum to 1.0.
type ConfidenceConfig struct {
	SemanticWeight float64 `yaml:"semantic_weight" mapstructure:"semantic_weight"`
	RegionalWeight float64 `yaml:"regional_weight" mapstructure:"regional_weight"`
	PriceWeight    float64 `yaml:"price_weight" mapstructure:"price_weight"`
	VendorWeight   float64 `yaml:"vendor_weight" mapstructure:"vendor_weight"`
}

// Sum returns the total of all confidence weights.
func (c ConfidenceConfig) Sum() float64 {
	return c.SemanticWeight + c.RegionalWeight + c.PriceWeight + c.VendorWeight
}

// PricingConfig holds VAT, margin and regional multipliers.
type PricingConfig struct {
	BaseMargin          float64            `yaml:"base_margin" mapstructure:"base_margin"`
	VATRenovation       float64            `yaml:"vat_renovation" mapstructure:"vat_renovation"`
	VATNewBuild         float64            `yaml:"vat_new_build" mapstructure:"vat_new_build"`
	RegionalMultipliers map[string]float64 `yaml:"regional_multipliers" mapstructure:"regional_multipliers"`
}

// CategoryConfig bundles everything the engine knows about one task category:
// the keywords that classify a transcript into it, the keywords that bind
// materials to it, and its labor/duration/confidence defaults.
type CategoryConfig struct {
	Label              string   `yaml:"label" mapstructure:"label"`
	TranscriptKeywords []string `yaml:"transcript_keywords" mapstructure:"transcript_keywords"`
	MaterialKeywords   []string `yaml:"material_keywords" mapstructure:"material_keywords"`
	LaborRate          float64  `yaml:"labor_rate" mapstructure:"labor_rate"` // EUR/hour
	BaseDurationDays   int      `yaml:"base_duration_days" mapstructure:"base_duration_days"`
	Confidence         float64  `yaml:"confidence" mapstructure:"confidence"` // per-category estimation prior
}

// TaskConfig configures transcript-to-task extraction and quantity defaults.
type TaskConfig struct {
	MaxKeywords         int                       `yaml:"max_keywords" mapstructure:"max_keywords"`
	MaterialsPerKeyword int                       `yaml:"materials_per_keyword" mapstructure:"materials_per_keyword"`
	Categories          map[string]CategoryConfig `yaml:"categories" mapstructure:"categories"`
	BaseQuantities      map[string]float64        `yaml:"base_quantities" mapstructure:"base_quantities"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PRICING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Map-valued defaults are assigned after unmarshal: viper lowercases map
	// keys, which would mangle accented region names and category labels.
	if len(cfg.Tasks.Categories) == 0 {
		cfg.Tasks.Categories = DefaultCategories()
	}
	if len(cfg.Tasks.BaseQuantities) == 0 {
		cfg.Tasks.BaseQuantities = DefaultBaseQuantities()
	}
	if len(cfg.Pricing.RegionalMultipliers) == 0 {
		cfg.Pricing.RegionalMultipliers = DefaultRegionalMultipliers()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)

	v.SetDefault("embedding.base_url", "https://api.jina.ai")
	v.SetDefault("embedding.model", "jina-embeddings-v3")
	v.SetDefault("embedding.dimensions", 768)
	v.SetDefault("embedding.batch_size", 32)
	v.SetDefault("embedding.timeout_secs", 10)
	v.SetDefault("embedding.requests_per_minute", 100)

	v.SetDefault("search.max_results", 20)
	v.SetDefault("search.similarity_threshold", 0.7)
	v.SetDefault("search.overfetch_factor", 3)

	v.SetDefault("confidence.semantic_weight", 0.40)
	v.SetDefault("confidence.regional_weight", 0.25)
	v.SetDefault("confidence.price_weight", 0.20)
	v.SetDefault("confidence.vendor_weight", 0.15)

	v.SetDefault("pricing.base_margin", 0.25)
	v.SetDefault("pricing.vat_renovation", 0.10)
	v.SetDefault("pricing.vat_new_build", 0.20)

	v.SetDefault("tasks.max_keywords", 10)
	v.SetDefault("tasks.materials_per_keyword", 3)

	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks internal consistency. Weight-sum violations are rejected at
// load time so a bad deployment fails before serving a single score.
func (c *Config) Validate() error {
	var errs []string

	if math.Abs(c.Confidence.Sum()-1.0) > 1e-6 {
		errs = append(errs, "confidence weights must sum to 1.0")
	}
	for _, w := range []float64{
		c.Confidence.SemanticWeight, c.Confidence.RegionalWeight,
		c.Confidence.PriceWeight, c.Confidence.VendorWeight,
	} {
		if w < 0 {
			errs = append(errs, "confidence weights must be >= 0")
			break
		}
	}

	if c.Pricing.BaseMargin < 0 {
		errs = append(errs, "base_margin must be >= 0")
	}
	if c.Pricing.VATRenovation < 0 || c.Pricing.VATRenovation > 1 {
		errs = append(errs, "vat_renovation must be between 0 and 1")
	}
	if c.Pricing.VATNewBuild < 0 || c.Pricing.VATNewBuild > 1 {
		errs = append(errs, "vat_new_build must be between 0 and 1")
	}

	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, "embedding dimensions must be > 0")
	}
	if c.Search.OverfetchFactor < 1 {
		errs = append(errs, "search overfetch_factor must be >= 1")
	}

	for name, cat := range c.Tasks.Categories {
		if cat.LaborRate < 0 {
			errs = append(errs, "labor_rate must be >= 0 for category "+name)
		}
		if cat.Confidence < 0 || cat.Confidence > 1 {
			errs = append(errs, "confidence must be between 0 and 1 for category "+name)
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
