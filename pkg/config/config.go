package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type VectorizeConfig struct {
	BaseURL        string `yaml:"base_url"`
	AccessToken    string `yaml:"access_token"`
	OrganizationID string `yaml:"organization_id"`
	PipelineID     string `yaml:"pipeline_id"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type DatabaseConfig struct {
	URL       string `yaml:"url"`
	TableName string `yaml:"table_name"`
	VectorDim int    `yaml:"vector_dim"`
	BatchSize int    `yaml:"batch_size"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	KeyPrefix string `yaml:"key_prefix"`
}

type RetrievalConfig struct {
	Limit     int     `yaml:"limit"`
	Threshold float64 `yaml:"threshold"`
}

type ProfileConfig struct {
	ApplyThreshold  float64 `yaml:"apply_threshold"`
	PreferencesCap  int     `yaml:"preferences_cap"`
	ExpectationsCap int     `yaml:"expectations_cap"`
}

type IngestConfig struct {
	MaxDepth          int      `yaml:"max_depth"`
	RateLimit         float64  `yaml:"rate_limit"`
	IgnorePatterns    []string `yaml:"ignore_patterns"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

type MarketConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	NewsLimit int    `yaml:"news_limit"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type UIConfig struct {
	Streaming bool   `yaml:"streaming"`
	Theme     string `yaml:"theme"`
}

type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Vectorize VectorizeConfig `yaml:"vectorize"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Profile   ProfileConfig   `yaml:"profile"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Market    MarketConfig    `yaml:"market"`
	Server    ServerConfig    `yaml:"server"`
	UI        UIConfig        `yaml:"ui"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/advisor/config.yaml"),
			"/etc/advisor/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Vectorize.BaseURL == "" {
		config.Vectorize.BaseURL = "https://api.vectorize.io/v1"
	}
	if config.Vectorize.TimeoutSeconds == 0 {
		config.Vectorize.TimeoutSeconds = 5
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "documents"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}

	if config.Redis.KeyPrefix == "" {
		config.Redis.KeyPrefix = "advisor:profile:"
	}

	if config.Retrieval.Limit == 0 {
		config.Retrieval.Limit = 5
	}
	if config.Retrieval.Threshold == 0 {
		config.Retrieval.Threshold = 0.65
	}

	if config.Profile.ApplyThreshold == 0 {
		config.Profile.ApplyThreshold = 0.6
	}
	if config.Profile.PreferencesCap == 0 {
		config.Profile.PreferencesCap = 3
	}
	if config.Profile.ExpectationsCap == 0 {
		config.Profile.ExpectationsCap = 2
	}

	if config.Ingest.MaxDepth == 0 {
		config.Ingest.MaxDepth = 3
	}
	if config.Ingest.RateLimit == 0 {
		config.Ingest.RateLimit = 2.0
	}
	if len(config.Ingest.AllowedExtensions) == 0 {
		config.Ingest.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}

	if config.Market.BaseURL == "" {
		config.Market.BaseURL = "https://api.polygon.io"
	}
	if config.Market.NewsLimit == 0 {
		config.Market.NewsLimit = 3
	}

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	if len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = []string{"*"}
	}

	if config.UI.Theme == "" {
		config.UI.Theme = "default"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Redis.Addr = addr
	}
	if token := os.Getenv("VECTORIZE_ACCESS_TOKEN"); token != "" {
		config.Vectorize.AccessToken = token
	} else if token := os.Getenv("VECTORIZE_PIPELINE_ACCESS_TOKEN"); token != "" {
		config.Vectorize.AccessToken = token
	}
	if org := os.Getenv("VECTORIZE_ORG_ID"); org != "" {
		config.Vectorize.OrganizationID = org
	} else if org := os.Getenv("VECTORIZE_ORGANIZATION_ID"); org != "" {
		config.Vectorize.OrganizationID = org
	}
	if pipeline := os.Getenv("VECTORIZE_PIPELINE_ID"); pipeline != "" {
		config.Vectorize.PipelineID = pipeline
	}
	if key := os.Getenv("POLYGON_API_KEY"); key != "" {
		config.Market.APIKey = key
	}
}
