// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Postgres, Kafka, Redis, Indexer, Search, etc.).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Search   SearchConfig   `yaml:"search"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	IndexComplete string `yaml:"indexComplete"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// IndexerConfig controls how the corpus is read, tokenized, weighted and
// persisted.
type IndexerConfig struct {
	DataDir      string `yaml:"dataDir"`
	SnapshotName string `yaml:"snapshotName"`
	IDF          string `yaml:"idf"`
	Workers      int    `yaml:"workers"`
	NGram        int    `yaml:"ngram"`
	Clean        bool   `yaml:"clean"`
	Stem         bool   `yaml:"stem"`
	CorpusSource string `yaml:"corpusSource"`
	CorpusPath   string `yaml:"corpusPath"`
	CorpusTable  string `yaml:"corpusTable"`
}

// SnapshotPath returns the location of the index snapshot.
func (c IndexerConfig) SnapshotPath() string {
	return filepath.Join(c.DataDir, c.SnapshotName)
}

// SearchConfig controls query ranking and result limits.
type SearchConfig struct {
	DefaultMode    string        `yaml:"defaultMode"`
	DefaultLimit   int           `yaml:"defaultLimit"`
	MaxResults     int           `yaml:"maxResults"`
	EuclideanTFIDF bool          `yaml:"euclideanTFIDF"`
	QueryTimeout   time.Duration `yaml:"queryTimeout"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig returns a Config with production-ready defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "vectorsearch",
			User:            "vectorsearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "vectorsearch-searcher",
			Topics: KafkaTopics{
				IndexComplete: "index.complete",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Indexer: IndexerConfig{
			DataDir:      "./data",
			SnapshotName: "index.vss",
			IDF:          "smoothing",
			Workers:      0,
			NGram:        0,
			Clean:        false,
			Stem:         false,
			CorpusSource: "file",
			CorpusPath:   "./corpus.jsonl",
			CorpusTable:  "documents",
		},
		Search: SearchConfig{
			DefaultMode:    "cosine",
			DefaultLimit:   3,
			MaxResults:     100,
			EuclideanTFIDF: false,
			QueryTimeout:   5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads SP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SP_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SP_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SP_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SP_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SP_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SP_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("SP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("SP_KAFKA_TOPIC_INDEX_COMPLETE"); v != "" {
		cfg.Kafka.Topics.IndexComplete = v
	}
	if v := os.Getenv("SP_INDEXER_DATA_DIR"); v != "" {
		cfg.Indexer.DataDir = v
	}
	if v := os.Getenv("SP_INDEXER_IDF"); v != "" {
		cfg.Indexer.IDF = v
	}
	if v := os.Getenv("SP_INDEXER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.Workers = n
		}
	}
	if v := os.Getenv("SP_INDEXER_NGRAM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.NGram = n
		}
	}
	if v := os.Getenv("SP_INDEXER_CLEAN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Indexer.Clean = b
		}
	}
	if v := os.Getenv("SP_INDEXER_CORPUS_SOURCE"); v != "" {
		cfg.Indexer.CorpusSource = v
	}
	if v := os.Getenv("SP_INDEXER_CORPUS_PATH"); v != "" {
		cfg.Indexer.CorpusPath = v
	}
	if v := os.Getenv("SP_SEARCH_DEFAULT_MODE"); v != "" {
		cfg.Search.DefaultMode = v
	}
	if v := os.Getenv("SP_SEARCH_DEFAULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.DefaultLimit = n
		}
	}
	if v := os.Getenv("SP_SEARCH_EUCLIDEAN_TFIDF"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Search.EuclideanTFIDF = b
		}
	}
}

// Validate checks values that would otherwise fail deep inside a build or a
// query.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Indexer.IDF) {
	case "", "raw", "smoothing", "probability":
	default:
		return fmt.Errorf("indexer.idf %q: must be raw, smoothing or probability", c.Indexer.IDF)
	}
	switch c.Indexer.CorpusSource {
	case "file", "postgres":
	default:
		return fmt.Errorf("indexer.corpusSource %q: must be file or postgres", c.Indexer.CorpusSource)
	}
	if c.Indexer.NGram < 0 {
		return fmt.Errorf("indexer.ngram must not be negative, got %d", c.Indexer.NGram)
	}
	switch strings.ToLower(c.Search.DefaultMode) {
	case "cosine", "euclidean":
	default:
		return fmt.Errorf("search.defaultMode %q: must be cosine or euclidean", c.Search.DefaultMode)
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxResults < c.Search.DefaultLimit {
		return fmt.Errorf("search limits: defaultLimit %d must be positive and at most maxResults %d",
			c.Search.DefaultLimit, c.Search.MaxResults)
	}
	if c.Search.QueryTimeout <= 0 {
		return fmt.Errorf("search.queryTimeout must be positive, got %s", c.Search.QueryTimeout)
	}
	return nil
}
