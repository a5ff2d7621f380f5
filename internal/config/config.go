package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic information about the running application.
type AppInfo struct {
	Name        string `yaml:"name"`        // application name
	Version     string `yaml:"version"`     // application version
	Environment string `yaml:"environment"` // "development" or "production"
}

// LoggerConfig controls the log level ("debug", "info", "warn", "error").
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// HTTPConfig holds the HTTP listener settings.
type HTTPConfig struct {
	Port int `yaml:"port"` // listening port, e.g. 8080
}

// AuthConfig holds the settings used to validate bearer tokens issued by
// the external identity provider.
type AuthConfig struct {
	JwtSecret string `yaml:"jwtSecret"` // HMAC secret shared with the identity provider
}

// MySQLConfig holds the metadata database connection settings.
type MySQLConfig struct {
	Address         string `yaml:"address"`         // host:port
	Username        string `yaml:"username"`        // user name
	Password        string `yaml:"password"`        // password
	Database        string `yaml:"database"`        // database name
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // max open connections
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // max idle connections
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // connection lifetime in seconds
}

// MilvusConfig holds the vector index connection settings.
type MilvusConfig struct {
	Address    string `yaml:"address"`    // Milvus endpoint, e.g. "localhost:19530"
	EmbedDim   int    `yaml:"embedDim"`   // embedding dimension, fixed by the embed model
	IndexNlist int    `yaml:"indexNlist"` // IVF_FLAT nlist parameter
}

// MinIOConfig holds the blob store connection settings.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`  // MinIO endpoint
	AccessKey string `yaml:"accessKey"` // access key
	SecretKey string `yaml:"secretKey"` // secret key
	Bucket    string `yaml:"bucket"`    // bucket holding uploaded documents
	Secure    bool   `yaml:"secure"`    // use HTTPS
}

// RedisConfig holds the optional answer cache settings. Leaving the address
// empty disables caching.
type RedisConfig struct {
	Address  string `yaml:"address"`  // host:port, empty to disable
	Password string `yaml:"password"` // password
	DB       int    `yaml:"db"`       // database number
	TTL      int    `yaml:"ttl"`      // cache entry lifetime in seconds
}

// DatabaseConfigs groups all external storage configuration.
type DatabaseConfigs struct {
	MySQL  MySQLConfig  `yaml:"mysql"`
	Milvus MilvusConfig `yaml:"milvus"`
	MinIO  MinIOConfig  `yaml:"minio"`
	Redis  RedisConfig  `yaml:"redis"`
}

// AIConfig selects and configures the embedding/chat provider. The same
// embed model must serve both the ingest and the query path.
type AIConfig struct {
	Provider   string `yaml:"provider"`   // "gemini", "openai" or "ollama"
	APIKey     string `yaml:"apiKey"`     // provider API key
	BaseURL    string `yaml:"baseURL"`    // service URL for self-hosted providers
	ChatModel  string `yaml:"chatModel"`  // chat completion model name
	EmbedModel string `yaml:"embedModel"` // embedding model name
}

// IngestConfig tunes the ingestion and retrieval pipeline.
//
// ChunkSize / ChunkOverlap are in characters; FetchTimeout in seconds.
type IngestConfig struct {
	ChunkSize     int `yaml:"chunkSize"`     // target chunk size (default 1000)
	ChunkOverlap  int `yaml:"chunkOverlap"`  // overlap between chunks (default 200)
	Workers       int `yaml:"workers"`       // ingestion worker goroutines
	QueueSize     int `yaml:"queueSize"`     // bounded ingestion job queue
	FetchTimeout  int `yaml:"fetchTimeout"`  // URL fetch timeout (default 20)
	TopK          int `yaml:"topK"`          // retrieved chunks per query (default 4)
	PreviewLength int `yaml:"previewLength"` // source preview length (default 300)
	MaxUploadMB   int `yaml:"maxUploadMB"`   // upload size limit in MiB (default 20)
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App       AppInfo         `yaml:"app"`
	Logger    LoggerConfig    `yaml:"logger"`
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Databases DatabaseConfigs `yaml:"databases"`
	AI        AIConfig        `yaml:"ai"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// LoadConfig reads and parses the YAML configuration file at path, then
// fills unset tuning values with their defaults.
func LoadConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Databases.Milvus.EmbedDim == 0 {
		c.Databases.Milvus.EmbedDim = 768
	}
	if c.Databases.Milvus.IndexNlist == 0 {
		c.Databases.Milvus.IndexNlist = 128
	}
	if c.Databases.Redis.TTL == 0 {
		c.Databases.Redis.TTL = 300
	}
	if c.Ingest.ChunkSize == 0 {
		c.Ingest.ChunkSize = 1000
	}
	if c.Ingest.ChunkOverlap == 0 {
		c.Ingest.ChunkOverlap = 200
	}
	if c.Ingest.Workers == 0 {
		c.Ingest.Workers = 2
	}
	if c.Ingest.QueueSize == 0 {
		c.Ingest.QueueSize = 64
	}
	if c.Ingest.FetchTimeout == 0 {
		c.Ingest.FetchTimeout = 20
	}
	if c.Ingest.TopK == 0 {
		c.Ingest.TopK = 4
	}
	if c.Ingest.PreviewLength == 0 {
		c.Ingest.PreviewLength = 300
	}
	if c.Ingest.MaxUploadMB == 0 {
		c.Ingest.MaxUploadMB = 20
	}
}
