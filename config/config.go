package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Auth       AuthConfig       `yaml:"auth"`
	Groq       GroqConfig       `yaml:"groq"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Astra      AstraConfig      `yaml:"astra"`
	Minio      MinioConfig      `yaml:"minio"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Policy     PolicyConfig     `yaml:"policy"`
	Regulatory RegulatoryConfig `yaml:"regulatory"`
	Watch      WatchConfig      `yaml:"watch"`
	Users      []User           `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type GroqConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

type EmbeddingsConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type AstraConfig struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
	Region     string `yaml:"region"`
	Endpoint   string `yaml:"endpoint"`
	Keyspace   string `yaml:"keyspace"`
	Records    string `yaml:"records_collection"`
	Chunks     string `yaml:"chunks_collection"`
	Dimension  int    `yaml:"dimension"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Sender   string `yaml:"sender"`
	Password string `yaml:"password"`
}

type PolicyConfig struct {
	RiskThreshold      int `yaml:"risk_threshold"`
	SuggestThreshold   int `yaml:"suggest_threshold"`
	AutoApplyThreshold int `yaml:"auto_apply_threshold"`
}

type RegulatoryConfig struct {
	DBFile string `yaml:"db_file"`
}

type WatchConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Dir        string `yaml:"dir"`
	Tenant     string `yaml:"tenant"`
	OwnerEmail string `yaml:"owner_email"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Tenant   string `yaml:"tenant"`
}

func Load(path string) (*Config, error) {
	var cfg Config

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// applyEnv overlays secrets from the environment. Env always wins over
// the file so deployments never have to write credentials to disk.
func (c *Config) applyEnv() {
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		c.Groq.APIKey = v
	}
	if v := os.Getenv("ASTRA_DB_APPLICATION_TOKEN"); v != "" {
		c.Astra.Token = v
	}
	if v := os.Getenv("ASTRA_DB_ID"); v != "" {
		c.Astra.DatabaseID = v
	}
	if v := os.Getenv("ASTRA_DB_REGION"); v != "" {
		c.Astra.Region = v
	}
	if v := os.Getenv("ASTRA_DB_API_ENDPOINT"); v != "" {
		c.Astra.Endpoint = v
	}
	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		c.SMTP.Sender = v
	}
	if v := os.Getenv("SENDER_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.Embeddings.APIKey == "" {
		c.Embeddings.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.Groq.BaseURL == "" {
		c.Groq.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Groq.Model == "" {
		c.Groq.Model = "llama-3.3-70b-versatile"
	}
	if c.Embeddings.BaseURL == "" {
		c.Embeddings.BaseURL = "https://api.openai.com/v1"
	}
	if c.Embeddings.Model == "" {
		c.Embeddings.Model = "text-embedding-3-small"
	}
	if c.Astra.Endpoint == "" && c.Astra.DatabaseID != "" {
		region := c.Astra.Region
		if region == "" {
			region = "us-east1"
		}
		c.Astra.Endpoint = fmt.Sprintf("https://%s-%s.apps.astra.datastax.com", c.Astra.DatabaseID, region)
	}
	if c.Astra.Keyspace == "" {
		c.Astra.Keyspace = "default_keyspace"
	}
	if c.Astra.Records == "" {
		c.Astra.Records = "contracts"
	}
	if c.Astra.Chunks == "" {
		c.Astra.Chunks = "contract_chunks"
	}
	if c.Astra.Dimension == 0 {
		c.Astra.Dimension = 1536
	}
	if c.Minio.ExpireDays == 0 {
		c.Minio.ExpireDays = 7
	}
	if c.SMTP.Host == "" {
		c.SMTP.Host = "smtp.gmail.com"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Policy.RiskThreshold == 0 {
		c.Policy.RiskThreshold = 70
	}
	if c.Policy.SuggestThreshold == 0 {
		c.Policy.SuggestThreshold = 40
	}
	if c.Policy.AutoApplyThreshold == 0 {
		c.Policy.AutoApplyThreshold = 90
	}
	if c.Regulatory.DBFile == "" {
		c.Regulatory.DBFile = "regulations.yaml"
	}
	if c.Watch.Dir == "" {
		c.Watch.Dir = "contracts"
	}
	if c.Watch.Tenant == "" {
		c.Watch.Tenant = "default"
	}
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
