// Package config 统一配置管理
//
// 配置加载策略：
//  1. 从 .env 加载敏感信息（JWT 密钥、MinIO 凭据）和 APP_ENV
//  2. 根据 APP_ENV 加载对应的 configs/{env}.yaml 配置文件
//  3. 环境变量可覆盖 YAML 配置
//
// 凭据单一数据源：密码/密钥只存在 .env 文件中，YAML 中不存储任何密码。
//
// 使用方式：
//   - 开发环境: APP_ENV=dev (默认)
//   - 测试环境: APP_ENV=test
//   - 生产环境: APP_ENV=prod
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Redis     RedisConfig     `yaml:"redis"`
	MinIO     MinIOConfig     `yaml:"minio"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port         string `yaml:"port"`
	ClientOrigin string `yaml:"client_origin"` // SPA 的跨域来源
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Host string `yaml:"host"` // 留空禁用 Redis（限流退化为内存、通知为 NoOp）
	Port int    `yaml:"port"`
	DB   int    `yaml:"db"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"` // 留空禁用图片上传
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	AccessKey string `yaml:"-"` // 从 MINIO_ACCESS_KEY 环境变量读取
	SecretKey string `yaml:"-"` // 从 MINIO_SECRET_KEY 环境变量读取
}

type AuthConfig struct {
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// RateLimitConfig 固定窗口限流配置
type RateLimitConfig struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env           Environment
	APIPort       string
	ClientOrigin  string
	MongoURI      string
	MongoDatabase string
	RedisURL      string // 空字符串表示未配置 Redis
	JWTSecret     string
	TokenTTL      time.Duration
	RateLimit     RateLimitConfig
	MinIO         MinIOConfig
}

var configPaths = []string{
	"configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// Load 加载配置
// 1. 加载 .env（敏感信息 + APP_ENV）
// 2. 根据 APP_ENV 加载 configs/{env}.yaml
// 3. 环境变量覆盖，构建最终配置
func Load() *Config {
	// 加载 .env
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	env := parseEnv(getEnv("APP_ENV", "dev"))
	yamlCfg := loadYAMLConfig(env)

	cfg := &Config{
		Env:           env,
		APIPort:       getEnv("PORT", yamlCfg.Server.Port),
		ClientOrigin:  getEnv("CLIENT_ORIGIN", yamlCfg.Server.ClientOrigin),
		MongoURI:      getEnv("MONGO_URI", yamlCfg.Mongo.URI),
		MongoDatabase: getEnv("MONGO_DATABASE", yamlCfg.Mongo.Database),
		RedisURL:      getEnv("REDIS_URL", buildRedisURL(yamlCfg.Redis)),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenTTL:      yamlCfg.Auth.TokenTTL,
		RateLimit:     yamlCfg.RateLimit,
		MinIO:         yamlCfg.MinIO,
	}
	cfg.MinIO.AccessKey = getEnv("MINIO_ACCESS_KEY", "")
	cfg.MinIO.SecretKey = getEnv("MINIO_SECRET_KEY", "")

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.RateLimit.Limit <= 0 {
		cfg.RateLimit.Limit = 100
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = 15 * time.Minute
	}

	return cfg
}

// String 返回配置摘要（不含任何密钥）
func (c *Config) String() string {
	redis := c.RedisURL
	if redis == "" {
		redis = "(disabled)"
	}
	minioEndpoint := c.MinIO.Endpoint
	if minioEndpoint == "" {
		minioEndpoint = "(disabled)"
	}
	return fmt.Sprintf("env=%s port=%s mongo=%s/%s redis=%s minio=%s token_ttl=%s",
		c.Env, c.APIPort, c.MongoURI, c.MongoDatabase, redis, minioEndpoint, c.TokenTTL)
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	cfg := &YAMLConfig{
		Server: ServerConfig{Port: "8080", ClientOrigin: "http://localhost:3000"},
		Mongo:  MongoConfig{URI: "mongodb://localhost:27017", Database: "socialnet"},
		Redis:  RedisConfig{Port: 6379},
		MinIO:  MinIOConfig{Bucket: "socialnet"},
		Auth:   AuthConfig{TokenTTL: 7 * 24 * time.Hour},
		RateLimit: RateLimitConfig{
			Limit:  100,
			Window: 15 * time.Minute,
		},
	}

	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range configPaths {
		path := filepath.Join(base, filename)
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, cfg)
			break
		}
	}

	return cfg
}

// buildRedisURL 构建 Redis 连接字符串；host 为空返回空（禁用）
func buildRedisURL(redis RedisConfig) string {
	if redis.Host == "" {
		return ""
	}
	return fmt.Sprintf("redis://%s:%d/%d", redis.Host, redis.Port, redis.DB)
}

func parseEnv(env string) Environment {
	switch strings.ToLower(env) {
	case "test":
		return EnvTest
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDevelopment
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
