package config

import (
	"strings"
	"testing"
	"time"
)

// TestLoad_Defaults 测试默认配置加载（dev 环境）
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")

	cfg := Load()

	if cfg.Env != EnvDevelopment {
		t.Errorf("Env = %v, want dev", cfg.Env)
	}
	if cfg.APIPort == "" {
		t.Error("APIPort should have a default")
	}
	if cfg.MongoURI == "" || cfg.MongoDatabase == "" {
		t.Error("Mongo settings should have defaults")
	}
	if cfg.TokenTTL <= 0 {
		t.Errorf("TokenTTL = %v, want positive", cfg.TokenTTL)
	}
	if cfg.RateLimit.Limit <= 0 || cfg.RateLimit.Window <= 0 {
		t.Errorf("RateLimit = %+v, want positive defaults", cfg.RateLimit)
	}
}

// TestLoad_EnvOverride 测试环境变量覆盖 YAML
func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("PORT", "9999")
	t.Setenv("MONGO_DATABASE", "override_db")
	t.Setenv("REDIS_URL", "redis://override:6379/1")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg := Load()

	if cfg.APIPort != "9999" {
		t.Errorf("APIPort = %q, want 9999", cfg.APIPort)
	}
	if cfg.MongoDatabase != "override_db" {
		t.Errorf("MongoDatabase = %q, want override_db", cfg.MongoDatabase)
	}
	if cfg.RedisURL != "redis://override:6379/1" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.JWTSecret != "env-secret" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
}

// TestParseEnv 测试环境解析
func TestParseEnv(t *testing.T) {
	tests := []struct {
		in   string
		want Environment
	}{
		{"dev", EnvDevelopment},
		{"test", EnvTest},
		{"prod", EnvProduction},
		{"production", EnvProduction},
		{"PROD", EnvProduction},
		{"anything-else", EnvDevelopment},
		{"", EnvDevelopment},
	}

	for _, tt := range tests {
		if got := parseEnv(tt.in); got != tt.want {
			t.Errorf("parseEnv(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestBuildRedisURL 测试 Redis URL 构建
func TestBuildRedisURL(t *testing.T) {
	if url := buildRedisURL(RedisConfig{}); url != "" {
		t.Errorf("Empty host should disable Redis, got %q", url)
	}
	if url := buildRedisURL(RedisConfig{Host: "localhost", Port: 6379, DB: 2}); url != "redis://localhost:6379/2" {
		t.Errorf("url = %q", url)
	}
}

// TestConfigString 测试摘要不泄露密钥
func TestConfigString(t *testing.T) {
	cfg := &Config{
		Env:       EnvDevelopment,
		APIPort:   "8080",
		JWTSecret: "super-secret-value",
		TokenTTL:  time.Hour,
	}
	s := cfg.String()
	if s == "" {
		t.Fatal("String() should not be empty")
	}
	if strings.Contains(s, "super-secret-value") {
		t.Error("String() must not contain the JWT secret")
	}
}
