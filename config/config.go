// Package config 读取宿主配置：TOML 文件、.env 文件与 INKWELL_* 环境变量，后者优先。
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultFile 是未显式指定时在当前目录查找的配置文件。
const DefaultFile = "inkwell.toml"

// Config contains all host settings.
type Config struct {
	Render RenderConfig `toml:"render"`
	Server ServerConfig `toml:"server"`
}

// RenderConfig 是编译选项的默认值。
type RenderConfig struct {
	Scale       float64 `toml:"scale"`
	Autosize    bool    `toml:"autosize"`
	Transparent bool    `toml:"transparent"`
}

// ServerConfig 是预览服务的设置。
type ServerConfig struct {
	Addr    string `toml:"addr"`
	MaxBody int64  `toml:"max_body"` // 请求体上限（字节）
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Render: RenderConfig{Scale: 2, Autosize: true},
		Server: ServerConfig{Addr: ":8080", MaxBody: 1 << 20},
	}
}

// Load 依次应用默认值、配置文件、.env 与环境变量。
// path 为空时尝试 DefaultFile，不存在则跳过；显式指定的文件必须存在。
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	file := path
	if file == "" {
		file = DefaultFile
	}
	if _, err := toml.DecodeFile(file, &cfg); err != nil {
		if path != "" || !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", file, err)
		}
	}

	// .env 缺失时静默忽略；已存在的环境变量不会被覆盖
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Render.Scale <= 0 || math.IsNaN(c.Render.Scale) || math.IsInf(c.Render.Scale, 0) {
		return fmt.Errorf("render.scale must be positive, got %g", c.Render.Scale)
	}
	if c.Server.MaxBody <= 0 {
		return fmt.Errorf("server.max_body must be positive, got %d", c.Server.MaxBody)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Render.Scale = getEnvFloat("INKWELL_SCALE", cfg.Render.Scale)
	cfg.Render.Autosize = getEnvBool("INKWELL_AUTOSIZE", cfg.Render.Autosize)
	cfg.Render.Transparent = getEnvBool("INKWELL_TRANSPARENT", cfg.Render.Transparent)
	cfg.Server.Addr = getEnv("INKWELL_ADDR", cfg.Server.Addr)
	cfg.Server.MaxBody = getEnvInt("INKWELL_MAX_BODY", cfg.Server.MaxBody)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

func getEnvInt(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
