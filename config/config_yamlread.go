// Package config YAML 配置，atomic.Value 保存当前配置，热更新时无锁读取
package config

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	Model  ModelConfig  `yaml:"model"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

type MySQLConfig struct {
	DSN             string `yaml:"dsn"` // 为空时使用内存存储
	Table           string `yaml:"table"`
	PredictionTable string `yaml:"predictionTable"`
}

type ModelConfig struct {
	P     int `yaml:"p"`
	Q     int `yaml:"q"`
	Steps int `yaml:"steps"` // 预测周数
	// Ljung-Box 诊断
	DiagLags  int     `yaml:"diagLags"`
	DiagAlpha float64 `yaml:"diagAlpha"`
}

type LogConfig struct {
	Path       string `yaml:"path"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MySQL: MySQLConfig{Table: "predictions", PredictionTable: "prediction_results"},
		Model: ModelConfig{P: 1, Q: 1, Steps: 10, DiagLags: 10, DiagAlpha: 0.05},
		Log:   LogConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 7, MaxAgeDays: 30},
	}
}

var cfgValue atomic.Value // stores *Config

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read yaml: %w", err)
	}
	return Parse(b)
}

// Parse 未出现的字段保留默认值
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	m := c.Model
	if m.P < 0 || m.Q < 0 {
		return fmt.Errorf("invalid model order p=%d q=%d", m.P, m.Q)
	}
	if m.Steps < 1 {
		return fmt.Errorf("invalid model steps %d", m.Steps)
	}
	if m.DiagLags < 1 {
		return fmt.Errorf("invalid diagLags %d", m.DiagLags)
	}
	if m.DiagAlpha <= 0 || m.DiagAlpha >= 1 {
		return fmt.Errorf("invalid diagAlpha %v", m.DiagAlpha)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is empty")
	}
	return nil
}

func Init(path string) error {
	c, err := Load(path)
	if err != nil {
		return err
	}
	cfgValue.Store(c)
	return nil
}

// Get 未 Init 时返回默认配置
func Get() *Config {
	cAny := cfgValue.Load()
	if cAny == nil {
		return Default()
	}
	return cAny.(*Config)
}
