package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix 环境变量前缀，例如 BUZZBOARD_SERVER_PORT
const EnvPrefix = "BUZZBOARD"

// 存储后端
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Storage StorageConfig `toml:"storage"`
	Filter  FilterConfig  `toml:"filter"`
	Ingest  IngestConfig  `toml:"ingest"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode" split_words:"true"`

	// RateLimit /api 每秒请求数上限，<= 0 表示不限流
	RateLimit float64 `toml:"rate_limit" split_words:"true"`
	RateBurst int     `toml:"rate_burst" split_words:"true"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir" split_words:"true"`
}

// StorageConfig 持久化配置
type StorageConfig struct {
	Backend string `toml:"backend"` // sqlite | file
	Key     string `toml:"key"`
}

// FilterConfig 筛选配置
type FilterConfig struct {
	DebounceMS int `toml:"debounce_ms" split_words:"true"`
}

// IngestConfig 导入配置
type IngestConfig struct {
	// SubcategoryCategories 保留子品类的品类，为空表示全部保留
	SubcategoryCategories []string `toml:"subcategory_categories" split_words:"true"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level"`   // debug | info | warn | error
	Format string `toml:"format"` // text | json
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:      20262,
			DevMode:   false,
			RateLimit: 50,
			RateBurst: 100,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Key:     "buzz-analysis-storage",
		},
		Filter: FilterConfig{
			DebounceMS: 300,
		},
		Ingest: IngestConfig{
			SubcategoryCategories: []string{},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate 校验配置取值
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	switch c.Storage.Backend {
	case BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("storage key is empty")
	}
	if c.Filter.DebounceMS <= 0 {
		return fmt.Errorf("invalid debounce_ms %d", c.Filter.DebounceMS)
	}
	return nil
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}
	serverMap, ok := raw["server"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return LoadFrom(filepath.Join(exeDir, "config.toml"))
}

// LoadFrom 从指定路径加载配置，随后应用环境变量覆盖
// 文件不存在时使用默认配置
func LoadFrom(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, fmt.Errorf("read %s: %w", path, err)
	}

	// 环境变量覆盖（容器 / 本地运行）
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, info, fmt.Errorf("env overrides: %w", err)
	}
	if _, ok := os.LookupEnv(EnvPrefix + "_SERVER_PORT"); ok {
		info.PortSpecified = true
	}

	return cfg, info, nil
}

// EnsureDataDir 确保数据目录存在；相对路径基于可执行文件所在目录
func EnsureDataDir(cfg *AppConfig) (string, error) {
	dataDir := cfg.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}
