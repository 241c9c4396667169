package config

import (
	"fmt"
	"strings"

	"github.com/blues/crowdfund/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Wallets  WalletsConfig  `mapstructure:"wallets"`
	Task     TaskConfig     `mapstructure:"task"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 数据库配置，driver 为 sqlite 或 postgres
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"` // sqlite 文件路径
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// CatalogConfig 活动目录配置
type CatalogConfig struct {
	Key         string `mapstructure:"key"`          // 目录在键值存储中的键名
	QuotaBytes  int    `mapstructure:"quota_bytes"`  // 键值存储容量上限
	RetainFloor int    `mapstructure:"retain_floor"` // 淘汰后保留的最少条目数
}

// WalletsConfig 各币种的收款地址
type WalletsConfig struct {
	BTC string `mapstructure:"btc"`
	ETH string `mapstructure:"eth"`
	SOL string `mapstructure:"sol"`
}

type TaskConfig struct {
	Interval    int `mapstructure:"interval"`     // 秒
	SessionIdle int `mapstructure:"session_idle"` // 向导会话空闲多久后清理，秒
}

type WorkerConfig struct {
	PoolSize int `mapstructure:"pool_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Task.Interval <= 0 {
		return fmt.Errorf("task.interval must be positive")
	}
	if c.Task.SessionIdle <= 0 {
		return fmt.Errorf("task.session_idle must be positive")
	}
	if c.Catalog.RetainFloor < 0 {
		return fmt.Errorf("catalog.retain_floor must not be negative")
	}
	if c.Wallets.ETH != "" && !common.IsHexAddress(c.Wallets.ETH) {
		return fmt.Errorf("wallets.eth %q is not a valid address", c.Wallets.ETH)
	}
	return nil
}

// New 创建带默认值的 viper 实例
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/crowdfund")

	// 设置默认值
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/crowdfund.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "crowdfunding")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("catalog.key", "crowdfundingCampaigns")
	v.SetDefault("catalog.quota_bytes", 5*1024*1024)
	v.SetDefault("catalog.retain_floor", 10)
	v.SetDefault("wallets.btc", "bc1q5wh95h7vdwuu80nhpdhuxpznrxmcxnkndaswum")
	v.SetDefault("wallets.eth", "0xe7Ae6f99700B3463Ddf6B7fa807Ff735aDf7EAC4")
	v.SetDefault("wallets.sol", "26vvjS3DM9f9uMwEK2rRwh7T6MhUsmXpp9JjpmtEtLcC")
	v.SetDefault("task.interval", 300)
	v.SetDefault("task.session_idle", 1800)
	v.SetDefault("worker.pool_size", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量，例如 CROWDFUND_SERVER_PORT
	v.SetEnvPrefix("crowdfund")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Decode 将 viper 中的配置解码并校验
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Load() *Config {
	v := New()
	if err := v.ReadInConfig(); err != nil {
		logger.Warn("Could not read config file: %v", err)
	}

	cfg, err := Decode(v)
	if err != nil {
		logger.Fatal("Unable to load config: %v", err)
	}

	return cfg
}
