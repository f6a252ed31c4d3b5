package config

import (
	"github.com/boring-ventures/minka-sub002/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Profile   ProfileConfig   `mapstructure:"profile"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 发现页缓存用的 Redis，可整体关闭
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DispatchConfig 通知派发器配置
type DispatchConfig struct {
	Workers      int `mapstructure:"workers"`       // 协程池大小
	QueueSize    int `mapstructure:"queue_size"`    // 事件队列长度
	MaxRetries   int `mapstructure:"max_retries"`   // 单个事件最大重试次数
	RetryBackoff int `mapstructure:"retry_backoff"` // 初始退避时间（毫秒），指数递增
}

type SchedulerConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

// DiscoveryConfig 发现页配置。Fallback 是进程级静态兜底数据，
// 启动时加载一次，运行期不可变，只能通过重新部署或配置重载替换。
type DiscoveryConfig struct {
	CacheTTL int            `mapstructure:"cache_ttl"` // Redis 快照有效期（秒）
	Fallback FallbackConfig `mapstructure:"fallback"`
}

type FallbackConfig struct {
	Categories map[string]int64 `mapstructure:"categories"`
	Locations  map[string]int64 `mapstructure:"locations"`
}

// ProfileConfig 保留档案配置
type ProfileConfig struct {
	AnonymousID uint `mapstructure:"anonymous_id"` // 匿名捐赠人档案ID
	SystemID    uint `mapstructure:"system_id"`    // 系统档案ID
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/minka")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "minka")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("dispatch.workers", 4)
	viper.SetDefault("dispatch.queue_size", 256)
	viper.SetDefault("dispatch.max_retries", 3)
	viper.SetDefault("dispatch.retry_backoff", 200)
	viper.SetDefault("scheduler.interval", 60)
	viper.SetDefault("discovery.cache_ttl", 300)
	viper.SetDefault("profile.anonymous_id", 1)
	viper.SetDefault("profile.system_id", 2)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
