package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig 数据库配置（postgres | sqlite）
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"` // sqlite 文件路径
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReminderConfig 上课提醒配置
type ReminderConfig struct {
	Timezone           string        `mapstructure:"timezone"`             // 用户未设置时区时的默认值
	ExactAlarms        bool          `mapstructure:"exact_alarms"`         // 关闭时不登记闹钟，调用方会收到 ErrExactAlarmUnavailable
	DefaultLeadMinutes int           `mapstructure:"default_lead_minutes"` // 新建课程未指定时的提前分钟数
	DedupTTL           time.Duration `mapstructure:"dedup_ttl"`            // 触发去重键保留时长
	FireTimeout        time.Duration `mapstructure:"fire_timeout"`         // 单次触发处理超时
}

// Location 解析默认时区
func (c *ReminderConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// CalendarConfig 日历同步配置
type CalendarConfig struct {
	LookaheadDays int    `mapstructure:"lookahead_days"`
	Marker        string `mapstructure:"marker"`
	ProductID     string `mapstructure:"product_id"`
}

// Lookahead 同步窗口时长
func (c *CalendarConfig) Lookahead() time.Duration {
	return time.Duration(c.LookaheadDays) * 24 * time.Hour
}

// JobsConfig 定时任务配置
type JobsConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	CalendarSyncSpec string `mapstructure:"calendar_sync_spec"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.path", "data/classbell.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "classbell")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Shanghai")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("reminder.timezone", "Asia/Shanghai")
	v.SetDefault("reminder.exact_alarms", true)
	v.SetDefault("reminder.default_lead_minutes", 10)
	v.SetDefault("reminder.dedup_ttl", "48h")
	v.SetDefault("reminder.fire_timeout", "30s")

	v.SetDefault("calendar.lookahead_days", 3)
	v.SetDefault("calendar.marker", "CourseReminder")
	v.SetDefault("calendar.product_id", "-//classbell//course reminder//CN")

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.calendar_sync_spec", "@daily")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("CLASSBELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("配置校验失败: db.driver 仅支持 postgres 或 sqlite")
	}
	if _, err := c.Reminder.Location(); err != nil {
		return fmt.Errorf("配置校验失败: reminder.timezone 无效: %w", err)
	}
	if c.Reminder.DefaultLeadMinutes < 0 {
		return fmt.Errorf("配置校验失败: reminder.default_lead_minutes 不能为负数")
	}
	if c.Calendar.LookaheadDays <= 0 {
		return fmt.Errorf("配置校验失败: calendar.lookahead_days 必须大于 0")
	}
	if c.Calendar.Marker == "" {
		return fmt.Errorf("配置校验失败: calendar.marker 不能为空")
	}
	return nil
}
