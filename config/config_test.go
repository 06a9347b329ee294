package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "test-secret-key-for-unit-testing"
calendar:
  lookahead_days: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("期望默认端口 8080，实际 %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("期望默认驱动 postgres，实际 %s", cfg.Database.Driver)
	}
	if cfg.Calendar.LookaheadDays != 5 {
		t.Errorf("期望 lookahead_days=5，实际 %d", cfg.Calendar.LookaheadDays)
	}
	if cfg.Calendar.Lookahead() != 5*24*time.Hour {
		t.Errorf("Lookahead 计算错误: %v", cfg.Calendar.Lookahead())
	}
	if cfg.Calendar.Marker != "CourseReminder" {
		t.Errorf("期望默认 marker=CourseReminder，实际 %s", cfg.Calendar.Marker)
	}
	if cfg.Reminder.DefaultLeadMinutes != 10 {
		t.Errorf("期望默认提前 10 分钟，实际 %d", cfg.Reminder.DefaultLeadMinutes)
	}
	if !cfg.Reminder.ExactAlarms {
		t.Error("exact_alarms 默认应为 true")
	}
	if cfg.Reminder.DedupTTL != 48*time.Hour {
		t.Errorf("期望 dedup_ttl=48h，实际 %v", cfg.Reminder.DedupTTL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: "test-secret-key-for-unit-testing"
server:
  port: 9000
`)
	t.Setenv("CLASSBELL_SERVER_PORT", "9100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("环境变量应覆盖配置文件，期望 9100，实际 %d", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "sqlite"},
			Auth:     AuthConfig{JWTSecret: "0123456789abcdef"},
			Reminder: ReminderConfig{Timezone: "Asia/Shanghai"},
			Calendar: CalendarConfig{LookaheadDays: 3, Marker: "CourseReminder"},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("合法配置不应报错: %v", err)
	}

	cases := map[string]func(c *Config){
		"空密钥":   func(c *Config) { c.Auth.JWTSecret = "" },
		"密钥过短":  func(c *Config) { c.Auth.JWTSecret = "short" },
		"端口越界":  func(c *Config) { c.Server.Port = 70000 },
		"未知驱动":  func(c *Config) { c.Database.Driver = "mysql" },
		"无效时区":  func(c *Config) { c.Reminder.Timezone = "Mars/Olympus" },
		"负提前量":  func(c *Config) { c.Reminder.DefaultLeadMinutes = -1 },
		"窗口为零":  func(c *Config) { c.Calendar.LookaheadDays = 0 },
		"空标记":   func(c *Config) { c.Calendar.Marker = "" },
	}
	for name, mutate := range cases {
		cfg := valid()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: 期望校验失败", name)
		}
	}
}
