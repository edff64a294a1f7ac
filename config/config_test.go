package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Auth:   AuthConfig{JWTSecret: "0123456789abcdef", AccessTokenTTL: time.Hour},
		Attendance: AttendanceConfig{
			Timezone:             "UTC",
			OpenBeforeMinutes:    5,
			LateGraceMinutes:     5,
			AbsentGraceMinutes:   20,
			DefaultPeriodMinutes: 50,
			Store:                StorePostgres,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"合法配置", func(c *Config) {}, false},
		{"mongo 存储", func(c *Config) { c.Attendance.Store = StoreMongo }, false},
		{"缺少密钥", func(c *Config) { c.Auth.JWTSecret = "" }, true},
		{"密钥过短", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }, true},
		{"无效时区", func(c *Config) { c.Attendance.Timezone = "Nowhere/City" }, true},
		{"缺勤宽限小于迟到宽限", func(c *Config) { c.Attendance.AbsentGraceMinutes = 3 }, true},
		{"课时为零", func(c *Config) { c.Attendance.DefaultPeriodMinutes = 0 }, true},
		{"未知存储", func(c *Config) { c.Attendance.Store = "sqlite" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
auth:
  jwt_secret: "file-secret-0123456789"
attendance:
  timezone: "Asia/Seoul"
  late_grace_minutes: 7
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	t.Setenv("SEAT_SERVER_PORT", "9191")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("环境变量应覆盖配置文件，期望 9191，实际 %d", cfg.Server.Port)
	}
	if cfg.Attendance.LateGraceMinutes != 7 || cfg.Attendance.AbsentGraceMinutes != 20 {
		t.Errorf("文件值与默认值合并错误: %+v", cfg.Attendance)
	}
	if cfg.Attendance.ClientClockSkew != 2*time.Minute {
		t.Errorf("期望默认时钟偏差 2m，实际 %v", cfg.Attendance.ClientClockSkew)
	}
	if cfg.Auth.AccessTokenTTL != 12*time.Hour {
		t.Errorf("期望默认 TTL 12h，实际 %v", cfg.Auth.AccessTokenTTL)
	}
}

func TestLoad_SecretFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	t.Setenv("SEAT_AUTH_JWT_SECRET", "env-secret-0123456789")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Auth.JWTSecret != "env-secret-0123456789" {
		t.Errorf("密钥应从环境变量读取，实际 %q", cfg.Auth.JWTSecret)
	}
}
