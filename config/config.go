package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // 精简镜像无系统时区库时仍可加载 attendance.timezone

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Attendance AttendanceConfig `mapstructure:"attendance"`
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

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
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

// MongoConfig MongoDB 配置（仅 attendance.store=mongo 时使用）
type MongoConfig struct {
	URI                  string `mapstructure:"uri"`
	Database             string `mapstructure:"database"`
	AttendanceCollection string `mapstructure:"attendance_collection"`
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

// 出勤记录存储后端
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// AttendanceConfig 出勤与签到窗口配置
type AttendanceConfig struct {
	Timezone             string        `mapstructure:"timezone"`
	OpenBeforeMinutes    int           `mapstructure:"open_before_minutes"`    // 开课前多少分钟开放签到
	LateGraceMinutes     int           `mapstructure:"late_grace_minutes"`     // 开课后多少分钟内算出勤
	AbsentGraceMinutes   int           `mapstructure:"absent_grace_minutes"`   // 开课后多少分钟内算迟到，超过即关闭
	DefaultPeriodMinutes int           `mapstructure:"default_period_minutes"` // 未配置结束时间时的课时长度
	ClientClockSkew      time.Duration `mapstructure:"client_clock_skew"`
	Store                string        `mapstructure:"store"` // postgres | mongo
}

// Location 加载出勤计算使用的固定时区
func (c *AttendanceConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "seatboard")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Seoul")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "seatboard")
	v.SetDefault("mongo.attendance_collection", "attendance_records")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// jwt_secret 无默认值，此处登记键名使 SEAT_AUTH_JWT_SECRET 能被 Unmarshal 读到
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "12h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("attendance.timezone", "Asia/Seoul")
	v.SetDefault("attendance.open_before_minutes", 5)
	v.SetDefault("attendance.late_grace_minutes", 5)
	v.SetDefault("attendance.absent_grace_minutes", 20)
	v.SetDefault("attendance.default_period_minutes", 50)
	v.SetDefault("attendance.client_clock_skew", "2m")
	v.SetDefault("attendance.store", StorePostgres)

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
	v.SetEnvPrefix("SEAT")
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
	if _, err := c.Attendance.Location(); err != nil {
		return fmt.Errorf("配置校验失败: attendance.timezone 无效: %w", err)
	}
	if c.Attendance.LateGraceMinutes < 0 || c.Attendance.AbsentGraceMinutes < c.Attendance.LateGraceMinutes {
		return fmt.Errorf("配置校验失败: attendance.absent_grace_minutes 不能小于 late_grace_minutes")
	}
	if c.Attendance.OpenBeforeMinutes < 0 || c.Attendance.DefaultPeriodMinutes <= 0 {
		return fmt.Errorf("配置校验失败: attendance 窗口分钟数无效")
	}
	switch c.Attendance.Store {
	case StorePostgres, StoreMongo:
	default:
		return fmt.Errorf("配置校验失败: attendance.store 仅支持 postgres 或 mongo")
	}
	return nil
}
