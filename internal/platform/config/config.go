package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/codex-timeclock/internal/core/employee"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Log           LogConfig           `yaml:"log"`
	Auth          AuthConfig          `yaml:"auth"`
	Organization  OrganizationConfig  `yaml:"organization"`
	Lock          LockConfig          `yaml:"lock"`
	Redis         RedisConfig         `yaml:"redis"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	PayrollExport PayrollExportConfig `yaml:"payroll_export"`
}

// ServerConfig は gRPC サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// LogConfig はロガーの設定です。
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AuthConfig は ID プロバイダが発行するアクセストークンの検証設定です。
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

// OrganizationConfig は組織固有の登録ルールです。
type OrganizationConfig struct {
	EmailDomain          string          `yaml:"email_domain"`
	DefaultHourlyRate    decimal.Decimal `yaml:"-"`
	DefaultHourlyRateRaw string          `yaml:"default_hourly_rate"`
}

// LockConfig は社員単位の排他制御の方式です。
type LockConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"-"`
	TTLRaw  string        `yaml:"ttl"`
	Wait    time.Duration `yaml:"-"`
	WaitRaw string        `yaml:"wait"`
}

// RedisConfig は Redis 接続の設定です。
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MetricsConfig は Prometheus エンドポイントの設定です。空の場合は公開しません。
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// PayrollExportConfig は給与集計の定期出力の設定です。Schedule が空の場合は無効です。
type PayrollExportConfig struct {
	Schedule string `yaml:"schedule"`
	Dir      string `yaml:"dir"`
}

const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"

	defaultLockTTL     = 10 * time.Second
	defaultLockWait    = 5 * time.Second
	defaultEmailDomain = "@flashguyscleaning.com"
	defaultExportDir   = "exports"
)

var defaultHourlyRate = decimal.NewFromInt(25)

// Load は指定されたパスから設定ファイルを読み込みます。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}

	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Log.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Auth.validate(); err != nil {
		return err
	}
	if err := c.Organization.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Lock.validateAndNormalize(); err != nil {
		return err
	}
	if c.Lock.Backend == LockBackendRedis && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr must be set when lock.backend is redis")
	}
	if err := c.PayrollExport.validateAndNormalize(); err != nil {
		return err
	}

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (l *LogConfig) validateAndNormalize() error {
	if l.Level == "" {
		l.Level = "info"
	}
	switch l.Format {
	case "":
		l.Format = "json"
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format must be json or console, got %q", l.Format)
	}
	return nil
}

func (a AuthConfig) validate() error {
	if a.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret must be set")
	}
	return nil
}

func (o *OrganizationConfig) validateAndNormalize() error {
	if o.EmailDomain == "" {
		o.EmailDomain = defaultEmailDomain
	}
	if !strings.HasPrefix(o.EmailDomain, "@") {
		o.EmailDomain = "@" + o.EmailDomain
	}
	o.EmailDomain = strings.ToLower(o.EmailDomain)

	if o.DefaultHourlyRateRaw == "" {
		o.DefaultHourlyRate = defaultHourlyRate
		return nil
	}
	rate, err := employee.ParseHourlyRate(o.DefaultHourlyRateRaw)
	if err != nil {
		return fmt.Errorf("config: organization.default_hourly_rate: %w", err)
	}
	o.DefaultHourlyRate = rate
	return nil
}

func (l *LockConfig) validateAndNormalize() error {
	switch l.Backend {
	case "":
		l.Backend = LockBackendMemory
	case LockBackendMemory, LockBackendRedis:
	default:
		return fmt.Errorf("config: lock.backend must be memory or redis, got %q", l.Backend)
	}

	ttl, err := parseDurationAllowEmpty(l.TTLRaw)
	if err != nil {
		return fmt.Errorf("config: lock.ttl: %w", err)
	}
	if ttl == 0 {
		ttl = defaultLockTTL
	}
	l.TTL = ttl

	wait, err := parseDurationAllowEmpty(l.WaitRaw)
	if err != nil {
		return fmt.Errorf("config: lock.wait: %w", err)
	}
	if wait < 0 {
		return fmt.Errorf("config: lock.wait must not be negative")
	}
	if wait == 0 {
		wait = defaultLockWait
	}
	l.Wait = wait
	return nil
}

func (p *PayrollExportConfig) validateAndNormalize() error {
	if p.Schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(p.Schedule); err != nil {
		return fmt.Errorf("config: payroll_export.schedule: %w", err)
	}
	if p.Dir == "" {
		p.Dir = defaultExportDir
	}
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}
