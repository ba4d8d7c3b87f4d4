// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config 是所有进程共享的配置结构
// 加载顺序: .env -> yaml 文件 -> 环境变量覆盖
type Config struct {
	App     AppConfig     `yaml:"app"`
	Auth    AuthConfig    `yaml:"auth"`
	Catalog CatalogConfig `yaml:"catalog"`
	Mail    MailConfig    `yaml:"mail"`
	Infra   InfraConfig   `yaml:"infra"`
}

type AppConfig struct {
	Env           string `yaml:"env"`
	Port          int    `yaml:"port"`
	LogLevel      string `yaml:"logLevel"`
	EnableNacos   bool   `yaml:"enableNacos"`
	PublicBaseURL string `yaml:"publicBaseUrl"`
}

type AuthConfig struct {
	JWTSecret         string        `yaml:"jwtSecret"`
	TokenTTL          time.Duration `yaml:"tokenTtl"`
	AdminEmail        string        `yaml:"adminEmail"`
	AdminPasswordHash string        `yaml:"adminPasswordHash"`
	MaxLoginAttempts  int           `yaml:"maxLoginAttempts"`
	LoginWindow       time.Duration `yaml:"loginWindow"`
	ResetTokenTTL     time.Duration `yaml:"resetTokenTtl"`
}

type CatalogConfig struct {
	ListingCacheTTL time.Duration `yaml:"listingCacheTtl"`
	DefaultPageSize int           `yaml:"defaultPageSize"`
	MaxPageSize     int           `yaml:"maxPageSize"`
}

type MailConfig struct {
	GatewayURL string `yaml:"gatewayUrl"` // 为空时只记录日志
	From       string `yaml:"from"`
}

type InfraConfig struct {
	MySQL     MySQLConfig     `yaml:"mysql"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Jaeger    JaegerConfig    `yaml:"jaeger"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
	Nacos     NacosConfig     `yaml:"nacos"`
}

type MySQLConfig struct {
	Addr            string        `yaml:"addr"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	AutoMigrate     bool          `yaml:"autoMigrate"`
}

type RedisConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
}

type KafkaConfig struct {
	Brokers           []string `yaml:"brokers"`
	NotificationTopic string   `yaml:"notificationTopic"`
	NotificationGroup string   `yaml:"notificationGroup"`
	DLTTopic          string   `yaml:"dltTopic"`
	DLTGroup          string   `yaml:"dltGroup"`
	ChatTopic         string   `yaml:"chatTopic"`
	ChatGroupPrefix   string   `yaml:"chatGroupPrefix"`
}

type JaegerConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sampleRatio"`
}

type ZookeeperConfig struct {
	Servers        []string      `yaml:"servers"`
	SessionTimeout time.Duration `yaml:"sessionTimeout"`
}

type NacosConfig struct {
	ServerAddrs string `yaml:"serverAddrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
}

var (
	currentConfig *Config
	configOnce    sync.Once
	configErr     error
)

// DefaultConfig 返回本地开发时可直接使用的默认配置
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{Env: "dev", Port: 8080, LogLevel: "info"},
		Auth: AuthConfig{
			TokenTTL:         24 * time.Hour,
			MaxLoginAttempts: 5,
			LoginWindow:      15 * time.Minute,
			ResetTokenTTL:    time.Hour,
		},
		Catalog: CatalogConfig{ListingCacheTTL: time.Minute, DefaultPageSize: 20, MaxPageSize: 100},
		Mail:    MailConfig{From: "no-reply@bazaar.local"},
		Infra: InfraConfig{
			MySQL: MySQLConfig{
				Addr: "localhost:3306", User: "root", Database: "bazaar",
				MaxOpenConns: 50, MaxIdleConns: 10, ConnMaxLifetime: 30 * time.Minute,
			},
			Redis: RedisConfig{Addrs: []string{"localhost:6379"}},
			Kafka: KafkaConfig{
				Brokers:           []string{"localhost:9092"},
				NotificationTopic: "marketplace.notifications",
				NotificationGroup: "notification-service",
				DLTTopic:          "marketplace.notifications.dlt",
				DLTGroup:          "notification-dlt",
				ChatTopic:         "marketplace.support.chat",
				ChatGroupPrefix:   "push-gateway",
			},
			Zookeeper: ZookeeperConfig{Servers: []string{"localhost:2181"}, SessionTimeout: 10 * time.Second},
			Nacos:     NacosConfig{ServerAddrs: "localhost:8848", Group: "DEFAULT_GROUP"},
		},
	}
}

// LoadConfig 按 .env、yaml、环境变量的顺序加载配置
func LoadConfig(path string) (*Config, error) {
	// .env 不存在是正常情况
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path == "" {
		path = getEnv("CONFIG_FILE", "configs/config.yaml")
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config file %s", path)
		}
	case os.IsNotExist(err):
		// 没有配置文件时完全依赖环境变量
	default:
		return nil, errors.Wrapf(err, "read config file %s", path)
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查启动所必需的配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwtSecret (JWT_SECRET) is required")
	}
	if c.Catalog.MaxPageSize <= 0 || c.Catalog.DefaultPageSize <= 0 || c.Catalog.DefaultPageSize > c.Catalog.MaxPageSize {
		return errors.Errorf("invalid catalog page sizes: default=%d max=%d", c.Catalog.DefaultPageSize, c.Catalog.MaxPageSize)
	}
	return nil
}

// GetCurrentConfig 返回进程级配置，第一次调用时加载
func GetCurrentConfig() *Config {
	configOnce.Do(func() {
		currentConfig, configErr = LoadConfig("")
	})
	if configErr != nil {
		panic(configErr)
	}
	return currentConfig
}

func applyEnvOverrides(c *Config) {
	c.App.Env = getEnv("APP_ENV", c.App.Env)
	c.App.Port = getEnvInt("APP_PORT", c.App.Port)
	c.App.LogLevel = getEnv("LOG_LEVEL", c.App.LogLevel)
	c.App.EnableNacos = getEnvBool("ENABLE_NACOS", c.App.EnableNacos)
	c.App.PublicBaseURL = getEnv("PUBLIC_BASE_URL", c.App.PublicBaseURL)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.AdminEmail = getEnv("ADMIN_EMAIL", c.Auth.AdminEmail)
	c.Auth.AdminPasswordHash = getEnv("ADMIN_PASSWORD_HASH", c.Auth.AdminPasswordHash)

	c.Mail.GatewayURL = getEnv("MAIL_GATEWAY_URL", c.Mail.GatewayURL)

	c.Infra.MySQL.Addr = getEnv("MYSQL_ADDR", c.Infra.MySQL.Addr)
	c.Infra.MySQL.User = getEnv("MYSQL_USER", c.Infra.MySQL.User)
	c.Infra.MySQL.Password = getEnv("MYSQL_PASSWORD", c.Infra.MySQL.Password)
	c.Infra.MySQL.Database = getEnv("MYSQL_DATABASE", c.Infra.MySQL.Database)
	c.Infra.MySQL.AutoMigrate = getEnvBool("MYSQL_AUTO_MIGRATE", c.Infra.MySQL.AutoMigrate)

	c.Infra.Redis.Addrs = getEnvList("REDIS_ADDRS", c.Infra.Redis.Addrs)
	c.Infra.Redis.Password = getEnv("REDIS_PASSWORD", c.Infra.Redis.Password)
	c.Infra.Kafka.Brokers = getEnvList("KAFKA_BROKERS", c.Infra.Kafka.Brokers)
	c.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", c.Infra.Jaeger.Endpoint)
	c.Infra.Zookeeper.Servers = getEnvList("ZK_SERVERS", c.Infra.Zookeeper.Servers)

	c.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", c.Infra.Nacos.ServerAddrs)
	c.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", c.Infra.Nacos.Namespace)
	c.Infra.Nacos.Group = getEnv("NACOS_GROUP", c.Infra.Nacos.Group)
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
