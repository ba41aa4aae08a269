// internal/pkg/config/config.go
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 聚合了服务运行所需的全部配置项。
// 配置优先级: 环境变量 > YAML 文件 > 默认值。
type Config struct {
	Service     ServiceConfig     `yaml:"service"`
	Infra       InfraConfig       `yaml:"infra"`
	Reservation ReservationConfig `yaml:"reservation"`
}

type ServiceConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

type InfraConfig struct {
	Mysql     MysqlConfig     `yaml:"mysql"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
	Nacos     NacosConfig     `yaml:"nacos"`
	Jaeger    JaegerConfig    `yaml:"jaeger"`
}

type MysqlConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type ZookeeperConfig struct {
	Servers []string `yaml:"servers"`
}

type NacosConfig struct {
	ServerAddrs string `yaml:"server_addrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
}

type JaegerConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// ReservationConfig 是预约引擎自身的业务配置。
type ReservationConfig struct {
	// DefaultExpiration 是未显式指定过期时间时使用的保留时长。
	DefaultExpiration Duration `yaml:"default_expiration"`
	// SweepInterval 是过期扫描的触发间隔。
	SweepInterval Duration `yaml:"sweep_interval"`
	// SweepConcurrency 是单次扫描中并行处理过期预约的上限。
	SweepConcurrency int `yaml:"sweep_concurrency"`
	// PolicyExpression 是 CEL 预约准入规则表达式，为空时放行所有请求。
	PolicyExpression string `yaml:"policy_expression"`
}

// Duration 包装 time.Duration，让 YAML 里可以写 "30m" 这样的字面量。
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std 返回标准库类型的时长。
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

var (
	current *Config
	mu      sync.RWMutex
)

// Load 从 YAML 文件加载配置并应用环境变量覆盖。
// 文件不存在时退回到内置默认值，方便本地直接启动。
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	mu.Lock()
	current = cfg
	mu.Unlock()
	return cfg, nil
}

// Get 返回最近一次 Load 的配置。未加载时返回默认值。
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return defaults()
	}
	return current
}

func defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name: "inventory-service",
			Port: 8084,
		},
		Infra: InfraConfig{
			Mysql:     MysqlConfig{DSN: "root:root@tcp(localhost:3306)/depot?charset=utf8mb4&parseTime=True&loc=Local"},
			Redis:     RedisConfig{Addr: "localhost:6379"},
			Kafka:     KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "stock-events"},
			Zookeeper: ZookeeperConfig{Servers: []string{"localhost:2181"}},
			Nacos:     NacosConfig{ServerAddrs: "localhost:8848", Group: "DEFAULT_GROUP"},
			Jaeger:    JaegerConfig{Endpoint: "http://localhost:14268/api/traces"},
		},
		Reservation: ReservationConfig{
			DefaultExpiration: Duration(30 * time.Minute),
			SweepInterval:     Duration(time.Minute),
			SweepConcurrency:  4,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.Infra.Mysql.DSN = getEnv("MYSQL_DSN", cfg.Infra.Mysql.DSN)
	cfg.Infra.Redis.Addr = getEnv("REDIS_ADDR", cfg.Infra.Redis.Addr)
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	cfg.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.ServerAddrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
