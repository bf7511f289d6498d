package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIBase        string        `yaml:"api_base"`
	ListenAddr     string        `yaml:"listen_addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	DefaultSortBy  string        `yaml:"default_sort_by"`
	DefaultOrder   string        `yaml:"default_order"`
	AllowedOrigins []string      `yaml:"allowed_origins"`

	LogFile      string `yaml:"log_file"`
	LogToConsole bool   `yaml:"log_to_console"`

	JournalDBPath    string        `yaml:"journal_db_path"`
	JournalRetention time.Duration `yaml:"journal_retention"`

	EventSink       string `yaml:"event_sink"`
	MQTTBroker      string `yaml:"mqtt_broker_url"`
	MQTTClientID    string `yaml:"mqtt_client_id"`
	MQTTUsername    string `yaml:"mqtt_username"`
	MQTTPassword    string `yaml:"mqtt_password"`
	MQTTTopicPrefix string `yaml:"mqtt_topic_prefix"`
	KafkaBrokers    string `yaml:"kafka_brokers"`
	KafkaTopic      string `yaml:"kafka_topic"`
}

// LoadConfig reads .env and the process environment, then applies the YAML
// file named by DASHBOARD_CONFIG on top when one is set.
func LoadConfig() *Config {
	err := godotenv.Load() // Looks for ".env" in the current directory
	if err != nil {
		log.Println("No .env file found, using environment variables or default values")
	}

	cfg := FromEnv()
	if path := os.Getenv("DASHBOARD_CONFIG"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			log.Printf("Failed to load config from %s: %v, using environment only", path, err)
		}
	}
	return cfg
}

func FromEnv() *Config {
	return &Config{
		APIBase:        getEnv("API_BASE", "http://127.0.0.1:8002"),
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		DefaultSortBy:  getEnv("DEFAULT_SORT_BY", "height"),
		DefaultOrder:   getEnv("DEFAULT_ORDER", "asc"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),

		LogFile:      getEnv("LOG_FILE", "./logs/dashboard.log"),
		LogToConsole: strings.EqualFold(getEnv("LOG_TO_CONSOLE", "false"), "true"),

		JournalDBPath:    getEnv("JOURNAL_DB_PATH", "dashboard.db"),
		JournalRetention: getEnvDuration("JOURNAL_RETENTION", 7*24*time.Hour),

		EventSink:       strings.ToLower(getEnv("EVENT_SINK", "none")),
		MQTTBroker:      getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "patient_dashboard"),
		MQTTUsername:    getEnv("MQTT_USERNAME", ""),
		MQTTPassword:    getEnv("MQTT_PASSWORD", ""),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "dashboard"),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "patient-dashboard-events"),
	}
}

// ApplyFile overrides the keys present in the YAML file at path. ${VAR}
// references are expanded from the environment first.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	c.EventSink = strings.ToLower(c.EventSink)
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration %q for %s, using %s", value, key, fallback)
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
