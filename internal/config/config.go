package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures the full configuration surface for the application.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Scylla     ScyllaConfig     `mapstructure:"scylla"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Session    SessionConfig    `mapstructure:"session"`
	Throttle   ThrottleConfig   `mapstructure:"throttle"`
	CallBridge CallBridgeConfig `mapstructure:"call_bridge"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	AllowOrigins string        `mapstructure:"allow_origins"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

type ScyllaConfig struct {
	Hosts       []string      `mapstructure:"hosts"`
	Port        int           `mapstructure:"port"`
	Keyspace    string        `mapstructure:"keyspace"`
	Consistency string        `mapstructure:"consistency"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	ClientID        string        `mapstructure:"client_id"`
	AttemptTopic    string        `mapstructure:"attempt_topic"`
	Partitions      int           `mapstructure:"partitions"`
	ConsumerGroupID string        `mapstructure:"consumer_group_id"`
	CommitInterval  time.Duration `mapstructure:"commit_interval"`
}

type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

type TelemetryConfig struct {
	Endpoint       string  `mapstructure:"endpoint"`
	ServiceVersion string  `mapstructure:"service_version"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
	TracingEnabled bool    `mapstructure:"tracing_enabled"`
	Insecure       bool    `mapstructure:"insecure"`
}

// SessionConfig governs page-view sessions and the context they are opened with.
type SessionConfig struct {
	UserID          string        `mapstructure:"user_id"`
	DefaultUserName string        `mapstructure:"default_user_name"`
	CallingNotice   time.Duration `mapstructure:"calling_notice"`
	RecordTimeout   time.Duration `mapstructure:"record_timeout"`
	IdleTTL         time.Duration `mapstructure:"idle_ttl"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	MaxOpen         int           `mapstructure:"max_open"`
}

type ThrottleConfig struct {
	SubmissionsPerInterview int           `mapstructure:"submissions_per_interview"`
	LockTTL                 time.Duration `mapstructure:"lock_ttl"`
	KeyPrefix               string        `mapstructure:"key_prefix"`
}

type CallBridgeConfig struct {
	ProviderName   string          `mapstructure:"provider_name"`
	Endpoint       string          `mapstructure:"endpoint"`
	APIKey         string          `mapstructure:"api_key"`
	RequestTimeout time.Duration   `mapstructure:"request_timeout"`
	CallType       string          `mapstructure:"call_type"`
	Assistant      AssistantConfig `mapstructure:"assistant"`
	Twilio         TwilioConfig    `mapstructure:"twilio"`
	MockSuccess    float64         `mapstructure:"mock_success_rate"`
}

// AssistantConfig is the static assistant descriptor sent with every call request.
type AssistantConfig struct {
	Name                 string `mapstructure:"name"`
	FirstMessageTemplate string `mapstructure:"first_message_template"`
	VoiceProvider        string `mapstructure:"voice_provider"`
	VoiceID              string `mapstructure:"voice_id"`
	ModelProvider        string `mapstructure:"model_provider"`
	Model                string `mapstructure:"model"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
	SayVoice   string `mapstructure:"say_voice"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvPrefix("INTERVIEW")
	v.SetEnvKeyReplacer(NewEnvReplacer())

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file: %w", err)
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// NewEnvReplacer standardizes environment variable names.
func NewEnvReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_", "-", "_")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "interview-callback")
	v.SetDefault("app.env", "development")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.allow_origins", "*")

	v.SetDefault("kafka.attempt_topic", "interview.call-attempts")
	v.SetDefault("kafka.partitions", 12)
	v.SetDefault("kafka.consumer_group_id", "interview-callback-attempts")

	v.SetDefault("session.user_id", "demo-user")
	v.SetDefault("session.default_user_name", "Demo User")
	v.SetDefault("session.calling_notice", 5*time.Second)
	v.SetDefault("session.record_timeout", 2*time.Second)
	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)
	v.SetDefault("session.max_open", 10000)

	v.SetDefault("throttle.submissions_per_interview", 1)
	v.SetDefault("throttle.lock_ttl", 30*time.Second)
	v.SetDefault("throttle.key_prefix", "interview:callback")

	v.SetDefault("call_bridge.provider_name", "bridge")
	v.SetDefault("call_bridge.request_timeout", 15*time.Second)
	v.SetDefault("call_bridge.call_type", "outboundPhoneCall")
	v.SetDefault("call_bridge.mock_success_rate", 0.8)
	v.SetDefault("call_bridge.assistant.name", "Interview Assistant")
	v.SetDefault("call_bridge.assistant.first_message_template",
		"Hello {{.UserName}}! I'm your AI interviewer for the {{.Position}} position. Are you ready to begin the interview?")
	v.SetDefault("call_bridge.assistant.voice_provider", "azure")
	v.SetDefault("call_bridge.assistant.voice_id", "andrew")
	v.SetDefault("call_bridge.assistant.model_provider", "anthropic")
	v.SetDefault("call_bridge.assistant.model", "claude-3-opus-20240229")
	v.SetDefault("call_bridge.twilio.say_voice", "Polly.Matthew")
}
