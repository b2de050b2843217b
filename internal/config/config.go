package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Log      LogConfig
	App      AppConfig
	AI       AIConfig
	Mood     MoodConfig
	Reminder ReminderConfig
	Tracker  TrackerConfig
	Metrics  MetricsConfig
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string `validate:"required"`
}

// StoreConfig 描述本地持久化配置。
type StoreConfig struct {
	Path     string
	InMemory bool
}

// LogConfig 日志级别与输出格式。
type LogConfig struct {
	Level  string `validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Timezone string
}

// Location resolves the configured timezone, defaulting to the host's local zone.
func (c AppConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider          string  `validate:"oneof=gemini ark openai"`
	Model             string
	Temperature       float64 `validate:"gte=0,lte=2"`
	Timeout           time.Duration `validate:"gt=0"`
	SystemInstruction string
	Gemini            GeminiConfig
	Ark               ArkConfig
	OpenAI            OpenAIConfig
}

// GeminiConfig Google Gemini 凭证。
type GeminiConfig struct {
	APIKey string
}

// ArkConfig 火山方舟凭证。
type ArkConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	BaseURL   string
	Region    string
	Model     string
}

// OpenAIConfig OpenAI 兼容接口凭证。
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

// MoodConfig 控制情绪分析触发。
type MoodConfig struct {
	HistoryLimit int           `validate:"gte=1"`
	Every        int           `validate:"gte=1"`
	Timeout      time.Duration `validate:"gt=0"`
}

// ReminderConfig 每日提醒配置。
type ReminderConfig struct {
	PollInterval time.Duration `validate:"gt=0"`
	Title        string
	Body         string
}

// TrackerConfig 陪伴时长统计配置。
type TrackerConfig struct {
	Interval time.Duration `validate:"gt=0"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// Enabled 表示当前 provider 是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderGemini:
		return c.Gemini.APIKey != ""
	case ProviderArk:
		return c.Ark.Enabled()
	case ProviderOpenAI:
		return c.OpenAI.APIKey != ""
	default:
		return false
	}
}

// ModelName returns the configured model or the provider default.
func (c AIConfig) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case ProviderGemini:
		return "gemini-2.5-flash"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderArk:
		return c.Ark.Model
	default:
		return ""
	}
}

// Enabled 表示是否提供了 Ark 必需的密钥。
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个 Ark 模型实例。
func (c ArkConfig) NewChatModel(ctx context.Context, temperature float64) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	temp := float32(temperature)
	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		Temperature: &temp,
	})
}

// Load 从环境变量以及可选的 YAML 文件加载配置。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	server, err := loadServerConfig(v.GetString("server.addr"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: server,
		Store: StoreConfig{
			Path:     v.GetString("store.path"),
			InMemory: v.GetBool("store.inMemory"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Pretty: v.GetBool("log.pretty"),
		},
		App: AppConfig{Timezone: v.GetString("app.timezone")},
		AI: AIConfig{
			Provider:          strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
			Model:             strings.TrimSpace(v.GetString("ai.model")),
			Temperature:       v.GetFloat64("ai.temperature"),
			Timeout:           v.GetDuration("ai.timeout"),
			SystemInstruction: v.GetString("ai.systemInstruction"),
			Gemini: GeminiConfig{
				APIKey: strings.TrimSpace(v.GetString("ai.gemini.apiKey")),
			},
			Ark: ArkConfig{
				APIKey:    strings.TrimSpace(v.GetString("ai.ark.apiKey")),
				AccessKey: strings.TrimSpace(v.GetString("ai.ark.accessKey")),
				SecretKey: strings.TrimSpace(v.GetString("ai.ark.secretKey")),
				BaseURL:   v.GetString("ai.ark.baseURL"),
				Region:    v.GetString("ai.ark.region"),
				Model:     strings.TrimSpace(v.GetString("ai.ark.model")),
			},
			OpenAI: OpenAIConfig{
				APIKey:  strings.TrimSpace(v.GetString("ai.openai.apiKey")),
				BaseURL: v.GetString("ai.openai.baseURL"),
			},
		},
		Mood: MoodConfig{
			HistoryLimit: v.GetInt("mood.historyLimit"),
			Every:        v.GetInt("mood.every"),
			Timeout:      v.GetDuration("mood.timeout"),
		},
		Reminder: ReminderConfig{
			PollInterval: v.GetDuration("reminder.pollInterval"),
			Title:        v.GetString("reminder.title"),
			Body:         v.GetString("reminder.body"),
		},
		Tracker: TrackerConfig{Interval: v.GetDuration("tracker.interval")},
		Metrics: MetricsConfig{Enabled: v.GetBool("metrics.enabled")},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "8080")
	v.SetDefault("store.path", ".mindpal/data")
	v.SetDefault("store.inMemory", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("app.timezone", "")
	v.SetDefault("ai.provider", ProviderGemini)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.ark.baseURL", "https://ark.cn-beijing.volces.com/api/v3")
	v.SetDefault("ai.ark.region", "cn-beijing")
	v.SetDefault("mood.historyLimit", 6)
	v.SetDefault("mood.every", 3)
	v.SetDefault("mood.timeout", 30*time.Second)
	v.SetDefault("reminder.pollInterval", time.Second)
	v.SetDefault("reminder.title", "MindPal 每日提醒")
	v.SetDefault("reminder.body", "今天过得怎么样？来聊聊吧！🌿")
	v.SetDefault("tracker.interval", time.Second)
	v.SetDefault("metrics.enabled", true)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("MINDPAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("server.addr", "PORT")
	_ = v.BindEnv("ai.gemini.apiKey", "GEMINI_API_KEY", "API_KEY")
	_ = v.BindEnv("ai.ark.apiKey", "ARK_API_KEY")
	_ = v.BindEnv("ai.ark.accessKey", "ARK_ACCESS_KEY")
	_ = v.BindEnv("ai.ark.secretKey", "ARK_SECRET_KEY")
	_ = v.BindEnv("ai.ark.baseURL", "ARK_BASE_URL")
	_ = v.BindEnv("ai.ark.region", "ARK_REGION")
	_ = v.BindEnv("ai.ark.model", "Model")
	_ = v.BindEnv("ai.openai.apiKey", "OPENAI_API_KEY")
	_ = v.BindEnv("ai.openai.baseURL", "OPENAI_BASE_URL")
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig(port string) (ServerConfig, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}
