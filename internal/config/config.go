package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Storage struct {
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	JWT struct {
		Issuer    string `yaml:"issuer"`
		Audience  string `yaml:"audience"`
		AccessTTL string `yaml:"access_ttl"`
		// SigningKey: seed ed25519 en base64 (32 bytes). Alternativa: SigningKeyFile.
		SigningKey     string `yaml:"signing_key"`
		SigningKeyFile string `yaml:"signing_key_file"`
	} `yaml:"jwt"`

	Providers struct {
		// Timeout de las llamadas de verificación contra el provider.
		Timeout time.Duration `yaml:"timeout"`
		VK      struct {
			Enabled    bool   `yaml:"enabled"`
			APIBase    string `yaml:"api_base"`
			APIVersion string `yaml:"api_version"`
		} `yaml:"vk"`
		Yandex struct {
			Enabled    bool   `yaml:"enabled"`
			InfoURL    string `yaml:"info_url"`
			AvatarBase string `yaml:"avatar_base"`
		} `yaml:"yandex"`
	} `yaml:"providers"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		// Backend: "redis" | "memory"
		Backend string `yaml:"backend"`
		Redis   struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Token struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"token"`
	} `yaml:"rate"`

	Jobs struct {
		Decay struct {
			Enabled bool `yaml:"enabled"`
			// At: hora local de disparo, formato "HH:MM".
			At       string `yaml:"at"`
			Timezone string `yaml:"timezone"`
			Workers  int    `yaml:"workers"`
			PageSize int    `yaml:"page_size"`
		} `yaml:"decay"`
		Retention struct {
			MaxStories int `yaml:"max_stories"`
		} `yaml:"retention"`
		Events struct {
			Buffer  int `yaml:"buffer"`
			Workers int `yaml:"workers"`
		} `yaml:"events"`
	} `yaml:"jobs"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "https://auth.fabula.app"
	}
	if c.JWT.Audience == "" {
		c.JWT.Audience = "fabula"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.Providers.Timeout == 0 {
		c.Providers.Timeout = 10 * time.Second
	}
	if c.Providers.VK.APIBase == "" {
		c.Providers.VK.APIBase = "https://api.vk.com"
	}
	if c.Providers.VK.APIVersion == "" {
		c.Providers.VK.APIVersion = "5.131"
	}
	if c.Providers.Yandex.InfoURL == "" {
		c.Providers.Yandex.InfoURL = "https://login.yandex.ru/info"
	}
	if c.Providers.Yandex.AvatarBase == "" {
		c.Providers.Yandex.AvatarBase = "https://avatars.yandex.net/get-yapic"
	}
	if c.Rate.Backend == "" {
		c.Rate.Backend = "memory"
	}
	if c.Rate.Redis.Prefix == "" {
		c.Rate.Redis.Prefix = "fabula:rl:"
	}
	if c.Rate.Token.Limit == 0 {
		c.Rate.Token.Limit = 10
	}
	if c.Rate.Token.Window == "" {
		c.Rate.Token.Window = "1m"
	}
	if c.Jobs.Decay.At == "" {
		c.Jobs.Decay.At = "03:00"
	}
	if c.Jobs.Decay.Timezone == "" {
		c.Jobs.Decay.Timezone = "Europe/Moscow"
	}
	if c.Jobs.Decay.Workers == 0 {
		c.Jobs.Decay.Workers = 8
	}
	if c.Jobs.Decay.PageSize == 0 {
		c.Jobs.Decay.PageSize = 200
	}
	if c.Jobs.Retention.MaxStories == 0 {
		c.Jobs.Retention.MaxStories = 100
	}
	if c.Jobs.Events.Buffer == 0 {
		c.Jobs.Events.Buffer = 256
	}
	if c.Jobs.Events.Workers == 0 {
		c.Jobs.Events.Workers = 4
	}

	c.applyEnvOverrides()

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	for name, s := range map[string]string{
		"jwt.access_ttl":                c.JWT.AccessTTL,
		"rate.token.window":             c.Rate.Token.Window,
		"storage.postgres.max_lifetime": c.Storage.Postgres.ConnMaxLifetime,
	} {
		if s == "" {
			continue
		}
		if _, err := time.ParseDuration(s); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	if _, err := ParseClock(c.Jobs.Decay.At); err != nil {
		return fmt.Errorf("config: jobs.decay.at: %w", err)
	}
	if _, err := time.LoadLocation(c.Jobs.Decay.Timezone); err != nil {
		return fmt.Errorf("config: jobs.decay.timezone: %w", err)
	}
	return nil
}

// ParseClock parsea "HH:MM" y retorna el offset desde medianoche.
func ParseClock(s string) (time.Duration, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("formato esperado HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("hora inválida en %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("minutos inválidos en %q", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}

	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_AUDIENCE"); ok {
		c.JWT.Audience = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("JWT_SIGNING_KEY"); ok {
		c.JWT.SigningKey = v
	}
	if v, ok := getEnvStr("JWT_SIGNING_KEY_FILE"); ok {
		c.JWT.SigningKeyFile = v
	}

	if v, ok := getEnvDur("PROVIDERS_TIMEOUT"); ok {
		c.Providers.Timeout = v
	}
	if v, ok := getEnvBool("VK_ENABLED"); ok {
		c.Providers.VK.Enabled = v
	}
	if v, ok := getEnvStr("VK_API_BASE"); ok {
		c.Providers.VK.APIBase = v
	}
	if v, ok := getEnvBool("YANDEX_ENABLED"); ok {
		c.Providers.Yandex.Enabled = v
	}
	if v, ok := getEnvStr("YANDEX_INFO_URL"); ok {
		c.Providers.Yandex.InfoURL = v
	}

	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Rate.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Rate.Redis.DB = v
	}
	if v, ok := getEnvInt("RATE_TOKEN_LIMIT"); ok {
		c.Rate.Token.Limit = v
	}
	if v, ok := getEnvStr("RATE_TOKEN_WINDOW"); ok {
		c.Rate.Token.Window = v
	}

	if v, ok := getEnvBool("DECAY_ENABLED"); ok {
		c.Jobs.Decay.Enabled = v
	}
	if v, ok := getEnvStr("DECAY_AT"); ok {
		c.Jobs.Decay.At = v
	}
	if v, ok := getEnvStr("DECAY_TIMEZONE"); ok {
		c.Jobs.Decay.Timezone = v
	}
	if v, ok := getEnvInt("DECAY_WORKERS"); ok {
		c.Jobs.Decay.Workers = v
	}
	if v, ok := getEnvInt("RETENTION_MAX_STORIES"); ok {
		c.Jobs.Retention.MaxStories = v
	}
	if v, ok := getEnvInt("EVENTS_BUFFER"); ok {
		c.Jobs.Events.Buffer = v
	}
	if v, ok := getEnvInt("EVENTS_WORKERS"); ok {
		c.Jobs.Events.Workers = v
	}
}

// AccessTTL retorna el TTL del credential ya parseado.
func (c *Config) AccessTTL() time.Duration {
	d, _ := time.ParseDuration(c.JWT.AccessTTL)
	return d
}

// TokenWindow retorna la ventana de rate-limit del endpoint de token.
func (c *Config) TokenWindow() time.Duration {
	d, _ := time.ParseDuration(c.Rate.Token.Window)
	return d
}
