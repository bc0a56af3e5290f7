package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP        HTTPConfig    `yaml:"http"`
	Content     ContentConfig `yaml:"content"`
	LocalesPath string        `yaml:"locales_path" env:"LOCALES_PATH" env-required:"true"`
	Auth        AuthConfig    `yaml:"auth"`
}

type HTTPConfig struct {
	Host        string        `yaml:"host" env:"HTTP_HOST"`
	Port        string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type ContentConfig struct {
	BaseDir string `yaml:"base_dir" env:"CONTENT_DIR" env-default:"./content"`
}

// AuthConfig секреты лучше передавать через переменные окружения
type AuthConfig struct {
	AdminUser         string        `yaml:"admin_user" env:"ADMIN_USER" env-default:"admin"`
	AdminPasswordHash string        `yaml:"admin_password_hash" env:"ADMIN_PASSWORD_HASH" env-required:"true"`
	SessionSecret     string        `yaml:"session_secret" env:"SESSION_SECRET" env-required:"true"`
	TokenSecret       string        `yaml:"token_secret" env:"TOKEN_SECRET" env-required:"true"`
	TokenTTL          time.Duration `yaml:"token_ttl" env-default:"1h"`
	CookieSecure      bool          `yaml:"cookie_secure" env:"COOKIE_SECURE"`
	LoginAttempts     int           `yaml:"login_attempts" env-default:"5"`
	LoginWindow       time.Duration `yaml:"login_window" env-default:"15m"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
