package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"golang.org/x/text/currency"
)

// Server はAPIサーバーの設定
type Server struct {
	Port string `envconfig:"PORT" default:"8080"` // サーバーポート

	Storage          string `envconfig:"STORAGE" default:"postgres"` // postgres/memory
	DatabaseURL      string `envconfig:"DATABASE_URL"`               // あれば最優先
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"postgres"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:"postgres"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"app"`
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`

	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"` // JWT署名シークレット
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	Currency string `envconfig:"CART_CURRENCY" default:"JPY"` // カートの通貨（ISO 4217）
	GoEnv    string `envconfig:"GO_ENV" default:"dev"`        // dev/prod
	SeedDemo bool   `envconfig:"SEED_DEMO"`                   // デモ商品を入れる
}

// Client はカート同期クライアント（cartctl）の設定
type Client struct {
	APIURL         string        `envconfig:"CART_API_URL" default:"http://localhost:8080"`
	Token          string        `envconfig:"CART_TOKEN"`
	Currency       string        `envconfig:"CART_CURRENCY" default:"JPY"`
	DebounceWindow time.Duration `envconfig:"CART_DEBOUNCE_WINDOW" default:"500ms"`
	RequestTimeout time.Duration `envconfig:"CART_REQUEST_TIMEOUT" default:"10s"`
	GoEnv          string        `envconfig:"GO_ENV" default:"dev"`
}

// .envは無くてもよい。既に設定済みの環境変数は上書きしない。
func loadDotenv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// LoadServer は環境変数（と.env）から読む
func LoadServer(dotenv ...string) (Server, error) {
	loadDotenv(dotenv...)

	var cfg Server
	if err := envconfig.Process("", &cfg); err != nil {
		return Server{}, errors.Wrap(err, "load server config")
	}

	cur, err := normalizeCurrency(cfg.Currency)
	if err != nil {
		return Server{}, err
	}
	cfg.Currency = cur

	switch cfg.Storage {
	case "postgres", "memory":
	default:
		return Server{}, errors.Errorf("STORAGE must be postgres or memory, got %q", cfg.Storage)
	}
	if cfg.SessionTTL <= 0 {
		return Server{}, errors.New("SESSION_TTL must be positive")
	}
	return cfg, nil
}

// LoadClient は環境変数（と.env）から読む
func LoadClient(dotenv ...string) (Client, error) {
	loadDotenv(dotenv...)

	var cfg Client
	if err := envconfig.Process("", &cfg); err != nil {
		return Client{}, errors.Wrap(err, "load client config")
	}

	cur, err := normalizeCurrency(cfg.Currency)
	if err != nil {
		return Client{}, err
	}
	cfg.Currency = cur

	if cfg.DebounceWindow < 0 {
		return Client{}, errors.New("CART_DEBOUNCE_WINDOW must not be negative")
	}
	if cfg.RequestTimeout <= 0 {
		return Client{}, errors.New("CART_REQUEST_TIMEOUT must be positive")
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return cfg, nil
}

// DSN はgorm.Open用の接続文字列
func (c Server) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "host=" + c.PostgresHost +
		" port=" + strconv.Itoa(c.PostgresPort) +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// Addr は ":8080" 形式
func (c Server) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func normalizeCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", errors.Wrapf(err, "CART_CURRENCY %q", code)
	}
	return unit.String(), nil
}
