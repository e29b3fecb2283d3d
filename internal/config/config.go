package config

import (
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Tables struct {
	Schema       string
	Category     string
	Product      string
	ProductImage string
	Review       string
	Order        string
	OrderItem    string
	User         string
	Wishlist     string
	Contact      string
}

type Kafka struct {
	Brokers     []string
	Topic       string
	Group       string
	Workers     int
	Partitions  int
	Replication int
}

type Postgres struct {
	Host     string
	Port     string
	DB       string
	User     string
	Password string
	SSLMode  string
}

type Breaker struct {
	Threshold   uint32
	OpenTimeout time.Duration
	MaxHalfOpen uint32
}

type Retry struct {
	Attempts     int
	Base         time.Duration
	Max          time.Duration
	JitterFactor float64
}

type Auth struct {
	Secret       string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	CookieDomain string
	SecureCookie bool
}

type LiqPay struct {
	PublicKey  string
	PrivateKey string
	Currency   string
	Sandbox    bool
	ResultURL  string
	ServerURL  string
}

type Mail struct {
	APIKey   string
	From     string
	FromName string
	To       string
}

type Cache struct {
	ProductSize  int
	ProductTTL   time.Duration
	HomepageTTL  time.Duration
	SaleMinDays  int
	SaleMaxDays  int
	RandomSeed   uint64
	SeedFromTime bool
}

type Config struct {
	HTTPAddr       string
	Env            string
	AllowedOrigins []string
	SideEffectTTL  time.Duration
	NotifyWorkers  int

	Pg      Postgres
	Tables  Tables
	Kafka   Kafka
	Breaker Breaker
	Retry   Retry
	Auth    Auth
	LiqPay  LiqPay
	Mail    Mail
	Cache   Cache
}

// Load keeps the original API and fatals on error for simplicity in main().
func Load() Config {
	cfg, err := load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	return cfg
}

func load() (Config, error) {
	_ = godotenv.Load("env/.env")

	seed, seedSet := envUint64("RANDOM_SEED")

	cfg := Config{
		HTTPAddr:       envDefault("HTTP_ADDR", ":8081"),
		Env:            envDefault("APP_ENV", "development"),
		AllowedOrigins: splitCSV(envDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
		SideEffectTTL:  envDurationMS("SIDE_EFFECT_TIMEOUT", 5*time.Second),
		NotifyWorkers:  envInt("NOTIFY_WORKERS", 4),

		Pg: Postgres{
			Host:     strings.TrimSpace(os.Getenv("PG_HOST")),
			Port:     strings.TrimSpace(envDefault("PG_PORT", "5432")),
			DB:       strings.TrimSpace(os.Getenv("PG_DB")),
			User:     strings.TrimSpace(os.Getenv("PG_USER")),
			Password: strings.TrimSpace(os.Getenv("PG_PASSWORD")),
			SSLMode:  strings.TrimSpace(envDefault("PG_SSLMODE", "disable")),
		},

		Tables: Tables{
			Schema:       strings.TrimSpace(os.Getenv("DB_SCHEMA")),
			Category:     envDefault("TBL_CATEGORY", "categories"),
			Product:      envDefault("TBL_PRODUCT", "products"),
			ProductImage: envDefault("TBL_PRODUCT_IMAGE", "product_images"),
			Review:       envDefault("TBL_REVIEW", "reviews"),
			Order:        envDefault("TBL_ORDER", "orders"),
			OrderItem:    envDefault("TBL_ORDER_ITEM", "order_items"),
			User:         envDefault("TBL_USER", "users"),
			Wishlist:     envDefault("TBL_WISHLIST", "wishlist"),
			Contact:      envDefault("TBL_CONTACT", "contact_requests"),
		},

		Kafka: Kafka{
			Brokers:     splitCSV(strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))),
			Topic:       envDefault("KAFKA_TOPIC", "orders.placed"),
			Group:       envDefault("KAFKA_GROUP", "order-notifier"),
			Workers:     envInt("KAFKA_WORKERS", 4),
			Partitions:  envInt("KAFKA_PARTITIONS", 3),
			Replication: envInt("KAFKA_REPLICATION", 1),
		},

		Breaker: Breaker{
			Threshold:   envUint32("BREAKER_THRESHOLD", 5),
			OpenTimeout: envDurationMS("BREAKER_OPENTIMEOUT", 10*time.Second),
			MaxHalfOpen: envUint32("BREAKER_MAXHALFOPEN", 3),
		},

		Retry: Retry{
			Attempts:     envInt("RETRY_ATTEMPTS", 5),
			Base:         envDurationMS("RETRY_BASE", 100*time.Millisecond),
			Max:          envDurationMS("RETRY_MAX", 5*time.Second),
			JitterFactor: envFloat64("RETRY_JITTERFACTOR", 0.3),
		},

		Auth: Auth{
			Secret:       strings.TrimSpace(os.Getenv("JWT_SECRET")),
			AccessTTL:    envDurationMS("JWT_ACCESS_TTL", time.Hour),
			RefreshTTL:   envDurationMS("JWT_REFRESH_TTL", 7*24*time.Hour),
			CookieDomain: strings.TrimSpace(os.Getenv("COOKIE_DOMAIN")),
			SecureCookie: envBool("COOKIE_SECURE", true),
		},

		LiqPay: LiqPay{
			PublicKey:  strings.TrimSpace(os.Getenv("LIQPAY_PUBLIC_KEY")),
			PrivateKey: strings.TrimSpace(os.Getenv("LIQPAY_PRIVATE_KEY")),
			Currency:   envDefault("LIQPAY_CURRENCY", "USD"),
			Sandbox:    envBool("LIQPAY_SANDBOX", true),
			ResultURL:  strings.TrimSpace(os.Getenv("LIQPAY_RESULT_URL")),
			ServerURL:  strings.TrimSpace(os.Getenv("LIQPAY_SERVER_URL")),
		},

		Mail: Mail{
			APIKey:   strings.TrimSpace(os.Getenv("SENDGRID_API_KEY")),
			From:     strings.TrimSpace(os.Getenv("SENDGRID_FROM")),
			FromName: envDefault("SENDGRID_FROM_NAME", "Storefront"),
			To:       strings.TrimSpace(os.Getenv("EMAIL_TO")),
		},

		Cache: Cache{
			ProductSize:  envInt("PRODUCT_CACHE_SIZE", 1000),
			ProductTTL:   envDurationMS("PRODUCT_CACHE_TTL", 10*time.Minute),
			HomepageTTL:  envDurationMS("HOMEPAGE_TTL", 30*time.Minute),
			SaleMinDays:  envInt("SALE_MIN_DAYS", 2),
			SaleMaxDays:  envInt("SALE_MAX_DAYS", 6),
			RandomSeed:   seed,
			SeedFromTime: !seedSet,
		},
	}

	// Validate required envs and basic sanity.
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	req := map[string]string{
		"PG_HOST":       c.Pg.Host,
		"PG_DB":         c.Pg.DB,
		"PG_USER":       c.Pg.User,
		"PG_PASSWORD":   c.Pg.Password,
		"DB_SCHEMA":     c.Tables.Schema,
		"KAFKA_BROKERS": strings.Join(c.Kafka.Brokers, ","),
		"JWT_SECRET":    c.Auth.Secret,
	}
	for k, v := range req {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &missingEnvError{Keys: missing}
	}

	if c.Cache.ProductSize <= 0 {
		log.Printf("PRODUCT_CACHE_SIZE is %d, adjusting to 1", c.Cache.ProductSize)
	}
	if c.Cache.SaleMaxDays <= c.Cache.SaleMinDays {
		log.Printf("SALE_MAX_DAYS (%d) <= SALE_MIN_DAYS (%d), sale TTL will not be jittered", c.Cache.SaleMaxDays, c.Cache.SaleMinDays)
	}
	if c.Retry.Attempts < 0 {
		log.Printf("RETRY_ATTEMPTS is %d, adjusting to 0", c.Retry.Attempts)
	}
	if c.Retry.Base <= 0 {
		log.Printf("RETRY_BASE is %v, adjusting to 100ms", c.Retry.Base)
	}
	if c.Retry.Max < c.Retry.Base {
		log.Printf("RETRY_MAX (%v) < RETRY_BASE (%v), adjusting max to base", c.Retry.Max, c.Retry.Base)
	}
	if c.LiqPay.PrivateKey == "" {
		log.Printf("LIQPAY_PRIVATE_KEY is empty, payment payloads will not be generated")
	}
	if c.Mail.APIKey == "" {
		log.Printf("SENDGRID_API_KEY is empty, outgoing mail will fail")
	}
	return nil
}

type missingEnvError struct{ Keys []string }

func (e *missingEnvError) Error() string {
	return "missing required envs: " + strings.Join(e.Keys, ", ")
}

// DSN builds a proper Postgres URL, safely escaping user/pass and query.
func (c Config) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Pg.User, c.Pg.Password),
		Host:   net.JoinHostPort(c.Pg.Host, c.Pg.Port),
		Path:   "/" + c.Pg.DB,
	}
	q := url.Values{}
	if c.Pg.SSLMode != "" {
		q.Set("sslmode", c.Pg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c Config) IsProduction() bool { return strings.EqualFold(c.Env, "production") }

func envDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return n
}

func envUint32(k string, def uint32) uint32 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	u, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return uint32(u)
}

// envUint64 reports whether the key was set to a valid value.
func envUint64(k string) (uint64, bool) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return 0, false
	}
	u, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, ignoring: %v", k, v, err)
		return 0, false
	}
	return u, true
}

func envFloat64(k string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %.3f: %v", k, v, def, err)
		return def
	}
	return f
}

func envBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %t: %v", k, v, def, err)
		return def
	}
	return b
}

// envDurationMS supports either plain integer milliseconds ("1500") or
// Go duration strings ("1.5s", "250ms", "2m").
func envDurationMS(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' }) != -1 {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
			return def
		}
		return d
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
