package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mailbeacon/models"
)

var (
	DB        *gorm.DB
	AppConfig Config
)

// Default sub-pages checked during scraping, including the German set the
// service was originally tuned for.
var defaultCommonPages = []string{
	"/contact", "/contact-us", "/contactus", "/contact_us",
	"/about", "/about-us", "/aboutus", "/about_us",
	"/team", "/our-team", "/our_team", "/meet-the-team",
	"/people", "/staff", "/company", "/imprint",
	"/kontakt", "/impressum", "/ueber-uns", "/ueber_uns",
	"/karriere", "/datenschutz",
}

var defaultGenericPrefixes = []string{
	"info", "contact", "hello", "help", "support", "admin", "office",
	"sales", "press", "media", "marketing", "jobs", "careers", "hiring",
	"privacy", "security", "legal", "membership", "team", "people",
	"general", "feedback", "enquiries", "inquiries", "mail", "email",
	"pitch", "invest", "investors", "ir", "webmaster", "newsletter",
	"apply", "partner", "partners", "ventures",
	"kontakt", "hallo", "hilfe", "buero",
	"vertrieb", "presse", "karriere", "datenschutz", "recht",
	"allgemein", "anfragen", "post",
}

var defaultDNSServers = []string{"8.8.8.8", "8.8.4.4", "1.1.1.1", "1.0.0.1"}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

// Settings holds everything the discovery engine reads. The engine treats it
// as an opaque read-only value; validation happens here, once, at load time.
type Settings struct {
	RequestTimeout time.Duration `json:"request_timeout"`
	DNSTimeout     time.Duration `json:"dns_timeout"`
	SMTPTimeout    time.Duration `json:"smtp_timeout"`

	MinSleepBetweenRequests time.Duration `json:"min_sleep_between_requests"`
	MaxSleepBetweenRequests time.Duration `json:"max_sleep_between_requests"`

	CommonPagesToScrape []string `json:"common_pages_to_scrape"`
	UserAgent           string   `json:"user_agent"`
	ScrapeConcurrency   int      `json:"scrape_concurrency"`
	ScrapeMaxRedirects  int      `json:"scrape_max_redirects"`
	ScrapeRatePerSecond float64  `json:"scrape_rate_per_second"`

	DNSServers []string `json:"dns_servers"`

	SMTPSenderEmail         string `json:"smtp_sender_email"`
	SMTPHelloDomain         string `json:"smtp_hello_domain"`
	MaxVerificationAttempts int    `json:"max_verification_attempts"`

	ConfidenceThreshold        int             `json:"confidence_threshold"`
	GenericConfidenceThreshold int             `json:"generic_confidence_threshold"`
	MaxAlternatives            int             `json:"max_alternatives"`
	MaxCandidates              int             `json:"max_candidates"`
	GenericEmailPrefixes       map[string]bool `json:"-"`

	MaxConcurrency int           `json:"max_concurrency"`
	ContactTimeout time.Duration `json:"contact_timeout"`
}

type Config struct {
	Environment string      `json:"environment"`
	ServerPort  string      `json:"server_port"`
	Engine      Settings    `json:"engine"`
	Redis       RedisConfig `json:"redis"`

	// Postgres is optional: when DBHost is empty the bulk-job endpoints are
	// disabled and nothing else touches the database.
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"-"`
	DBName     string `json:"db_name"`
	DBSSLMode  string `json:"db_ssl_mode"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
}

func LoadConfig() error {
	AppConfig = Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", "5000"),
		Engine: Settings{
			RequestTimeout:             getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
			DNSTimeout:                 getEnvAsDuration("DNS_TIMEOUT", 5*time.Second),
			SMTPTimeout:                getEnvAsDuration("SMTP_TIMEOUT", 5*time.Second),
			MinSleepBetweenRequests:    getEnvAsDuration("MIN_SLEEP_BETWEEN_REQUESTS", 100*time.Millisecond),
			MaxSleepBetweenRequests:    getEnvAsDuration("MAX_SLEEP_BETWEEN_REQUESTS", 500*time.Millisecond),
			CommonPagesToScrape:        getEnvAsSlice("COMMON_PAGES_TO_SCRAPE", defaultCommonPages),
			UserAgent:                  getEnv("USER_AGENT", defaultUserAgent),
			ScrapeConcurrency:          getEnvAsInt("SCRAPE_CONCURRENCY", 3),
			ScrapeMaxRedirects:         getEnvAsInt("SCRAPE_MAX_REDIRECTS", 5),
			ScrapeRatePerSecond:        getEnvAsFloat("SCRAPE_RATE_PER_SECOND", 4),
			DNSServers:                 getEnvAsSlice("DNS_SERVERS", defaultDNSServers),
			SMTPSenderEmail:            getEnv("SMTP_SENDER_EMAIL", "verify-probe@example.com"),
			SMTPHelloDomain:            getEnv("SMTP_HELLO_DOMAIN", "localhost"),
			MaxVerificationAttempts:    getEnvAsInt("MAX_VERIFICATION_ATTEMPTS", 2),
			ConfidenceThreshold:        getEnvAsInt("CONFIDENCE_THRESHOLD", 4),
			GenericConfidenceThreshold: getEnvAsInt("GENERIC_CONFIDENCE_THRESHOLD", 7),
			MaxAlternatives:            getEnvAsInt("MAX_ALTERNATIVES", 5),
			MaxCandidates:              getEnvAsInt("MAX_CANDIDATES", 15),
			GenericEmailPrefixes:       toSet(getEnvAsSlice("GENERIC_EMAIL_PREFIXES", defaultGenericPrefixes)),
			MaxConcurrency:             getEnvAsInt("MAX_CONCURRENCY", 8),
			ContactTimeout:             getEnvAsDuration("CONTACT_TIMEOUT", 2*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "mailbeacon"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	if err := validateSettings(&AppConfig.Engine); err != nil {
		return err
	}

	logConfig()
	return nil
}

func validateSettings(s *Settings) error {
	if s.SMTPSenderEmail == "" || !strings.Contains(s.SMTPSenderEmail, "@") {
		return fmt.Errorf("SMTP_SENDER_EMAIL is invalid: %q", s.SMTPSenderEmail)
	}
	if s.MinSleepBetweenRequests > s.MaxSleepBetweenRequests {
		log.Printf("⚠️ Min sleep (%v) > max sleep (%v), clamping max to min", s.MinSleepBetweenRequests, s.MaxSleepBetweenRequests)
		s.MaxSleepBetweenRequests = s.MinSleepBetweenRequests
	}
	if len(s.DNSServers) == 0 {
		log.Println("⚠️ DNS server list is empty, falling back to public resolvers")
		s.DNSServers = append([]string{}, defaultDNSServers...)
	}
	if s.ConfidenceThreshold > 10 {
		s.ConfidenceThreshold = 10
	}
	if s.GenericConfidenceThreshold > 10 {
		s.GenericConfidenceThreshold = 10
	}
	if s.GenericConfidenceThreshold < s.ConfidenceThreshold {
		log.Printf("⚠️ Generic threshold (%d) < base threshold (%d), raising generic to base",
			s.GenericConfidenceThreshold, s.ConfidenceThreshold)
		s.GenericConfidenceThreshold = s.ConfidenceThreshold
	}
	if s.MaxConcurrency < 1 {
		s.MaxConcurrency = 1
	}
	if s.MaxVerificationAttempts < 1 {
		s.MaxVerificationAttempts = 1
	}
	return nil
}

func ConnectDB() error {
	if AppConfig.DBHost == "" {
		log.Println("⚠️ DB_HOST not set, running without job persistence")
		return nil
	}

	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✅ Successfully connected to the database")
	log.Println("🔄 Starting database migration...")
	if err := DB.AutoMigrate(&models.DiscoveryJob{}, &models.DiscoveryResult{}); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("✅ Database migration completed")
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return fallback
	}
	return value
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value float64
	if _, err := fmt.Sscanf(valueStr, "%g", &value); err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsSlice(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return append([]string{}, fallback...)
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return append([]string{}, fallback...)
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	log.Printf("DNS Servers: %s", strings.Join(AppConfig.Engine.DNSServers, ", "))
	log.Printf("Thresholds: confidence=%d generic=%d",
		AppConfig.Engine.ConfidenceThreshold, AppConfig.Engine.GenericConfidenceThreshold)
	log.Printf("Persistence: postgres(%t), redis cache(%t)",
		AppConfig.DBHost != "", AppConfig.Redis.Enabled)
}
