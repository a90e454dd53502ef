package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	S3BucketName   string // optional; QR images are inlined when empty
	SNSRegion      string
	ReportTopicARN string // optional; report events are not published when empty

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	// OTPDispatchURL points at the otp-mailer function. When empty the API
	// sends verification mail over SMTP itself.
	OTPDispatchURL string
	MailerPort     string

	RedisAddr     string // optional; login attempts are counted in memory when empty
	RedisPassword string
	RedisDB       int

	InstitutionDomain string
	CatalogPath       string // optional; the embedded catalog is used when empty

	AllowedOrigins []string // CORS allowed origins

	TrustProxyHeaders bool // throttles key on X-Forwarded-For only behind a trusted proxy
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	Credentials   string
	Verifications string
	Reports       string
	Redemptions   string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "eu-central-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Credentials:   getEnv("DYNAMO_TABLE_CREDENTIALS", "credentials"),
			Verifications: getEnv("DYNAMO_TABLE_VERIFICATIONS", "verifications"),
			Reports:       getEnv("DYNAMO_TABLE_REPORTS", "occupancy_reports"),
			Redemptions:   getEnv("DYNAMO_TABLE_REDEMPTIONS", "redemptions"),
		},

		S3BucketName:   getEnv("S3_BUCKET_NAME", ""),
		SNSRegion:      getEnv("SNS_REGION", getEnv("AWS_REGION", "eu-central-1")),
		ReportTopicARN: getEnv("SNS_REPORT_TOPIC_ARN", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@libocculus.app"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		OTPDispatchURL: getEnv("OTP_DISPATCH_URL", ""),
		MailerPort:     getEnv("MAILER_PORT", "8888"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		InstitutionDomain: getEnv("INSTITUTION_EMAIL_DOMAIN", "metu.edu.tr"),
		CatalogPath:       getEnv("CATALOG_PATH", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
