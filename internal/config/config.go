package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Insecure placeholder values that must never survive into production.
var insecureDefaults = map[string]bool{
	"your-secret-key-change-in-production": true,
	"internal-secret":                      true,
	"admin-key":                            true,
	"":                                     true,
}

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	JWT            JWTConfig
	Referral       ReferralConfig
	InternalSecret string
	AdminAPIKey    string
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

type ReferralConfig struct {
	// SharePercent of each purchase price credited to the referrer, 0-100.
	SharePercent int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, using system environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Mode: getEnv("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "vpn_user"),
			Password: getEnv("DB_PASSWORD", "vpn_pass"),
			DBName:   getEnv("DB_NAME", "vpn_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET_KEY", ""),
		},
		Referral: ReferralConfig{
			SharePercent: getEnvInt("REFERRAL_SHARE_PERCENT", 10),
		},
		InternalSecret: getEnv("INTERNAL_SECRET", ""),
		AdminAPIKey:    getEnv("ADMIN_API_KEY", ""),
	}

	log.Printf("[config] VPN service loaded: port=%s db=%s/%s referral_share=%d%%",
		cfg.Server.Port, cfg.Database.Host, cfg.Database.DBName, cfg.Referral.SharePercent)

	return cfg
}

// Validate rejects configurations that would run with missing or placeholder
// secrets.
func (c *Config) Validate() error {
	if insecureDefaults[c.JWT.SecretKey] {
		return fmt.Errorf("JWT_SECRET_KEY must be set to a secure value")
	}
	if len(c.JWT.SecretKey) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters long")
	}

	if insecureDefaults[c.InternalSecret] {
		return fmt.Errorf("INTERNAL_SECRET must be set to a secure value")
	}
	if len(c.InternalSecret) < 32 {
		return fmt.Errorf("INTERNAL_SECRET must be at least 32 characters long")
	}

	if insecureDefaults[c.AdminAPIKey] {
		return fmt.Errorf("ADMIN_API_KEY must be set to a secure value")
	}

	if c.Referral.SharePercent < 0 || c.Referral.SharePercent > 100 {
		return fmt.Errorf("REFERRAL_SHARE_PERCENT must be between 0 and 100")
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
