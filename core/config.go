package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *Config

type (
	ServerConfig struct {
		Host                      string
		Port                      string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	BillingConfig struct {
		APIKey        string
		WebhookSecret string
		PriceID       string
		SuccessURL    string
		CancelURL     string
	}

	RateLimitConfig struct {
		RequestsPerMinute int
		Burst             int
	}

	Config struct {
		Env      string // DEV (local; default), TEST, QA, PROD
		Debug    bool
		TestMode bool
		Build    string

		AppName         string
		SecretKey       string
		FrontendBaseURL string
		WorkDir         string

		DefaultFromEmail mail.Address
		SupportEmail     mail.Address
		SendgridApiKey   string
		RollbarToken     string

		PasswordResetTimeoutDelta time.Duration
		GrindReminderWindow       time.Duration
		TimetableYear             int

		Server    ServerConfig
		Database  DatabaseConfig
		Billing   BillingConfig
		RateLimit RateLimitConfig
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func init() {
	Conf = loadConfig()
}

func loadConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "PrepDesk")
	v.SetDefault("secretKey", "w3u$-pex)usd$+40=hk&qozh7(d!y)#*c9(#yg5h^$cegm1emy")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("supportEmail", "support@localhost")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("grindReminderWindow", 24*time.Hour)
	v.SetDefault("timetableYear", time.Now().Year())
	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseName", "prepdesk")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", "5432")
	v.SetDefault("databaseDisableTLS", true)
	v.SetDefault("billingSuccessURL", "/billing/success")
	v.SetDefault("billingCancelURL", "/billing/canceled")
	v.SetDefault("rateLimitRequestsPerMinute", 10)
	v.SetDefault("rateLimitBurst", 5)

	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		WorkDir:          Getwd(),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		SupportEmail:     mail.Address{Name: v.GetString("appName") + " Support", Address: v.GetString("supportEmail")},
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),

		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		GrindReminderWindow:       v.GetDuration("grindReminderWindow"),
		TimetableYear:             v.GetInt("timetableYear"),

		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Port:                      v.GetString("serverPort"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("databaseEngine"),
			Name:          v.GetString("databaseName"),
			User:          v.GetString("databaseUser"),
			Password:      v.GetString("databasePassword"),
			AdminUser:     v.GetString("databaseAdminUser"),
			AdminPassword: v.GetString("databaseAdminPassword"),
			Host:          v.GetString("databaseHost"),
			Port:          v.GetString("databasePort"),
			DisableTLS:    v.GetBool("databaseDisableTLS"),
		},
		Billing: BillingConfig{
			APIKey:        v.GetString("billingApiKey"),
			WebhookSecret: v.GetString("billingWebhookSecret"),
			PriceID:       v.GetString("billingPriceID"),
			SuccessURL:    v.GetString("billingSuccessURL"),
			CancelURL:     v.GetString("billingCancelURL"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: v.GetInt("rateLimitRequestsPerMinute"),
			Burst:             v.GetInt("rateLimitBurst"),
		},
	}
}
