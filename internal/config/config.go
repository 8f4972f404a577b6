package config

import (
	"os"
)

type Config struct {
	DBUrl               string
	JWTSecret           string
	SupabaseURL         string
	SupabaseAnonKey     string
	ServiceRoleKey      string
	StripeSecretKey     string
	StripeWebhookSecret string
	ResendAPIKey        string
	DomainURL           string
}

func LoadConfig() *Config {
	return &Config{
		DBUrl:               os.Getenv("SUPABASE_DB_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		SupabaseURL:         os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:     os.Getenv("SUPABASE_ANON_KEY"),
		ServiceRoleKey:      os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		ResendAPIKey:        os.Getenv("RESEND_API_KEY"),
		DomainURL:           os.Getenv("DOMAIN_URL"),
	}
}
