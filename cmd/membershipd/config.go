package main

import (
	"strings"

	"github.com/spf13/viper"
)

// AppConfig carries everything the daemon needs to run. It satisfies the
// membership.Config interface so it can be handed to the authenticator and
// the token guard directly.
type AppConfig struct {
	Address       string `mapstructure:"address"`
	DSN           string `mapstructure:"dsn"`
	Debug         bool   `mapstructure:"debug"`
	SigningSecret string `mapstructure:"signing_secret"`
	TokenLifetime int    `mapstructure:"token_lifetime"`
	Issuer        string `mapstructure:"issuer"`
	ContextKey    string `mapstructure:"context_key"`
	AuthScheme    string `mapstructure:"auth_scheme"`
	PhoneRegion   string `mapstructure:"phone_region"`

	// SeedUsername/SeedPassword provision an initial account at startup when
	// both are set. Seeding is idempotent across restarts.
	SeedUsername string `mapstructure:"seed_username"`
	SeedPassword string `mapstructure:"seed_password"`
}

func (c *AppConfig) GetSigningSecret() string { return c.SigningSecret }
func (c *AppConfig) GetTokenLifetime() int    { return c.TokenLifetime }
func (c *AppConfig) GetIssuer() string        { return c.Issuer }
func (c *AppConfig) GetContextKey() string    { return c.ContextKey }
func (c *AppConfig) GetAuthScheme() string    { return c.AuthScheme }

// LoadConfig reads membershipd.yaml from the working directory or /etc, then
// lets MEMBERSHIP_* environment variables override individual keys.
func LoadConfig() (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("address", ":8572")
	v.SetDefault("dsn", "file:membership.db?cache=shared&mode=rwc")
	v.SetDefault("debug", false)
	v.SetDefault("token_lifetime", 3600)
	v.SetDefault("issuer", "Membership")
	v.SetDefault("context_key", "identity")
	v.SetDefault("auth_scheme", "Bearer")
	v.SetDefault("phone_region", "US")

	v.SetConfigName("membershipd")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/membershipd")

	v.SetEnvPrefix("MEMBERSHIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Defaults plus environment are a complete configuration.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
