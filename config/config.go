package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Debug                    bool          `envconfig:"debug"`
	Port                     int           `envconfig:"port" default:"8080"`
	Env                      string        `envconfig:"env" default:"dev"`
	LogLevel                 string        `envconfig:"log_level" default:"info"`
	LogFormat                string        `envconfig:"log_format" default:"json"`
	DBType                   string        `envconfig:"db_type" default:"postgres"`
	PostgresHost             string        `envconfig:"postgres_host"`
	PostgresUser             string        `envconfig:"postgres_user"`
	PostgresDB               string        `envconfig:"postgres_db"`
	PostgresPort             int           `envconfig:"postgres_port" default:"5432"`
	PostgresPassword         string        `envconfig:"postgres_password"`
	SqlitePath               string        `envconfig:"sqlite_path" default:"firesafe.db"`
	JWTSecret                string        `envconfig:"jwt_secret"`
	BaseUrl                  string        `envconfig:"base_url"`
	AccessControlAllowOrigin string        `envconfig:"access_control_allow_origin"`
	AWSRegion                string        `envconfig:"aws_region"`
	AWSAccessKeyID           string        `envconfig:"aws_access_key_id"`
	AWSSecretAccessKey       string        `envconfig:"aws_secret_access_key"`
	AWSBucket                string        `envconfig:"aws_bucket"`
	AWSEndpoint              string        `envconfig:"aws_endpoint"`
	GeminiApiKey             string        `envconfig:"gemini_api_key"`
	GeminiModel              string        `envconfig:"gemini_model" default:"gemini-1.5-flash"`
	GeminiBaseUrl            string        `envconfig:"gemini_base_url" default:"https://generativelanguage.googleapis.com"`
	FirebaseProjectID        string        `envconfig:"firebase_project_id"`
	FirebaseCredentialsFile  string        `envconfig:"firebase_credentials_file"`
	ExpoAccessToken          string        `envconfig:"expo_access_token"`
	MailgunApiKey            string        `envconfig:"mg_public_api_key"`
	MgDomain                 string        `envconfig:"mg_domain"`
	MgEmailFrom              string        `envconfig:"email_from"`
	RedisAddr                string        `envconfig:"redis_addr"`
	RedisPassword            string        `envconfig:"redis_password"`
	RedisDB                  int           `envconfig:"redis_db"`
	WebhookSecret            string        `envconfig:"webhook_secret"`
	StationStaleAfter        time.Duration `envconfig:"station_stale_after" default:"24h"`
	AdminEmail               string        `envconfig:"admin_email"`
	AdminPassword            string        `envconfig:"admin_password"`
}

func Load() (*Config, error) {
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	err := envconfig.Process("firesafe", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// StorageConfigured reports whether the object storage credentials are present.
func (c *Config) StorageConfigured() bool {
	return c.AWSBucket != "" && c.AWSRegion != "" && c.AWSAccessKeyID != "" && c.AWSSecretAccessKey != ""
}
