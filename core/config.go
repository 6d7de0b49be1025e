package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage engines
const (
	EngineMongo    = "mongo"
	EnginePostgres = "postgres"
	EngineInMem    = "inmem"
)

type (
	Config struct {
		Debug            bool
		TestMode         bool
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		AppName          string
		WorkDir          string
		SecretKey        string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address
		Server           ServerConfig
		Database         DatabaseConfig
		Push             PushConfig
	}

	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine     string // mongo | postgres | inmem
		URI        string // mongo only
		Name       string
		Host       string
		Port       int
		User       string
		Password   string
		DisableTLS bool
		Timeout    time.Duration
	}

	PushConfig struct {
		URL                 string
		AccessToken         string
		NotificationTimeout time.Duration
	}
)

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, strconv.Itoa(dc.Port))
}

// NewConfig loads the app config from the environment.
// A `config/.env.<env>` file is loaded first if it exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("test_mode", false)
	v.SetDefault("build", "dev")
	v.SetDefault("app_name", "Students Gateway")
	v.SetDefault("secret_key", "g4t3w4y-d3v-k3y!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbar_token", "")
	v.SetDefault("sendgrid_api_key", "")
	v.SetDefault("default_from_email", "Students Gateway <noreply@localhost>")
	v.SetDefault("server_host", ":8000")
	v.SetDefault("server_debug_host", ":4000")
	v.SetDefault("server_shutdown_timeout", 5*time.Second)
	v.SetDefault("jwt_expiration_delta", 7*24*time.Hour)
	v.SetDefault("jwt_refresh_expiration_delta", 4*time.Hour)
	v.SetDefault("database_engine", EngineMongo)
	v.SetDefault("database_uri", "mongodb://localhost:27017")
	v.SetDefault("database_name", "students-gateway")
	v.SetDefault("database_host", "localhost")
	v.SetDefault("database_port", 5432)
	v.SetDefault("database_user", "")
	v.SetDefault("database_password", "")
	v.SetDefault("database_disable_tls", true)
	v.SetDefault("database_timeout", 10*time.Second)
	v.SetDefault("push_url", "https://exp.host/--/api/v2/push/send")
	v.SetDefault("push_access_token", "")
	v.SetDefault("notification_timeout", 30*time.Second)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("test_mode", true)
	}
	v.SetEnvPrefix(env)

	wd := Getwd()
	loadDotEnv(filepath.Join(wd, "config", ".env."+strings.ToLower(env)))
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("default_from_email"))
	if err != nil {
		log.Fatalf("config: parsing default_from_email: %v", err)
	}

	return &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("test_mode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("app_name"),
		WorkDir:          wd,
		SecretKey:        v.GetString("secret_key"),
		RollbarToken:     v.GetString("rollbar_token"),
		SendgridApiKey:   v.GetString("sendgrid_api_key"),
		DefaultFromEmail: *from,
		Server: ServerConfig{
			Host:                      v.GetString("server_host"),
			DebugHost:                 v.GetString("server_debug_host"),
			ShutdownTimeout:           v.GetDuration("server_shutdown_timeout"),
			JWTExpirationDelta:        v.GetDuration("jwt_expiration_delta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwt_refresh_expiration_delta"),
		},
		Database: DatabaseConfig{
			Engine:     strings.ToLower(v.GetString("database_engine")),
			URI:        v.GetString("database_uri"),
			Name:       v.GetString("database_name"),
			Host:       v.GetString("database_host"),
			Port:       v.GetInt("database_port"),
			User:       v.GetString("database_user"),
			Password:   v.GetString("database_password"),
			DisableTLS: v.GetBool("database_disable_tls"),
			Timeout:    v.GetDuration("database_timeout"),
		},
		Push: PushConfig{
			URL:                 v.GetString("push_url"),
			AccessToken:         v.GetString("push_access_token"),
			NotificationTimeout: v.GetDuration("notification_timeout"),
		},
	}
}

// loadDotEnv loads the .env file at path if it exists (ignored if it does not).
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			log.Fatalf("config.godotenv(%s): %v", path, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", path, err)
	}
}
