package core

import (
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env             string // DEV (local; default), TEST, QA, PROD
		AppName         string
		Build           string
		Debug           bool
		TestMode        bool
		SecretKey       string
		WorkDir         string
		FrontendBaseURL string
		AdminEmail      string
		RollbarToken    string

		Server   ServerConfig
		Database DatabaseConfig
		Email    EmailConfig
		Storage  StorageConfig
		Redis    RedisConfig
	}

	ServerConfig struct {
		Host                      string
		Port                      int
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		AuthRateLimit             int // requests per AuthRateWindow per IP
		AuthRateWindow            time.Duration
		AllowedOrigins            []string
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		MaxOpenConns  int
	}

	EmailConfig struct {
		Backend          string // console | sendgrid
		DefaultFromName  string
		DefaultFromEmail string
		SendgridApiKey   string
	}

	StorageConfig struct {
		Backend       string // local | b2
		LocalDir      string
		PublicBaseURL string
		B2AccountID   string
		B2AppKey      string
		B2Bucket      string
	}

	RedisConfig struct {
		Addr     string // empty: in-memory rate limit store
		Password string
		DB       int
	}
)

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c EmailConfig) DefaultFrom() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromEmail}
}

// NewConfig loads the configuration from the environment, reading `config/.env.<env>` first when present.
// Environment variables are prefixed with the current ENV, e.g. DEV_DATABASE_HOST.
func NewConfig() (*Config, error) {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Mansa")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("adminEmail", "admin@mansa.edu")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)
	v.SetDefault("server.authRateLimit", 5)
	v.SetDefault("server.authRateWindow", 15*time.Minute)
	v.SetDefault("server.allowedOrigins", []string{"*"})

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "mansa")
	v.SetDefault("database.user", "mansa")
	v.SetDefault("database.password", "mansa")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", env == "DEV" || env == "TEST")
	v.SetDefault("database.maxOpenConns", 25)

	v.SetDefault("email.backend", "console")
	v.SetDefault("email.defaultFromName", "Mansa Edu")
	v.SetDefault("email.defaultFromEmail", "noreply@mansa.edu")
	v.SetDefault("email.sendgridApiKey", "")

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.localDir", "uploads")
	v.SetDefault("storage.publicBaseURL", "/uploads")
	v.SetDefault("storage.b2AccountID", "")
	v.SetDefault("storage.b2AppKey", "")
	v.SetDefault("storage.b2Bucket", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "getting working directory")
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := &Config{
		Env:             env,
		AppName:         v.GetString("appName"),
		Build:           v.GetString("build"),
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		SecretKey:       v.GetString("secretKey"),
		WorkDir:         wd,
		FrontendBaseURL: strings.TrimSuffix(v.GetString("frontendBaseURL"), "/"),
		AdminEmail:      v.GetString("adminEmail"),
		RollbarToken:    v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Port:                      v.GetInt("server.port"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			AuthRateLimit:             v.GetInt("server.authRateLimit"),
			AuthRateWindow:            v.GetDuration("server.authRateWindow"),
			AllowedOrigins:            v.GetStringSlice("server.allowedOrigins"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			MaxOpenConns:  v.GetInt("database.maxOpenConns"),
		},
		Email: EmailConfig{
			Backend:          v.GetString("email.backend"),
			DefaultFromName:  v.GetString("email.defaultFromName"),
			DefaultFromEmail: v.GetString("email.defaultFromEmail"),
			SendgridApiKey:   v.GetString("email.sendgridApiKey"),
		},
		Storage: StorageConfig{
			Backend:       v.GetString("storage.backend"),
			LocalDir:      v.GetString("storage.localDir"),
			PublicBaseURL: strings.TrimSuffix(v.GetString("storage.publicBaseURL"), "/"),
			B2AccountID:   v.GetString("storage.b2AccountID"),
			B2AppKey:      v.GetString("storage.b2AppKey"),
			B2Bucket:      v.GetString("storage.b2Bucket"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
	}
	return conf, nil
}
