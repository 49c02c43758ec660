/*
	Project: Kiam - administration des séminaristes
	Target: seminar staff (administration, scientifique, finance)
*/
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

// Conf is the process-wide configuration, loaded once at init.
var Conf *Config

type Config struct {
	Env      string
	Debug    bool
	TestMode bool
	AppName  string
	WorkDir  string

	// remote API
	APIBaseURL string
	PageSize   int
	CacheTTL   time.Duration

	// local state
	SessionPath string
	OutputDir   string

	// seminar
	SeminarName string
	SeminarYear int

	// services
	RollbarToken     string
	SendgridApiKey   string
	defaultFromEmail string

	// sandbox API
	SecretKey          string
	JWTExpirationDelta time.Duration
	SandboxAddress     string
}

func init() {
	Conf = NewConfig()
}

// NewConfig reads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Kiam")
	v.SetDefault("apiBaseURL", "http://localhost:8000")
	v.SetDefault("pageSize", 10)
	v.SetDefault("cacheTTL", time.Duration(0))
	v.SetDefault("sessionPath", filepath.Join(homeDir(), ".kiam", "session.db"))
	v.SetDefault("outputDir", ".")
	v.SetDefault("seminarName", "Séminaire Kiam")
	v.SetDefault("seminarYear", time.Now().Year())
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "Kiam <noreply@localhost>")
	v.SetDefault("secretKey", "k1am-s4ndb0x)qv$+57=dz&uoxh2(h!x)#*c2(#yg4h^$ce")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("sandboxAddress", ":8000")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:                env,
		Debug:              v.GetBool("debug"),
		TestMode:           v.GetBool("testMode"),
		AppName:            v.GetString("appName"),
		WorkDir:            wd,
		APIBaseURL:         strings.TrimRight(v.GetString("apiBaseURL"), "/"),
		PageSize:           v.GetInt("pageSize"),
		CacheTTL:           v.GetDuration("cacheTTL"),
		SessionPath:        v.GetString("sessionPath"),
		OutputDir:          v.GetString("outputDir"),
		SeminarName:        v.GetString("seminarName"),
		SeminarYear:        v.GetInt("seminarYear"),
		RollbarToken:       v.GetString("rollbarToken"),
		SendgridApiKey:     v.GetString("sendgridApiKey"),
		defaultFromEmail:   v.GetString("defaultFromEmail"),
		SecretKey:          v.GetString("secretKey"),
		JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		SandboxAddress:     v.GetString("sandboxAddress"),
	}
}

// DefaultFromEmail parses the configured sender address, falling back to noreply@localhost.
func (c *Config) DefaultFromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.defaultFromEmail); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
}

func homeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
