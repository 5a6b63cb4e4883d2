package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvToken is the environment variable holding the workspace bearer token.
	EnvToken = "MEDICAL_TOKEN"
	// EnvDatabaseID is the environment variable holding the target database id.
	EnvDatabaseID = "MEDICAL_DATABASE_ID"

	// ConfigFileName is the name of the config file
	ConfigFileName = "config"
	// ConfigFileType is the type of the config file
	ConfigFileType = "toml"

	DefaultAPIBaseURL     = "https://api.notion.com/v1"
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultTokenBudget    = 6000
	DefaultMaxSearchPages = 10
	DefaultFlowDir        = "./langflow"
	DefaultFlowFile       = "loadmedicine.json"
)

// envBindings maps config keys to the environment variables that feed them.
var envBindings = map[string]string{
	"token":            EnvToken,
	"database_id":      EnvDatabaseID,
	"api_url":          "MEDICAL_API_URL",
	"http_timeout":     "MEDICAL_HTTP_TIMEOUT",
	"max_retries":      "MEDICAL_MAX_RETRIES",
	"token_budget":     "MEDICAL_TOKEN_BUDGET",
	"max_search_pages": "MEDICAL_MAX_SEARCH_PAGES",
	"flow_dir":         "MEDICAL_FLOW_DIR",
	"flow_file":        "MEDICAL_FLOW_FILE",
	"langflow_url":     "LANGFLOW_URL",
	"langflow_api_key": "LANGFLOW_API_KEY",
}

// Config holds runtime settings for the medical toolkit.
type Config struct {
	Token          string        `mapstructure:"token"`
	DatabaseID     string        `mapstructure:"database_id"`
	APIBaseURL     string        `mapstructure:"api_url" validate:"required,url"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout" validate:"gt=0"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"min=1,max=10"`
	TokenBudget    int           `mapstructure:"token_budget" validate:"min=1"`
	MaxSearchPages int           `mapstructure:"max_search_pages" validate:"min=1,max=100"`
	FlowDir        string        `mapstructure:"flow_dir" validate:"required"`
	FlowFile       string        `mapstructure:"flow_file" validate:"required"`
	LangflowURL    string        `mapstructure:"langflow_url" validate:"omitempty,url"`
	LangflowAPIKey string        `mapstructure:"langflow_api_key"`
}

// Credential is the pair of secrets the host injects at tool invocation time.
type Credential struct {
	Token      string `validate:"required"`
	DatabaseID string `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Loader reads configuration from the environment, an optional .env file
// and an optional config file under ~/.config/medpages.
type Loader struct {
	v *viper.Viper
}

// NewLoader prepares a Loader. A missing config file or .env file is not an error.
func NewLoader() (*Loader, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if configDir, err := GetConfigDir(); err == nil {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileType)
		v.AddConfigPath(configDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	return &Loader{v: v}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", DefaultAPIBaseURL)
	v.SetDefault("http_timeout", DefaultHTTPTimeout)
	v.SetDefault("max_retries", DefaultMaxRetries)
	v.SetDefault("token_budget", DefaultTokenBudget)
	v.SetDefault("max_search_pages", DefaultMaxSearchPages)
	v.SetDefault("flow_dir", DefaultFlowDir)
	v.SetDefault("flow_file", DefaultFlowFile)
}

// Load returns the validated runtime settings. Credentials are not required
// here; they are checked per invocation via Credentials.
func (l *Loader) Load() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Set overrides a config key, typically from a command-line flag.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// Credentials reads the token and database id as they are right now.
// Only the token is checked; callers that write pages use RequireDatabase.
func (l *Loader) Credentials() (Credential, error) {
	cred := Credential{
		Token:      strings.TrimSpace(l.v.GetString("token")),
		DatabaseID: strings.TrimSpace(l.v.GetString("database_id")),
	}
	if err := validate.StructPartial(cred, "Token"); err != nil {
		return cred, describe(err)
	}
	return cred, nil
}

// RequireDatabase checks that both secrets are present.
func (c Credential) RequireDatabase() error {
	if err := validate.Struct(c); err != nil {
		return describe(err)
	}
	return nil
}

// Validate checks the runtime settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describe(err)
	}
	return nil
}

// FlowPath joins the flow directory and file name.
func (c *Config) FlowPath() string {
	return filepath.Join(c.FlowDir, c.FlowFile)
}

// describe turns validator output into messages that name the env variable
// an operator has to set.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fieldEnv(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", name))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s=%s, got %v)", name, fe.Tag(), fe.Param(), fe.Value()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

var fieldKeys = map[string]string{
	"Token":          "token",
	"DatabaseID":     "database_id",
	"APIBaseURL":     "api_url",
	"HTTPTimeout":    "http_timeout",
	"MaxRetries":     "max_retries",
	"TokenBudget":    "token_budget",
	"MaxSearchPages": "max_search_pages",
	"FlowDir":        "flow_dir",
	"FlowFile":       "flow_file",
	"LangflowURL":    "langflow_url",
}

func fieldEnv(field string) string {
	if env, ok := envBindings[fieldKeys[field]]; ok {
		return env
	}
	return field
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "medpages"), nil
}
