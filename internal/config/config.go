package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sanix-darker/localreview/internal/filter"
	printers "github.com/sanix-darker/localreview/internal/printers"
)

const (
	ConfigDirPath  = ".config/localreview"
	ConfigFileName = "config.yml"
	EnvPrefix      = "LOCALREVIEW"
)

// Keys, as used in the YAML file, in LOCALREVIEW_* variables and by flags.
const (
	KeyBackend        = "backend"
	KeyEndpoint       = "endpoint"
	KeyModel          = "model"
	KeyTemperature    = "temperature"
	KeyMaxTokens      = "max_tokens"
	KeyMaxFileSize    = "max_file_size"
	KeyTimeout        = "timeout"
	KeyInclude        = "include"
	KeyExclude        = "exclude"
	KeyPromptTemplate = "prompt_template"
	KeyLogLevel       = "log_level"
)

// Defaults
const (
	DefaultBackend     = "ollama"
	DefaultEndpoint    = "http://localhost:11434"
	DefaultModel       = "codellama"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 2048
	DefaultMaxFileSize = 100 * 1024
	DefaultTimeout     = 120 * time.Second
	DefaultLogLevel    = "warn"
)

// DefaultExclude skips generated and vendored content.
var DefaultExclude = []string{
	`(^|/)package-lock\.json$`,
	`(^|/)yarn\.lock$`,
	`(^|/)pnpm-lock\.yaml$`,
	`(^|/)go\.sum$`,
	`\.min\.(js|css)$`,
	`(^|/)node_modules/`,
	`(^|/)dist/`,
	`(^|/)vendor/`,
}

// Config is the resolved configuration of one run. The pipeline only reads
// it.
type Config struct {
	Backend        string        `yaml:"backend" validate:"required"`
	Endpoint       string        `yaml:"endpoint" validate:"required,url"`
	Model          string        `yaml:"model" validate:"required"`
	Temperature    float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens      int           `yaml:"max_tokens" validate:"gte=0"`
	MaxFileSize    int64         `yaml:"max_file_size" validate:"gte=0"`
	Timeout        time.Duration `yaml:"timeout" validate:"gt=0"`
	Include        []string      `yaml:"include"`
	Exclude        []string      `yaml:"exclude"`
	PromptTemplate string        `yaml:"prompt_template,omitempty"`
	LogLevel       string        `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error disabled off"`

	// ConfigFile is the file the values were read from, empty when none.
	ConfigFile string             `yaml:"-"`
	Printers   printers.IPrinters `yaml:"-" validate:"-"`

	//io Writers useful for testing
	InReader  io.Reader `yaml:"-" validate:"-"`
	OutWriter io.Writer `yaml:"-" validate:"-"`
	ErrWriter io.Writer `yaml:"-" validate:"-"`
}

// NewDefaultConfig returns the built-in defaults without reading any file or
// environment.
func NewDefaultConfig() Config {
	return Config{
		Backend:     DefaultBackend,
		Endpoint:    DefaultEndpoint,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		MaxFileSize: DefaultMaxFileSize,
		Timeout:     DefaultTimeout,
		Exclude:     append([]string(nil), DefaultExclude...),
		LogLevel:    DefaultLogLevel,
		Printers:    printers.NewPrinters(),
		InReader:    os.Stdin,
		OutWriter:   os.Stdout,
		ErrWriter:   os.Stderr,
	}
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers every key's default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBackend, DefaultBackend)
	v.SetDefault(KeyEndpoint, DefaultEndpoint)
	v.SetDefault(KeyModel, DefaultModel)
	v.SetDefault(KeyTemperature, DefaultTemperature)
	v.SetDefault(KeyMaxTokens, DefaultMaxTokens)
	v.SetDefault(KeyMaxFileSize, DefaultMaxFileSize)
	v.SetDefault(KeyTimeout, DefaultTimeout.String())
	v.SetDefault(KeyInclude, []string{})
	v.SetDefault(KeyExclude, DefaultExclude)
	v.SetDefault(KeyPromptTemplate, "")
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"backend":       KeyBackend,
	"endpoint":      KeyEndpoint,
	"model":         KeyModel,
	"temperature":   KeyTemperature,
	"max-tokens":    KeyMaxTokens,
	"max-file-size": KeyMaxFileSize,
	"timeout":       KeyTimeout,
	"include":       KeyInclude,
	"exclude":       KeyExclude,
	"log-level":     KeyLogLevel,
}

// BindFlags binds the known flags present in flags to their keys, so a flag
// set on the command line overrides file and environment values.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// GetConfigDirPath returns ~/.config/localreview
func GetConfigDirPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to read home directory: %w", err)
	}
	return filepath.Join(home, ConfigDirPath), nil
}

// GetConfigFilePath returns ~/.config/localreview/config.yml
func GetConfigFilePath() (string, error) {
	dir, err := GetConfigDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// Load reads path (or the default config file when path is empty) into v
// and resolves the configuration. A missing file is not an error; a file
// that cannot be parsed is.
func Load(v *viper.Viper, path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := GetConfigFilePath()
		if err != nil {
			return FromViper(v)
		}
		path = p
	}

	path, err := homedir.Expand(path)
	if err != nil {
		return Config{}, err
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return FromViper(v)
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	conf, err := FromViper(v)
	conf.ConfigFile = path
	return conf, err
}

// FromViper resolves a Config from v's layered values.
func FromViper(v *viper.Viper) (Config, error) {
	conf := NewDefaultConfig()
	conf.Backend = strings.ToLower(strings.TrimSpace(v.GetString(KeyBackend)))
	conf.Endpoint = strings.TrimSpace(v.GetString(KeyEndpoint))
	conf.Model = strings.TrimSpace(v.GetString(KeyModel))
	conf.Temperature = v.GetFloat64(KeyTemperature)
	conf.MaxTokens = v.GetInt(KeyMaxTokens)
	conf.MaxFileSize = v.GetInt64(KeyMaxFileSize)
	conf.Include = cleanList(v.GetStringSlice(KeyInclude))
	conf.Exclude = cleanList(v.GetStringSlice(KeyExclude))
	conf.PromptTemplate = v.GetString(KeyPromptTemplate)
	conf.LogLevel = strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel)))

	timeout, err := parseTimeout(v.Get(KeyTimeout))
	if err != nil {
		return conf, err
	}
	conf.Timeout = timeout
	return conf, nil
}

// parseTimeout accepts Go durations ("90s", "2m") and bare numbers, which
// are read as seconds.
func parseTimeout(raw any) (time.Duration, error) {
	switch t := raw.(type) {
	case nil:
		return DefaultTimeout, nil
	case time.Duration:
		return t, nil
	case int:
		return time.Duration(t) * time.Second, nil
	case int64:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(n * float64(time.Second)), nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", KeyTimeout, t, err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("invalid %s value %v", KeyTimeout, raw)
	}
}

// cleanList splits comma-joined entries, as they arrive from environment
// variables, and drops blanks. An empty result is nil.
func cleanList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

var validate = validator.New()

// Validate checks every field and compiles the pattern lists. It returns one
// message per problem, or nil.
func (c Config) Validate() []string {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, describe(fe))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	if _, err := c.Rules(); err != nil {
		problems = append(problems, err.Error())
	}
	return problems
}

// Err wraps Validate into a single error.
func (c Config) Err() error {
	problems := c.Validate()
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	field := yamlName(fe.StructField())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s must satisfy %s=%s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
	}
}

func yamlName(structField string) string {
	switch structField {
	case "Backend":
		return KeyBackend
	case "Endpoint":
		return KeyEndpoint
	case "Model":
		return KeyModel
	case "Temperature":
		return KeyTemperature
	case "MaxTokens":
		return KeyMaxTokens
	case "MaxFileSize":
		return KeyMaxFileSize
	case "Timeout":
		return KeyTimeout
	case "LogLevel":
		return KeyLogLevel
	default:
		return strings.ToLower(structField)
	}
}

// Rules compiles the eligibility rules of this configuration.
func (c Config) Rules() (filter.Rules, error) {
	return filter.NewRules(c.Include, c.Exclude, c.MaxFileSize)
}

// Effective returns the resolved values in the same shape as the YAML file.
func (c Config) Effective() map[string]any {
	return map[string]any{
		KeyBackend:        c.Backend,
		KeyEndpoint:       c.Endpoint,
		KeyModel:          c.Model,
		KeyTemperature:    c.Temperature,
		KeyMaxTokens:      c.MaxTokens,
		KeyMaxFileSize:    c.MaxFileSize,
		KeyTimeout:        c.Timeout.String(),
		KeyInclude:        c.Include,
		KeyExclude:        c.Exclude,
		KeyPromptTemplate: c.PromptTemplate,
		KeyLogLevel:       c.LogLevel,
	}
}
