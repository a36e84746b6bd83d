package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/firefart/dmarcreport/internal/view"
)

// EnvPrefix is the prefix of environment variables overriding flags,
// e.g. DMARC_REPORT_OUTPUT_FORMAT.
const EnvPrefix = "DMARC_REPORT"

// Keys shared between flags, environment and config file.
const (
	KeyConfig            = "config"
	KeyOutputFormat      = "output-format"
	KeyDomain            = "domain"
	KeyNoColor           = "nocolor"
	KeyResolve           = "resolve"
	KeyDNSServer         = "dns-server"
	KeyDNSConnectTimeout = "dns-connect-timeout"
	KeyDNSTimeout        = "dns-timeout"
	KeyDNSCacheTimeout   = "dns-cache-timeout"
	KeyDebug             = "debug"
)

type Configuration struct {
	Directory         string        `mapstructure:"-" validate:"required,dir"`
	OutputFormat      string        `mapstructure:"output-format"`
	Format            view.Format   `mapstructure:"-"`
	Domain            string        `mapstructure:"domain" validate:"omitempty,hostname_rfc1123"`
	NoColor           bool          `mapstructure:"nocolor"`
	Resolve           bool          `mapstructure:"resolve"`
	DNSServer         string        `mapstructure:"dns-server" validate:"omitempty,hostname_port"`
	DNSConnectTimeout time.Duration `mapstructure:"dns-connect-timeout" validate:"gt=0"`
	DNSTimeout        time.Duration `mapstructure:"dns-timeout" validate:"gt=0"`
	DNSCacheTimeout   time.Duration `mapstructure:"dns-cache-timeout" validate:"gt=0"`
	Debug             bool          `mapstructure:"debug"`
}

var validate = validator.New()

// SetDefaults registers the default values and environment handling on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyConfig, "")
	v.SetDefault(KeyOutputFormat, view.FormatSummary.String())
	v.SetDefault(KeyDomain, "")
	v.SetDefault(KeyNoColor, false)
	v.SetDefault(KeyResolve, false)
	v.SetDefault(KeyDNSServer, "")
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyDNSConnectTimeout, 1*time.Second)
	v.SetDefault(KeyDNSTimeout, 10*time.Second)
	v.SetDefault(KeyDNSCacheTimeout, 1*time.Hour)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// GetConfig builds the configuration for the report directory dir from v,
// reading the config file first if one is set.
func GetConfig(v *viper.Viper, dir string) (*Configuration, error) {
	if f := v.GetString(KeyConfig); f != "" {
		v.SetConfigFile(f)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", f, err)
		}
	}

	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	c.Directory = dir
	// unknown formats fall back to the summary
	c.Format = view.ParseFormat(c.OutputFormat)
	c.OutputFormat = c.Format.String()

	if err := validate.Struct(c); err != nil {
		return nil, validationError(err)
	}

	return &c, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("invalid value %q for %s (%s)", e.Value(), e.Field(), e.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
