package sensing

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/clearlane/eventsense/pkg/sensing/log"
	"github.com/clearlane/eventsense/pkg/sensing/model"
	"github.com/clearlane/eventsense/pkg/sensing/normalize"
)

const (
	DefaultAgentTimeout = 30 * time.Second
)

// Config is the explicit, immutable configuration value a Sensor is built
// from. It is passed in at construction, never read from ambient state, so
// independent pipelines (one per test, for example) can run concurrently with
// different settings.
type Config struct {
	NewsEndpoint string
	NewsAPIKey   string
	NewsKeywords []string

	WeatherEndpoint string
	WeatherRegions  []string

	// Fingerprint time bucket; the dedup precision/recall trade-off.
	BucketGranularity time.Duration

	// Per-agent fetch timeout enforced by the driver.
	AgentTimeout time.Duration

	// Batch interval for service mode; zero means one-shot runs only.
	Interval time.Duration

	// dedup location normalization rules: canonicalized location -> canonical
	// replacement.
	LocationAliases map[string]string

	Rules normalize.Rules
}

func NewConfigWithFile(configFile string) error {
	viper.SetConfigFile(configFile)

	return newConfig()
}

func NewConfigWithPaths() error {
	viper.SetConfigName("config")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")

	return newConfig()
}

func newConfig() error {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return viper.ReadInConfig()
}

// ConfigFromViper builds the typed Config snapshot from whatever viper
// currently holds, applying defaults for everything unset. A rules file named
// by rules_path overrides the built-in inference tables.
func ConfigFromViper() (Config, error) {
	cfg := Config{
		NewsEndpoint:      viper.GetString("news.endpoint"),
		NewsAPIKey:        viper.GetString("news.api_key"),
		NewsKeywords:      viper.GetStringSlice("news.keywords"),
		WeatherEndpoint:   viper.GetString("weather.endpoint"),
		WeatherRegions:    viper.GetStringSlice("weather.regions"),
		BucketGranularity: viper.GetDuration("bucket_granularity"),
		AgentTimeout:      viper.GetDuration("agent_timeout"),
		Interval:          viper.GetDuration("interval"),
		LocationAliases:   viper.GetStringMapString("location_aliases"),
		Rules:             normalize.DefaultRules(),
	}

	if rulesPath := viper.GetString("rules_path"); rulesPath != "" {
		rules, err := normalize.LoadRules(rulesPath)
		if err != nil {
			return Config{}, err
		}
		cfg.Rules = rules
	}

	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	if c.BucketGranularity <= 0 {
		c.BucketGranularity = model.DefaultBucketGranularity
	}
	if c.AgentTimeout <= 0 {
		c.AgentTimeout = DefaultAgentTimeout
	}
	if len(c.Rules.NewsCategories) == 0 && len(c.Rules.AlertTypes) == 0 {
		c.Rules = normalize.DefaultRules()
	}
	return c
}

// SetupLogging wires the verbose flag and log.* keys into the root logger.
func SetupLogging() {
	logger := log.RootLogger

	if viper.IsSet("log.fileName") {
		file, err := os.OpenFile(
			viper.GetString("log.fileName"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			0666,
		)
		if err != nil {
			log.Warnf("failed to log to file, using default stderr: %s", err)
		} else {
			logger.SetOutput(file)
		}
	}

	if viper.GetBool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
		return
	}

	if logLevel := viper.GetString("log.level"); logLevel != "" {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			log.Warnf("failed to parse log level, default will be used: %s", err)
		} else {
			logger.SetLevel(level)
		}
	}
}
