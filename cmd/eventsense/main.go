package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/clearlane/eventsense/pkg/sensing"
	"github.com/clearlane/eventsense/pkg/sensing/agent"
	"github.com/clearlane/eventsense/pkg/sensing/exporters"
	"github.com/clearlane/eventsense/pkg/sensing/log"
	"github.com/clearlane/eventsense/pkg/sensing/model"
)

func main() {
	pflag.String("config_path", "", "path to the config file")
	pflag.Duration("window", 24*time.Hour, "how far back the batch looks")
	pflag.Bool("service", false, "run batches on the configured interval instead of once")
	pflag.Bool("verbose", false, "enable debug logging")
	pflag.Parse()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		log.Fatalf(err)
	}

	configPath := viper.GetString("config_path")
	if configPath != "" {
		if err := sensing.NewConfigWithFile(configPath); err != nil {
			log.Fatalf(err)
		}
	} else if err := sensing.NewConfigWithPaths(); err != nil {
		log.Warnf("no config file found, using defaults: %v", err)
	}

	sensing.SetupLogging()

	cfg, err := sensing.ConfigFromViper()
	if err != nil {
		log.Fatalf(err)
	}

	sensor := sensing.NewSensor(
		cfg,
		agent.NewNewsAgent(
			cfg.NewsEndpoint,
			cfg.NewsKeywords,
			agent.WithNewsAPIKey(cfg.NewsAPIKey),
		),
		agent.NewWeatherAgent(cfg.WeatherEndpoint, cfg.WeatherRegions),
	)
	sensor.AddExporter(exporters.NewJSONWriterExporter("stdout", os.Stdout))

	ctx := context.Background()

	if viper.GetBool("service") {
		if err := sensor.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf(err)
		}
		return
	}

	now := time.Now().UTC()
	window := model.QueryWindow{From: now.Add(-viper.GetDuration("window")), To: now}

	_, report, err := sensor.Run(ctx, window)
	if err != nil {
		if errors.Is(err, sensing.ErrNoDataAvailable) {
			log.Errorf("batch produced no data: %v", err)
			os.Exit(1)
		}
		log.Fatalf(err)
	}

	if log.IsDebugEnabled() {
		_ = log.PrettyPrintJson(report)
	}
}
