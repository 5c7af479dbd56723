package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/code-payments/code-solana-sdk/pkg/metrics"
	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

var (
	log = logrus.StandardLogger().WithField("type", "cmd/solana-transfer")

	metricsProvider *newrelic.Application
	client          solana.Client
	commitment      solana.Commitment
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.WithError(err).Error("command failed")
		cancel()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "solana-transfer",
		Usage: "build, sign and submit transactions",
		Flags: []cli.Flag{
			configFlag,
			rpcFlag,
			commitmentFlag,
			logLevelFlag,
			appNameFlag,
			newRelicLicenseFlag,
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			keygenCommand,
			balanceCommand,
			airdropCommand,
			transferCommand,
		},
	}
}

func setup(c *cli.Context) error {
	if len(c.String(newRelicLicenseFlag.Name)) > 0 {
		nr, err := newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(c.String(appNameFlag.Name)),
			newrelic.ConfigLicense(c.String(newRelicLicenseFlag.Name)),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			return errors.Wrap(err, "error connecting to new relic")
		}

		metricsProvider = nr
	}

	configureLogger(c.String(logLevelFlag.Name), metricsProvider)

	config, err := loadConfig(viper.GetViper(), c)
	if err != nil {
		return err
	}

	commitment, err = solana.ParseCommitment(config.Commitment)
	if err != nil {
		return err
	}

	client, err = solana.NewWithConfig(config)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"endpoint":   config.Endpoint,
		"commitment": config.Commitment,
	}).Debug("initialized rpc client")

	return nil
}

func teardown(_ *cli.Context) error {
	if metricsProvider != nil {
		metricsProvider.Shutdown(5 * time.Second)
	}
	return nil
}

func configureLogger(logLevel string, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", logLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stderr)
}

// loadConfig reads the optional config file, then applies any endpoint or
// commitment set on the command line.
func loadConfig(v *viper.Viper, c *cli.Context) (solana.ClientConfig, error) {
	configPath := c.String(configFlag.Name)

	// viper only reports a missing file when it searched for one itself, so an
	// explicitly set path is checked here.
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return solana.ClientConfig{}, errors.Wrap(err, "failed to load config")
		}
	} else if !os.IsNotExist(err) {
		return solana.ClientConfig{}, errors.Wrap(err, "failed to check if config exists")
	} else if c.IsSet(configFlag.Name) {
		return solana.ClientConfig{}, errors.Errorf("config file not found: %s", configPath)
	}

	if c.IsSet(rpcFlag.Name) {
		v.Set("solana_rpc_endpoint", string(solana.ParseEnvironment(c.String(rpcFlag.Name))))
	}
	if c.IsSet(commitmentFlag.Name) {
		v.Set("solana_commitment", c.String(commitmentFlag.Name))
	}

	return solana.LoadClientConfig(v)
}

func commandContext(c *cli.Context) context.Context {
	return metrics.NewContext(c.Context, metricsProvider)
}

func printResult(c *cli.Context, format string, args ...interface{}) {
	fmt.Fprintf(c.App.Writer, format+"\n", args...)
}
