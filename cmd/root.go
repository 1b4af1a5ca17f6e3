package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/chrisdamba/wooinsights/internal/daterange"
	"github.com/chrisdamba/wooinsights/internal/factories"
	"github.com/chrisdamba/wooinsights/internal/models"
	"github.com/chrisdamba/wooinsights/internal/progress"
	"github.com/chrisdamba/wooinsights/internal/repositories"
	"github.com/chrisdamba/wooinsights/internal/repositories/postgres"
	"github.com/chrisdamba/wooinsights/internal/service"
	"github.com/chrisdamba/wooinsights/internal/woocommerce"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "wooinsights",
	Short: "Order analytics for WooCommerce stores",
	Long: `wooinsights pulls orders from a WooCommerce store (or a Postgres mirror of it)
and turns them into a revenue dashboard or an RFM customer segmentation.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wooinsights.yaml)")
	rootCmd.PersistentFlags().String("source", models.SourceWooCommerce, "order source: woocommerce, postgres or demo")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("timezone", "Local", "IANA timezone used for calendar ranges and buckets")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "do not draw the progress bar")

	viper.BindPFlag("source", rootCmd.PersistentFlags().Lookup("source"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("timezone", rootCmd.PersistentFlags().Lookup("timezone"))

	rootCmd.AddCommand(dashboardCmd, rfmCmd)
}

func initConfig() {
	if cfgFile != "" {
		return
	}
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)

	viper.AddConfigPath(home)
	viper.SetConfigType("yaml")
	viper.SetConfigName(".wooinsights")
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is everything one analysis command needs, built from configuration.
type app struct {
	cfg     *models.Config
	logger  *logrus.Logger
	service *service.AnalysisService
	cleanup func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := models.LoadConfig(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)
	if used := viper.ConfigFileUsed(); used != "" {
		logger.WithField("file", used).Debug("using config file")
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	source, cleanup, err := newOrderSource(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.WithField("source", cfg.Source).Debug("order source ready")

	resolver := daterange.NewResolver(loc, daterange.WithLogger(logger))
	svc := service.NewAnalysisService(source, resolver, progress.NewReporter(),
		service.WithLogger(logger),
		service.WithStatuses(cfg.DashboardStatuses, cfg.RFMStatuses),
	)
	return &app{cfg: cfg, logger: logger, service: svc, cleanup: cleanup}, nil
}

func newOrderSource(ctx context.Context, cfg *models.Config, logger *logrus.Logger) (repositories.OrderSource, func(), error) {
	switch cfg.Source {
	case models.SourcePostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo, err := postgres.NewOrderRepository(pool, cfg.OrdersTable)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil
	case models.SourceDemo:
		return factories.NewDemoSource(cfg, logger), func() {}, nil
	default:
		client, err := woocommerce.NewClient(cfg, woocommerce.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	}
}

// watchProgress draws the reporter on stderr until the returned stop is called.
func (a *app) watchProgress() (stop func()) {
	if noProgress {
		return func() {}
	}
	bar := progress.NewBar(os.Stderr)
	detach := bar.Attach(a.service.Reporter())
	return func() {
		detach()
		_ = bar.Finish()
	}
}
