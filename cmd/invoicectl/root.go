package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-invoice-ws/internal/config"
	"go-invoice-ws/internal/events"
	"go-invoice-ws/internal/logger"
	"go-invoice-ws/internal/service"
	"go-invoice-ws/pkg/database"
	"go-invoice-ws/pkg/jwt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var version = "1.0.0"

const eventFlushTimeout = 10 * time.Second

// env holds what every subcommand needs once the root command has run.
type env struct {
	cfg       *config.Config
	db        *gorm.DB
	publisher events.Publisher
	closers   []func() error
}

var current env

var rootCmd = &cobra.Command{
	Use:   "invoicectl",
	Short: "Operator commands for the invoicing and inventory service",
	Long: `invoicectl runs maintenance tasks against the same database as the
API server: schema migration, inventory reconciliation of a single
invoice and password resets.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			return fmt.Errorf("set up logger: %w", err)
		}
		jwt.Configure(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.JWTTTLHours)*time.Hour)

		db, err := database.ConnectDB(&cfg.Database)
		if err != nil {
			return err
		}
		current = env{cfg: cfg, db: db, publisher: events.Nop{}}
		current.closers = append(current.closers, func() error { return database.Close(db) })

		withEvents, _ := cmd.Flags().GetBool("events")
		if withEvents && len(cfg.Kafka.Brokers) > 0 {
			kafkaPublisher := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
			current.publisher = kafkaPublisher
			current.closers = append(current.closers, kafkaPublisher.Close)
		}
		return nil
	},
}

// close releases what PersistentPreRunE opened, newest first. It runs after
// the command returns, whether or not it failed.
func (e *env) close() {
	log := logger.WithComponent("cmd")
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Cleanup failed")
		}
	}
	e.closers = nil
}

// run executes the command line, then waits for pending events and cleans up
func run(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)

	if !service.FlushEvents(eventFlushTimeout) {
		log := logger.WithComponent("cmd")
		log.Warn().Msg("Gave up waiting for pending events")
	}
	current.close()
	return err
}

func Execute() {
	log := logger.WithComponent("cmd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("events", true, "Publish change events to Kafka when brokers are configured")
}
