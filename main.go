package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/api"
	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/logging"
	"github.com/rpupo63/portfolio-backend/services"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "portfolio-backend",
		Short:         "API server for the portfolio site",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context())
			},
		},
		newMigrateCmd(),
		newCreateAdminCmd(),
		newGenerateModelsCmd(),
		newColumnReportCmd(),
	)
	return root
}

// loadConfig reads .env, the process environment and SSM, then sets up logging.
func loadConfig(ctx context.Context) (map[string]string, error) {
	envErr := godotenv.Load()

	c := config.New()
	if err := config.WithSSM(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to load SSM parameters: %w", err)
	}
	logging.Setup(c)

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warn().Err(envErr).Msg("error loading .env file")
	}
	return c, nil
}

func connect(ctx context.Context) (map[string]string, *gorm.DB, error) {
	c, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Connect(c)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		return nil, nil, err
	}
	return c, db, nil
}

func runServe(ctx context.Context) error {
	c, db, err := connect(ctx)
	if err != nil {
		return err
	}

	currentDB := database.New(db)
	if config.GetBool(c, "AUTO_MIGRATE", true) {
		if err := currentDB.Migrate(); err != nil {
			log.Error().Err(err).Msg("migration failed")
			return err
		}
	}

	server, err := api.NewServer(c, currentDB, buildDependencies(ctx, c, currentDB))
	if err != nil {
		log.Error().Err(err).Msg("error initializing server")
		return err
	}

	errChannel := make(chan error, 2)
	go server.Start(errChannel)
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Err(fatalErr).Msg("closing server")

	server.ShutdownGracefully(time.Duration(config.GetInt(c, "SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second)
	return exitError(fatalErr)
}

// interruptError reports the signal that stopped the server.
type interruptError struct {
	signal os.Signal
}

func (e interruptError) Error() string {
	return "received " + e.signal.String()
}

// exitError drops the errors that mean a normal shutdown.
func exitError(err error) error {
	var interrupt interruptError
	if err == nil || errors.As(err, &interrupt) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("server stopped: %w", err)
}

// buildDependencies wires every optional integration whose configuration is
// present. Missing ones stay nil and their routes answer 503.
func buildDependencies(ctx context.Context, c map[string]string, db database.Database) api.Dependencies {
	var deps api.Dependencies

	llm, err := services.NewGatewayLLM(c)
	if err != nil {
		log.Warn().Err(err).Msg("LLM gateway disabled: chat and receipt parsing unavailable")
	} else {
		deps.Chat = services.NewChatService(llm, db.EmbeddingRepo(), c)
		deps.Indexer = services.NewProjectIndexer(llm, db.EmbeddingRepo())
		deps.Parser = services.NewReceiptParser(llm, services.NewTesseractOCR(config.GetString(c, "TESSERACT_PATH", "")))
	}

	if store, err := services.NewS3Store(ctx, c); err != nil {
		log.Warn().Err(err).Msg("object storage disabled: uploads unavailable")
	} else {
		deps.Store = store
	}

	var (
		mailer services.Mailer
		sms    services.SMSSender
	)
	if m, err := services.NewResendMailer(c); err != nil {
		log.Warn().Err(err).Msg("contact email notifications disabled")
	} else {
		mailer = m
	}
	if s, err := services.NewTwilioSender(c); err != nil {
		log.Warn().Err(err).Msg("contact SMS notifications disabled")
	} else {
		sms = s
	}
	if mailer != nil || sms != nil {
		deps.Notifier = services.NewNotifier(mailer, sms, c)
	}

	if projectID := config.GetString(c, "DESCOPE_PROJECT_ID", ""); projectID != "" {
		verifier, err := api.NewDescopeVerifier(projectID)
		if err != nil {
			log.Warn().Err(err).Msg("descope sign-in disabled")
		} else {
			deps.Federated = verifier
		}
	}

	return deps
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- interruptError{signal: <-c}
}
