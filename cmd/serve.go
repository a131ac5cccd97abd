package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	httpHdlr "github.com/pkumv1/AgenticAI-1/handler/http"
	"github.com/pkumv1/AgenticAI-1/src/core/session"
	"github.com/pkumv1/AgenticAI-1/src/infrastructure/job"
	"github.com/pkumv1/AgenticAI-1/src/log"
	"github.com/pkumv1/AgenticAI-1/src/storage/postgres/transcriptctrl"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the question answering server",
	Long:  `The serve command starts an HTTP server exposing sessions, artifact ingestion and question answering.`,
	Run:   RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	settingDefaultConfig()
}

func RunServer(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	llm, llmLive, err := newLLMProvider()
	if err != nil {
		log.Error(err, "Failed to create llm provider")
		return
	}

	embedder, err := newEmbedder()
	if err != nil {
		log.Error(err, "Failed to create embedder")
		return
	}

	splitter, err := newSplitter()
	if err != nil {
		log.Error(err, "Failed to create splitter")
		return
	}

	builder, indexLive, err := newIndexBuilder(embedder)
	if err != nil {
		log.Error(err, "Failed to create index builder")
		return
	}

	extractor, err := newExtractor()
	if err != nil {
		log.Error(err, "Failed to create extractor")
		return
	}

	opts := []session.Option{
		session.WithTopK(viper.GetInt("retrieve.top_k")),
		session.WithIngestWorkers(viper.GetInt("ingest.workers")),
		session.WithAgentOptions(newAgentOptions(llm)...),
	}

	archive, archiveLive, err := newArchive(ctx)
	if err != nil {
		log.Error(err, "Failed to create artifact archive")
		return
	}
	if archive != nil {
		opts = append(opts, session.WithArchive(archive))
	}

	// Transcript archival is on only when AMQP is configured. Answered
	// questions then flow through Postgres-backed jobs to the worker.
	var closers []func()
	var handlerOpts []httpHdlr.HandlerOption
	if amqpURL := viper.GetString("amqp.url"); amqpURL != "" {
		db, err := gorm.Open(postgres.Open(postgresDSN()), &gorm.Config{})
		if err != nil {
			log.Error(err, "Failed to connect to database")
			return
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, func() {
				if err := sqlDB.Close(); err != nil {
					log.Error(err, "Error closing database connection")
				}
			})
		}
		if err := db.AutoMigrate(&job.Job{}, &transcriptctrl.Transcript{}); err != nil {
			log.Error(err, "Failed to migrate job tables")
			return
		}

		amqpPublisher, err := amqp.NewPublisher(
			amqp.NewDurableQueueConfig(amqpURL),
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Error(err, "Failed to create amqp publisher")
			return
		}
		closers = append(closers, func() {
			if err := amqpPublisher.Close(); err != nil {
				log.Error(err, "Error closing amqp publisher")
			}
		})

		transcriptService, err := transcriptctrl.NewTranscriptService(db)
		if err != nil {
			log.Error(err, "Failed to create transcript service")
			return
		}

		jobService := job.NewJobService(
			amqpPublisher,
			job.NewPostgresJobRepository(db),
			watermill.NewStdLogger(false, false),
			job.NewTranscriptTask(transcriptService),
		)
		opts = append(opts, session.WithTranscriptQueue(jobService))
		handlerOpts = append(handlerOpts, httpHdlr.WithTranscripts(transcriptService))
	}

	svc, err := session.NewService(llm, extractor, splitter, builder, opts...)
	if err != nil {
		log.Error(err, "Failed to create session service")
		return
	}

	probes := []httpHdlr.Probe{
		{Name: "llm", Check: llmLive},
		{Name: "index", Check: indexLive},
	}
	if archiveLive != nil {
		probes = append(probes, httpHdlr.Probe{Name: "archive", Check: archiveLive})
	}

	handler := httpHdlr.NewHandler(svc, httpHdlr.NewSystemService(probes...), handlerOpts...)

	// Setup gin router
	r := gin.Default()

	// Register routes
	handler.RegisterRoutes(r)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "Failed to start server")
			return
		}
	}()
	log.Info("Server listening", "port", viper.GetString("server.port"))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Parse shutdown timeout
	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Error(err, "Invalid shutdown timeout, using default 5s")
		timeout = 5 * time.Second
	}

	// Create context with timeout for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}

	for _, closer := range closers {
		closer()
	}

	log.Info("Server exited")
}
