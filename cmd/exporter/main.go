package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/olaizola/maplabel/internal/adapters/imagestore"
	natsadapter "github.com/olaizola/maplabel/internal/adapters/nats"
	"github.com/olaizola/maplabel/internal/adapters/postgres"
	"github.com/olaizola/maplabel/internal/core/domain"
	"github.com/olaizola/maplabel/internal/pkg/config"
	"github.com/olaizola/maplabel/internal/pkg/logging"
	"github.com/olaizola/maplabel/internal/workflows"
)

// The exporter bridges NATS export requests into Temporal: each request
// starts one DatasetExportWorkflow, and the worker in this same process
// executes the workflow and its activities.
func main() {
	cfg, err := config.Load("maplabel-exporter")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(os.Getenv("LOG_LEVEL"), "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	images, err := imagestore.New(cfg.Storage.Root)
	if err != nil {
		log.Fatalf("image store: %v", err)
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.DatasetExportWorkflow)
	w.RegisterActivity(&workflows.ExportActivities{
		Boxes:    postgres.NewBoxRepo(db),
		Datasets: postgres.NewDatasetRepo(db),
		Exports:  postgres.NewExportRepo(db),
		Images:   images,
		Events:   pub,
	})

	// Export requests arrive over JetStream; each one starts a workflow.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "export-worker")
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeExportRequests(ctx, func(ctx context.Context, job *domain.ExportJob) error {
		opts := client.StartWorkflowOptions{
			ID:        "export-" + job.ID,
			TaskQueue: cfg.Temporal.TaskQueue,
		}
		_, err := c.ExecuteWorkflow(ctx, opts, workflows.DatasetExportWorkflow, workflows.ExportInput{
			JobID:     job.ID,
			DatasetID: job.DatasetID,
		})
		if err != nil {
			slog.Error("start export workflow", "jobID", job.ID, "error", err)
			return err
		}
		slog.Info("export workflow started", "jobID", job.ID, "datasetID", job.DatasetID)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe export requests: %v", err)
	}

	slog.Info("export worker started", "taskQueue", cfg.Temporal.TaskQueue)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
