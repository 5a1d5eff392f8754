// Command ingest-api serves the trigger/monitor HTTP API. Dashboards post
// to /api/v1/runs to execute a pipeline and read /api/v1/runs for run
// history.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/skillsenselab/ingest/config"
	"github.com/skillsenselab/ingest/database"
	"github.com/skillsenselab/ingest/logger"
	"github.com/skillsenselab/ingest/monitor"
	"github.com/skillsenselab/ingest/pipeline"
	"github.com/skillsenselab/ingest/server"
	"github.com/skillsenselab/ingest/storage"

	_ "github.com/skillsenselab/ingest/storage/local"
	_ "github.com/skillsenselab/ingest/storage/s3"
)

func main() {
	var servicePath string
	if len(os.Args) > 1 {
		servicePath = os.Args[1]
	}

	svc, err := config.LoadService(servicePath)
	if err != nil {
		logger.NewDefault("ingest-api").Fatal("load service config", logger.Fields("error", err.Error()))
	}

	logger.Init(svc.Log)
	log := logger.GetGlobalLogger()

	ctx := context.Background()

	db, err := database.Open(ctx, svc.Database, log)
	if err != nil {
		log.Fatal("open database", logger.Fields("error", err.Error()))
	}
	defer db.Close()

	store, err := storage.New(svc.Storage, log)
	if err != nil {
		log.Fatal("open payload storage", logger.Fields("error", err.Error()))
	}

	runner := pipeline.NewRunner(db, storage.NewPayloadStore(store), log)
	recorder := monitor.NewRecorder(db, log)
	if err := recorder.Ensure(ctx); err != nil {
		log.Fatal("prepare monitor table", logger.Fields("error", err.Error()))
	}

	srv := server.New(server.Config{Host: svc.HTTP.Host, Port: svc.HTTP.Port}, log)
	server.NewHandlers(runner, recorder, svc.PipelineDir, log).Register(srv.GinEngine())

	if err := srv.Start(ctx); err != nil {
		log.Fatal("start server", logger.Fields("error", err.Error()))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := srv.Stop(ctx); err != nil {
		log.Error("shutdown", logger.Fields("error", err.Error()))
	}
}
