// Command ingest executes one pipeline run: it loads a pipeline definition,
// runs extract/validate/transform/load for the given run date, and writes
// the run record. Schedulers invoke it once per (pipeline, run date) pair;
// a non-zero exit marks the run as failed for their retry logic.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/skillsenselab/ingest/config"
	"github.com/skillsenselab/ingest/database"
	"github.com/skillsenselab/ingest/logger"
	"github.com/skillsenselab/ingest/monitor"
	"github.com/skillsenselab/ingest/pipeline"
	"github.com/skillsenselab/ingest/storage"
	"github.com/skillsenselab/ingest/version"

	_ "github.com/skillsenselab/ingest/storage/local"
	_ "github.com/skillsenselab/ingest/storage/s3"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to the pipeline definition YAML (required)")
		servicePath = flag.String("service", "", "path to the service config YAML (optional)")
		runDate     = flag.String("run-date", "", "logical run date YYYY-MM-DD (defaults to today)")
		failOnZero  = flag.Bool("fail-on-zero", false, "treat zero valid records as a failed run")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		return
	}

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "ingest: -config is required")
		flag.Usage()
		os.Exit(2)
	}

	svc, err := config.LoadService(*servicePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingest: %v\n", err)
		os.Exit(1)
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

	var opts []pipeline.Option
	if *failOnZero {
		opts = append(opts, pipeline.WithZeroValidPolicy(pipeline.ZeroValidFail))
	}
	runner := pipeline.NewRunner(db, storage.NewPayloadStore(store), log, opts...)

	rec, err := runner.RunFile(ctx, *configPath, *runDate)
	if err != nil {
		log.Error("run aborted", logger.Fields("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("run %s: %s (%d rows, %.2fs)\n", rec.RunID, rec.Status, rec.RowsProcessed, rec.DurationSec)
	if rec.Status == monitor.StatusFailed {
		os.Exit(1)
	}
}
