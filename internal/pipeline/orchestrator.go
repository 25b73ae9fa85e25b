package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hakim/tlsgrind/internal/aggregate"
	"github.com/hakim/tlsgrind/internal/config"
	"github.com/hakim/tlsgrind/internal/ingest"
	"github.com/hakim/tlsgrind/internal/logging"
	"github.com/hakim/tlsgrind/internal/models"
	"github.com/hakim/tlsgrind/internal/report"
	"github.com/hakim/tlsgrind/internal/storage"
)

// StoreInterface is the minimal bbolt contract required by the orchestrator.
// Using an interface keeps the package testable without a real database.
type StoreInterface interface {
	SaveRun(run *models.IngestRun) error
	FinishRun(id string, status models.RunStatus) error
}

// ArtifactFunc writes one output file through w.
type ArtifactFunc func(w *report.Writer) error

// Artifact pairs an output filename with the function that produces it.
type Artifact struct {
	Name  string
	Write ArtifactFunc
}

// PipelineConfig controls how RunPipeline behaves for a single run.
type PipelineConfig struct {
	// ReportDir holds the TLS-Scanner text reports. Required.
	ReportDir string

	// OutputDir receives every artifact. Created if missing. Required.
	OutputDir string

	// Hosts is the recon dataset consulted for vulnerabilities and
	// delta emission. Nil means no dataset.
	Hosts ingest.HostSource

	// Outputs names the files written to OutputDir.
	Outputs config.OutputsConfig

	// Scope limits ingestion to the allowed CIDRs.
	Scope ingest.ScopeConfig

	// TopLimit caps each ranking in the markdown summary. Zero lists all.
	TopLimit int

	// Timeout caps ingestion wall-clock time. Zero means no timeout beyond
	// the caller's context.
	Timeout time.Duration

	// Logger receives progress messages. Nil discards them.
	Logger logrus.FieldLogger

	// OnArtifactDone is called after each artifact write attempt.
	// err is nil on success.
	OnArtifactDone func(name string, err error)
}

// PipelineResult summarises what happened after RunPipeline returns.
type PipelineResult struct {
	// RunID is the bbolt record ID created for this run.
	RunID string

	Ingest          *ingest.Result
	Attacks         aggregate.FrequencyTable
	Bugs            aggregate.FrequencyTable
	Vulnerabilities aggregate.FrequencyTable
	Grouped         aggregate.GroupedReport

	// Artifacts lists the paths that were written successfully.
	Artifacts []string

	// ArtifactErrors maps artifact name to error message for every write
	// that failed.
	ArtifactErrors map[string]string

	// Status is complete when every artifact was written, partial when at
	// least one failed and failed when none could be written.
	Status models.RunStatus

	Elapsed time.Duration
}

// RunPipeline ingests ReportDir, aggregates the hosts and writes every
// artifact to OutputDir.
//
// Ingestion errors (unlistable directory, cancellation) abort the run before
// anything is written. Artifact writes are independent: each is wrapped in a
// deferred recover, a failure is recorded and the remaining artifacts are
// still attempted. The joined artifact error is returned alongside the
// result.
//
// When store is non-nil an IngestRun record is created before ingestion and
// finished with the final status.
func RunPipeline(ctx context.Context, cfg PipelineConfig, store StoreInterface) (*PipelineResult, error) {
	if cfg.ReportDir == "" {
		return nil, fmt.Errorf("pipeline: ReportDir is required")
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("pipeline: OutputDir is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	runCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	run := models.NewIngestRun(cfg.ReportDir, cfg.OutputDir)
	run.Status = models.StatusRunning
	if store != nil {
		if err := store.SaveRun(run); err != nil {
			return nil, fmt.Errorf("pipeline: saving initial run record: %w", err)
		}
	}
	log = log.WithField("run", run.ID)

	start := time.Now()

	ingested, err := ingest.Run(runCtx, cfg.ReportDir, cfg.Hosts, ingest.Config{
		Scope:  cfg.Scope,
		Logger: log,
	})
	if err != nil {
		run.Errors = append(run.Errors, err.Error())
		finish(store, run, models.StatusFailed, log)
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	run.FilesSeen = ingested.FilesSeen
	run.HostsParsed = len(ingested.Hosts)
	run.FilesSkipped = len(ingested.Skipped)
	run.Deltas = len(ingested.Deltas)

	result := &PipelineResult{
		RunID:           run.ID,
		Ingest:          ingested,
		Attacks:         aggregate.Count(ingested.Hosts, models.FieldAttacks),
		Bugs:            aggregate.Count(ingested.Hosts, models.FieldBugs),
		Vulnerabilities: aggregate.Count(ingested.Hosts, models.FieldVulnerabilities),
		Artifacts:       []string{},
		ArtifactErrors:  make(map[string]string),
	}
	result.Grouped = aggregate.Group(ingested.Hosts, result.Attacks)

	if err := storage.EnsureDir(cfg.OutputDir); err != nil {
		run.Errors = append(run.Errors, err.Error())
		finish(store, run, models.StatusFailed, log)
		return nil, fmt.Errorf("pipeline: creating output directory: %w", err)
	}

	writer := report.NewWriter(cfg.OutputDir)
	artifacts := Artifacts(cfg, result)

	var errs []error
	for _, a := range artifacts {
		writeErr := writeArtifactIsolated(writer, a)
		if writeErr != nil {
			result.ArtifactErrors[a.Name] = writeErr.Error()
			run.Errors = append(run.Errors, writeErr.Error())
			errs = append(errs, writeErr)
			log.WithError(writeErr).WithField("artifact", a.Name).Error("artifact write failed")
		} else {
			result.Artifacts = append(result.Artifacts, writer.Path(a.Name))
			log.WithField("artifact", a.Name).Debug("artifact written")
		}

		if cfg.OnArtifactDone != nil {
			cfg.OnArtifactDone(a.Name, writeErr)
		}
	}

	result.Elapsed = time.Since(start)
	result.Status = resolveFinalStatus(len(artifacts), len(errs))
	finish(store, run, result.Status, log)

	log.WithFields(logrus.Fields{
		"status":  result.Status,
		"hosts":   len(ingested.Hosts),
		"skipped": len(ingested.Skipped),
		"elapsed": result.Elapsed.Round(time.Millisecond).String(),
	}).Info("pipeline finished")

	return result, errors.Join(errs...)
}

// Artifacts returns the ordered list of files a run writes.
func Artifacts(cfg PipelineConfig, r *PipelineResult) []Artifact {
	o := cfg.Outputs
	hosts := r.Ingest.Hosts

	return []Artifact{
		{o.ResultsJSON, func(w *report.Writer) error { return w.SaveJSON(hosts, o.ResultsJSON) }},
		{o.AttacksJSON, func(w *report.Writer) error { return w.SaveJSON(r.Attacks, o.AttacksJSON) }},
		{o.BugsJSON, func(w *report.Writer) error { return w.SaveJSON(r.Bugs, o.BugsJSON) }},
		{o.VulnerabilitiesJSON, func(w *report.Writer) error { return w.SaveJSON(r.Vulnerabilities, o.VulnerabilitiesJSON) }},
		{o.ResultsCSV, func(w *report.Writer) error { return w.SaveFlatCSV(hosts, o.ResultsCSV) }},
		{o.AttacksCSV, func(w *report.Writer) error { return w.SaveFrequencyCSV(r.Attacks, o.AttacksCSV) }},
		{o.BugsCSV, func(w *report.Writer) error { return w.SaveFrequencyCSV(r.Bugs, o.BugsCSV) }},
		{o.VulnerabilitiesCSV, func(w *report.Writer) error { return w.SaveFrequencyCSV(r.Vulnerabilities, o.VulnerabilitiesCSV) }},
		{o.GroupedCSV, func(w *report.Writer) error { return w.SaveGroupedCSV(r.Grouped, o.GroupedCSV) }},
		{o.SummaryMD, func(w *report.Writer) error {
			return report.WriteSummaryReport(&report.Summary{
				ReportDir:       cfg.ReportDir,
				Hosts:           hosts,
				Attacks:         r.Attacks,
				Bugs:            r.Bugs,
				Vulnerabilities: r.Vulnerabilities,
				Grouped:         r.Grouped,
				Skipped:         r.Ingest.Skipped,
				TopLimit:        cfg.TopLimit,
			}, filepath.Join(w.Dir, o.SummaryMD))
		}},
	}
}

// writeArtifactIsolated runs a single artifact write inside a deferred
// recover so a panic is returned as an error rather than crashing the run.
func writeArtifactIsolated(w *report.Writer, a Artifact) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("artifact %q panicked: %v", a.Name, r)
		}
	}()
	return a.Write(w)
}

// finish persists the run counters and terminal status. Store failures are
// logged, never returned: the artifacts are already on disk.
func finish(store StoreInterface, run *models.IngestRun, status models.RunStatus, log logrus.FieldLogger) {
	run.Status = status
	if store == nil {
		return
	}
	if err := store.SaveRun(run); err != nil {
		log.WithError(err).Warn("could not persist run record")
		return
	}
	if err := store.FinishRun(run.ID, status); err != nil {
		log.WithError(err).Warn("could not update final run status")
	}
}

func resolveFinalStatus(total, failed int) models.RunStatus {
	switch {
	case failed == 0:
		return models.StatusComplete
	case failed == total:
		return models.StatusFailed
	default:
		return models.StatusPartial
	}
}
