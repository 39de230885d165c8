// Package pipeline wires match history expansion, feature normalization and outcome
// prediction into a single run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"teemo/internal/archive"
	"teemo/internal/db"
	"teemo/internal/features"
	"teemo/internal/history"
	"teemo/internal/predict"
	"teemo/internal/storage"
)

// HistorySource expands player names into their match statistics
type HistorySource interface {
	ExpandReport(ctx context.Context, names []string) (*history.Report, error)
}

// ModelLoader returns the classifier to use for one run
type ModelLoader func() (predict.Classifier, error)

// Exporter receives the raw statistics of every run
type Exporter interface {
	Write(records []storage.StatsRecord) error
}

// FeatureArchive receives the normalized rows of every run
type FeatureArchive interface {
	SaveRun(ctx context.Context, runID string, entries []archive.Entry) error
}

// PredictionLog receives the predictions of every run
type PredictionLog interface {
	SaveRun(ctx context.Context, run *db.Run) error
}

// Pipeline runs names through expansion, normalization and prediction
type Pipeline struct {
	source    HistorySource
	loadModel ModelLoader
	modelPath string
	logger    *zap.SugaredLogger

	exporter    Exporter
	archive     FeatureArchive
	predictions PredictionLog
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithExporter writes each run's raw statistics to e
func WithExporter(e Exporter) Option {
	return func(p *Pipeline) {
		p.exporter = e
	}
}

// WithArchive stores each run's feature rows in a
func WithArchive(a FeatureArchive) Option {
	return func(p *Pipeline) {
		p.archive = a
	}
}

// WithPredictionLog stores each run's predictions in l
func WithPredictionLog(l PredictionLog) Option {
	return func(p *Pipeline) {
		p.predictions = l
	}
}

// WithModelLoader replaces the file based model loader
func WithModelLoader(load ModelLoader) Option {
	return func(p *Pipeline) {
		p.loadModel = load
	}
}

// New creates a pipeline reading history from source and loading the model artifact
// at modelPath on every run.
func New(source HistorySource, modelPath string, logger *zap.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		source:    source,
		modelPath: modelPath,
		logger:    logger.Sugar(),
	}
	p.loadModel = func() (predict.Classifier, error) {
		return predict.LoadModel(p.modelPath)
	}

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run is the full outcome of one pipeline run
type Run struct {
	ID       uuid.UUID
	Names    []string
	Report   *history.Report
	Table    features.Table
	Result   *predict.Result
	Duration time.Duration
}

// PredictWins returns the predicted outcome of every matching observation of names
func (p *Pipeline) PredictWins(ctx context.Context, names []string) ([]int, error) {
	run, err := p.Run(ctx, names)
	if err != nil {
		return nil, err
	}
	return run.Result.Labels, nil
}

// Run fetches, reshapes and scores the match history of names. Any fetch, model or
// schema failure aborts the run; sink failures are only logged.
func (p *Pipeline) Run(ctx context.Context, names []string) (*Run, error) {
	start := time.Now()
	run := &Run{ID: uuid.New(), Names: append([]string(nil), names...)}
	log := p.logger.With("run", run.ID.String())

	log.Info("Fetching data...")
	report, err := p.source.ExpandReport(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	run.Report = report
	if malformed := report.Malformed(); len(malformed) > 0 {
		log.Warnw("skipped malformed participant slots", "count", len(malformed))
	}
	p.export(run, log)

	log.Info("Reshaping data...")
	run.Table = features.Normalize(report.Stats())
	if len(run.Table.Missing) > 0 && len(run.Table.Rows) > 0 {
		log.Warnw("columns absent from every row were zero filled", "columns", run.Table.Missing)
	}
	p.archiveRows(ctx, run, log)

	log.Info("Making predictions...")
	result, err := p.predict(run.Table)
	if err != nil {
		return nil, err
	}
	run.Result = result
	run.Duration = time.Since(start)

	log.Infow("predictions", "labels", result.Labels)
	log.Infow("probabilities", "values", result.Probabilities)
	log.Infow("score", "accuracy", result.Score, "rows", len(result.Labels), "duration", run.Duration)

	p.logPredictions(ctx, run, log)
	return run, nil
}

// History returns the expansion report of names without scoring it
func (p *Pipeline) History(ctx context.Context, names []string) (*history.Report, error) {
	return p.source.ExpandReport(ctx, names)
}

// Score normalizes already fetched statistics and runs the model over them
func (p *Pipeline) Score(stats []features.Stats) (*predict.Result, error) {
	return p.predict(features.Normalize(stats))
}

func (p *Pipeline) predict(t features.Table) (*predict.Result, error) {
	model, err := p.loadModel()
	if err != nil {
		return nil, err
	}
	return predict.Invoke(model, t)
}

func (p *Pipeline) export(run *Run, log *zap.SugaredLogger) {
	if p.exporter == nil || len(run.Report.Observations) == 0 {
		return
	}
	now := time.Now().UTC()
	records := make([]storage.StatsRecord, 0, len(run.Report.Observations))
	for _, o := range run.Report.Observations {
		records = append(records, storage.StatsRecord{
			RunID:      run.ID.String(),
			GameID:     o.GameID,
			Slot:       o.Slot,
			Name:       o.Name,
			ExportedAt: now,
			Stats:      o.Stats,
		})
	}
	if err := p.exporter.Write(records); err != nil {
		log.Warnw("failed to export raw stats", "error", err)
	}
}

func (p *Pipeline) archiveRows(ctx context.Context, run *Run, log *zap.SugaredLogger) {
	if p.archive == nil || len(run.Table.Rows) == 0 {
		return
	}
	entries := make([]archive.Entry, len(run.Table.Rows))
	for i, row := range run.Table.Rows {
		o := run.Report.Observations[i]
		entries[i] = archive.Entry{GameID: o.GameID, Slot: o.Slot, Name: o.Name, Row: row}
	}
	if err := p.archive.SaveRun(ctx, run.ID.String(), entries); err != nil {
		log.Warnw("failed to archive feature rows", "error", err)
	}
}

func (p *Pipeline) logPredictions(ctx context.Context, run *Run, log *zap.SugaredLogger) {
	if p.predictions == nil {
		return
	}
	labels := run.Table.Labels()
	entry := &db.Run{
		RunID:     run.ID,
		Names:     run.Names,
		ModelPath: p.modelPath,
		Score:     run.Result.Score,
		Rows:      make([]db.Prediction, len(run.Result.Labels)),
	}
	for i, label := range run.Result.Labels {
		o := run.Report.Observations[i]
		entry.Rows[i] = db.Prediction{
			GameID:    o.GameID,
			Name:      o.Name,
			Predicted: label,
			PLoss:     run.Result.Probabilities[i][0],
			PWin:      run.Result.Probabilities[i][1],
			Actual:    int(labels[i]),
		}
	}
	if err := p.predictions.SaveRun(ctx, entry); err != nil {
		log.Warnw("failed to log predictions", "error", err)
	}
}
