// Package sync drives one full synchronization cycle against the remote
// Central project: entity fetch, image fetch and response fetch, each
// normalized and written through the survey store.
package sync

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	gosync "sync"
	"time"

	"fieldwatch/internal/bootstrap/logging"
	"fieldwatch/internal/domain/survey"
	"fieldwatch/internal/errs"
	"fieldwatch/internal/ports"
)

// Result reports how many records each category successfully upserted in one
// cycle.
type Result struct {
	Issues    int
	Images    int
	Responses int
}

// Service orchestrates sync cycles. At most one cycle runs at a time: a
// second caller (manual trigger racing the timer) blocks on the mutex until
// the active cycle finishes. Readers are never blocked; they may observe a
// partially updated store between row upserts.
type Service struct {
	source Source
	store  ports.SurveyStore
	state  ports.SyncState

	mu gosync.Mutex
}

func NewService(source Source, store ports.SurveyStore, state ports.SyncState) *Service {
	return &Service{
		source: source,
		store:  store,
		state:  state,
	}
}

// Run performs one cycle. Only an authentication failure is fatal; a failed
// list fetch abandons that category for this cycle and a failed single record
// is skipped. Counts cover successful writes only.
func (s *Service) Run(ctx context.Context) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("context is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logCtx := logging.WithAttrs(ctx, slog.String("component", "sync.service"))
	started := time.Now()

	if err := s.source.Login(ctx); err != nil {
		logging.Error(logCtx, "login failed, cycle aborted", slog.Any("err", errs.Loggable(err)))
		return Result{}, errs.Wrap(err, "login to central")
	}

	var result Result
	result.Issues = s.syncEntities(logCtx)
	result.Images = s.syncImages(logCtx)
	result.Responses = s.syncResponses(logCtx)

	s.recordState(logCtx, result)

	logging.Info(
		logCtx,
		"sync cycle completed",
		slog.Int("issues", result.Issues),
		slog.Int("images", result.Images),
		slog.Int("responses", result.Responses),
		slog.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (s *Service) syncEntities(ctx context.Context) int {
	entities, err := s.source.Entities(ctx)
	if err != nil {
		logging.Error(ctx, "entity fetch failed, category abandoned for this cycle", slog.Any("err", errs.Loggable(err)))
		return 0
	}

	updated := 0
	for id, issue := range normalizeEntities(ctx, entities) {
		if err := s.store.UpsertIssue(ctx, issue); err != nil {
			logging.Error(ctx, "issue upsert failed, record skipped",
				slog.String("issue_id", id), slog.Any("err", errs.Loggable(err)))
			continue
		}
		updated++
	}
	return updated
}

func (s *Service) syncImages(ctx context.Context) int {
	subs, err := s.source.ReportSubmissions(ctx)
	if err != nil {
		logging.Error(ctx, "report fetch failed, category abandoned for this cycle", slog.Any("err", errs.Loggable(err)))
		return 0
	}

	saved := 0
	for id, image := range s.resolveImages(ctx, subs) {
		if err := s.store.InsertImage(ctx, image); err != nil {
			logging.Error(ctx, "image insert failed, record skipped",
				slog.String("submission_id", id), slog.Any("err", errs.Loggable(err)))
			continue
		}
		saved++
	}
	return saved
}

func (s *Service) syncResponses(ctx context.Context) int {
	subs, err := s.source.ResponseSubmissions(ctx)
	if err != nil {
		logging.Error(ctx, "response fetch failed, category abandoned for this cycle", slog.Any("err", errs.Loggable(err)))
		return 0
	}

	saved := 0
	for _, sub := range subs {
		if sub.ID == "" {
			logging.Warn(ctx, "response submission without id skipped")
			continue
		}
		response := s.normalizeResponse(ctx, sub)
		if err := s.store.UpsertResponse(ctx, response); err != nil {
			logging.Error(ctx, "response upsert failed, record skipped",
				slog.String("key", sub.ID), slog.Any("err", errs.Loggable(err)))
			continue
		}
		saved++
	}
	return saved
}

// recordState is best effort bookkeeping; a failed write never fails the
// cycle.
func (s *Service) recordState(ctx context.Context, result Result) {
	if s.state == nil {
		return
	}

	entries := map[string]string{
		ports.StateLastSyncAt:        time.Now().UTC().Format(survey.TimestampLayout),
		ports.StateLastSyncIssues:    strconv.Itoa(result.Issues),
		ports.StateLastSyncImages:    strconv.Itoa(result.Images),
		ports.StateLastSyncResponses: strconv.Itoa(result.Responses),
	}
	for key, value := range entries {
		if err := s.state.Set(ctx, key, value); err != nil {
			logging.Warn(ctx, "sync state write failed",
				slog.String("key", key), slog.Any("err", errs.Loggable(err)))
		}
	}
}
