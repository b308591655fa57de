package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmynk/nutrimed/internal/analyzer"
	"github.com/mmynk/nutrimed/internal/apperr"
	"github.com/mmynk/nutrimed/internal/metrics"
	"github.com/mmynk/nutrimed/internal/middleware"
	"github.com/mmynk/nutrimed/internal/models"
	"github.com/mmynk/nutrimed/internal/storage"
)

var (
	ErrAnalysisNotFound = apperr.New(apperr.NotFound, "analysis not found")
	ErrDishNameRequired = apperr.New(apperr.InvalidInput, "dishName is required")
	ErrDishNameTooLong  = apperr.New(apperr.InvalidInput, "dishName is too long")
	ErrAnalysisRequired = apperr.New(apperr.InvalidInput, "analysis is required")
	ErrAnalysisTooLong  = apperr.New(apperr.InvalidInput, "analysis is too long")
	ErrPreviewTooLarge  = apperr.New(apperr.InvalidInput, "preview is too large")
)

// NewAnalysis is the client-supplied part of a saved analysis.
type NewAnalysis struct {
	DishName string
	Text     string
	Preview  *string
}

// AnalysisService manages the caller's saved analyses and runs the analyzer.
// Every stored operation is scoped to the user in the request context.
type AnalysisService struct {
	store    storage.AnalysisStore
	analyzer analyzer.Analyzer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewAnalysisService creates the service. m may be nil.
func NewAnalysisService(store storage.AnalysisStore, a analyzer.Analyzer, logger *slog.Logger, m *metrics.Metrics) *AnalysisService {
	return &AnalysisService{
		store:    store,
		analyzer: a,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", ErrUnauthenticated
	}
	return userID, nil
}

func validateDishName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrDishNameRequired
	}
	if utf8.RuneCountInString(name) > models.MaxDishNameRunes {
		return "", ErrDishNameTooLong
	}
	return name, nil
}

// List returns the caller's most recent analyses, newest first.
func (s *AnalysisService) List(ctx context.Context) ([]*models.Analysis, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	analyses, err := s.store.ListAnalyses(ctx, userID, models.MaxListedAnalyses)
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, "failed to list analyses", err)
	}
	return analyses, nil
}

// Create saves a new analysis for the caller.
func (s *AnalysisService) Create(ctx context.Context, in NewAnalysis) (*models.Analysis, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	name, err := validateDishName(in.DishName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrAnalysisRequired
	}
	if len(in.Text) > models.MaxAnalysisBytes {
		return nil, ErrAnalysisTooLong
	}
	preview := in.Preview
	if preview != nil && *preview == "" {
		preview = nil
	}
	if preview != nil && len(*preview) > models.MaxPreviewBytes {
		return nil, ErrPreviewTooLarge
	}

	a := &models.Analysis{
		OwnerID:   userID,
		DishName:  name,
		Text:      in.Text,
		Preview:   preview,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateAnalysis(ctx, a); err != nil {
		if errors.Is(err, storage.ErrOwnerNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, apperr.Wrap(apperr.StoreUnavailable, "failed to save analysis", err)
	}

	s.logger.InfoContext(ctx, "Analysis saved", "user_id", userID, "analysis_id", a.ID)
	return a, nil
}

// Rename changes the dish name of one of the caller's analyses.
func (s *AnalysisService) Rename(ctx context.Context, id, dishName string) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}
	name, err := validateDishName(dishName)
	if err != nil {
		return err
	}

	if err := s.store.RenameAnalysis(ctx, id, userID, name); err != nil {
		return mapMutationError(err, "failed to rename analysis")
	}
	return nil
}

// Delete removes one of the caller's analyses.
func (s *AnalysisService) Delete(ctx context.Context, id string) error {
	userID, err := requireUser(ctx)
	if err != nil {
		return err
	}

	if err := s.store.DeleteAnalysis(ctx, id, userID); err != nil {
		return mapMutationError(err, "failed to delete analysis")
	}
	s.logger.InfoContext(ctx, "Analysis deleted", "user_id", userID, "analysis_id", id)
	return nil
}

// DeleteAll removes every analysis of the caller and reports how many.
func (s *AnalysisService) DeleteAll(ctx context.Context) (int64, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return 0, err
	}

	n, err := s.store.DeleteAllAnalyses(ctx, userID)
	if err != nil {
		return 0, apperr.Wrap(apperr.StoreUnavailable, "failed to delete analyses", err)
	}
	s.logger.InfoContext(ctx, "Analyses cleared", "user_id", userID, "deleted", n)
	return n, nil
}

// Analyze runs the analyzer. Authentication is optional; the caller's
// identity, when known, is only logged.
func (s *AnalysisService) Analyze(ctx context.Context, req analyzer.Request) (string, error) {
	userID := middleware.GetUserID(ctx)
	start := s.now()

	report, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		outcome := "unavailable"
		if apperr.KindOf(err) == apperr.InvalidInput {
			outcome = "rejected"
		}
		s.metrics.AnalyzerCall(outcome)
		s.logger.WarnContext(ctx, "Analysis failed", "user_id", userID, "error", err)
		if apperr.KindOf(err) == apperr.Internal {
			return "", apperr.Wrap(apperr.AnalyzerUnavailable, analyzer.ErrUnavailable.Msg, err)
		}
		return "", err
	}

	s.metrics.AnalyzerCall("ok")
	s.logger.InfoContext(ctx, "Analysis completed",
		"user_id", userID,
		"current_conditions", len(req.Profile.Current),
		"concerned_conditions", len(req.Profile.Concerned),
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
	return report, nil
}

func mapMutationError(err error, msg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrAnalysisNotFound
	}
	return apperr.Wrap(apperr.StoreUnavailable, msg, err)
}
