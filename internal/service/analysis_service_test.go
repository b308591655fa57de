package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/nutrimed/internal/analyzer"
	"github.com/mmynk/nutrimed/internal/apperr"
	"github.com/mmynk/nutrimed/internal/middleware"
	"github.com/mmynk/nutrimed/internal/models"
)

func strPtr(s string) *string { return &s }

func TestAnalysisService_Lifecycle(t *testing.T) {
	f := newFixture(t, nil)
	f.analyses.now = fixedClock(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC))
	ctx, userID := f.registerUser(t, "alice@example.com")

	first, err := f.analyses.Create(ctx, NewAnalysis{DishName: "  Oatmeal ", Text: "DISH:\nOatmeal"})
	require.NoError(t, err)
	assert.Equal(t, "Oatmeal", first.DishName)
	assert.Equal(t, userID, first.OwnerID)
	assert.Nil(t, first.Preview)

	second, err := f.analyses.Create(ctx, NewAnalysis{DishName: "Salad", Text: "DISH:\nSalad", Preview: strPtr("data:image/png;base64,AA==")})
	require.NoError(t, err)

	list, err := f.analyses.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	require.NoError(t, f.analyses.Rename(ctx, first.ID, "Porridge"))
	require.NoError(t, f.analyses.Delete(ctx, second.ID))

	list, err = f.analyses.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Porridge", list[0].DishName)
	assert.Equal(t, "DISH:\nOatmeal", list[0].Text)

	n, err := f.analyses.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err = f.analyses.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAnalysisService_OwnershipIsolation(t *testing.T) {
	f := newFixture(t, nil)
	aliceCtx, _ := f.registerUser(t, "alice@example.com")
	bobCtx, _ := f.registerUser(t, "bob@example.com")

	record, err := f.analyses.Create(aliceCtx, NewAnalysis{DishName: "Soup", Text: "..."})
	require.NoError(t, err)

	bobList, err := f.analyses.List(bobCtx)
	require.NoError(t, err)
	assert.Empty(t, bobList)

	err = f.analyses.Rename(bobCtx, record.ID, "Mine now")
	assert.ErrorIs(t, err, ErrAnalysisNotFound)
	err = f.analyses.Delete(bobCtx, record.ID)
	assert.ErrorIs(t, err, ErrAnalysisNotFound)

	missingErr := f.analyses.Delete(bobCtx, "does-not-exist")
	assert.Equal(t, apperr.Message(err), apperr.Message(missingErr), "foreign and missing records look the same")

	n, err := f.analyses.DeleteAll(bobCtx)
	require.NoError(t, err)
	assert.Zero(t, n)

	aliceList, err := f.analyses.List(aliceCtx)
	require.NoError(t, err)
	require.Len(t, aliceList, 1)
	assert.Equal(t, "Soup", aliceList[0].DishName)
}

func TestAnalysisService_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx, _ := f.registerUser(t, "alice@example.com")

	tests := []struct {
		name string
		in   NewAnalysis
		want error
	}{
		{"blank dish name", NewAnalysis{DishName: "   ", Text: "x"}, ErrDishNameRequired},
		{"long dish name", NewAnalysis{DishName: strings.Repeat("é", models.MaxDishNameRunes+1), Text: "x"}, ErrDishNameTooLong},
		{"blank analysis", NewAnalysis{DishName: "Soup", Text: " \n"}, ErrAnalysisRequired},
		{"huge analysis", NewAnalysis{DishName: "Soup", Text: strings.Repeat("x", models.MaxAnalysisBytes+1)}, ErrAnalysisTooLong},
		{"huge preview", NewAnalysis{DishName: "Soup", Text: "x", Preview: strPtr(strings.Repeat("x", models.MaxPreviewBytes+1))}, ErrPreviewTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.analyses.Create(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
		})
	}

	record, err := f.analyses.Create(ctx, NewAnalysis{DishName: "Soup", Text: "x"})
	require.NoError(t, err)
	assert.ErrorIs(t, f.analyses.Rename(ctx, record.ID, ""), ErrDishNameRequired)
}

func TestAnalysisService_RequiresIdentity(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.analyses.List(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.analyses.Create(ctx, NewAnalysis{DishName: "a", Text: "b"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, f.analyses.Rename(ctx, "x", "y"), ErrUnauthenticated)
	assert.ErrorIs(t, f.analyses.Delete(ctx, "x"), ErrUnauthenticated)
	_, err = f.analyses.DeleteAll(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.analyses.Create(middleware.WithUserID(ctx, "ghost"), NewAnalysis{DishName: "a", Text: "b"})
	assert.ErrorIs(t, err, ErrUnauthenticated, "token for a user that no longer exists")
}

func TestAnalysisService_ConcurrentDelete(t *testing.T) {
	f := newFixture(t, nil)
	ctx, _ := f.registerUser(t, "alice@example.com")

	record, err := f.analyses.Create(ctx, NewAnalysis{DishName: "race", Text: "..."})
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.analyses.Delete(ctx, record.ID)
		}(i)
	}
	wg.Wait()

	okCount := 0
	for _, err := range errs {
		if err == nil {
			okCount++
		} else {
			assert.ErrorIs(t, err, ErrAnalysisNotFound)
		}
	}
	assert.Equal(t, 1, okCount)
}

type stubAnalyzer struct {
	report string
	err    error
	got    analyzer.Request
}

func (s *stubAnalyzer) Analyze(_ context.Context, req analyzer.Request) (string, error) {
	s.got = req
	return s.report, s.err
}

func TestAnalysisService_Analyze(t *testing.T) {
	t.Run("anonymous caller gets a report", func(t *testing.T) {
		stub := &stubAnalyzer{report: "DISH:\nPizza"}
		f := newFixture(t, stub)

		report, err := f.analyses.Analyze(context.Background(), analyzer.Request{
			Image:   []byte{1},
			Profile: analyzer.Profile{Current: []string{"Diabetes"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "DISH:\nPizza", report)
		assert.Equal(t, []string{"Diabetes"}, stub.got.Profile.Current)
	})

	t.Run("unconfigured analyzer is unavailable", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.analyses.Analyze(context.Background(), analyzer.Request{Image: []byte{1}})
		assert.ErrorIs(t, err, analyzer.ErrNotConfigured)
		assert.Equal(t, apperr.AnalyzerUnavailable, apperr.KindOf(err))
	})

	t.Run("unclassified analyzer error becomes unavailable", func(t *testing.T) {
		f := newFixture(t, &stubAnalyzer{err: errors.New("socket closed")})
		_, err := f.analyses.Analyze(context.Background(), analyzer.Request{Image: []byte{1}})
		assert.Equal(t, apperr.AnalyzerUnavailable, apperr.KindOf(err))
		assert.NotContains(t, apperr.Message(err), "socket")
	})
}
