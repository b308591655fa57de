package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/nutrimed/internal/analyzer"
	"github.com/mmynk/nutrimed/internal/auth"
	"github.com/mmynk/nutrimed/internal/metrics"
	"github.com/mmynk/nutrimed/internal/middleware"
	"github.com/mmynk/nutrimed/internal/storage/sqlite"
	"github.com/mmynk/nutrimed/pkg/logging"
)

const testSecret = "service-test-secret-0123456789abcdef"

type fixture struct {
	store    *sqlite.SQLiteStore
	jwt      *auth.JWTManager
	reg      *prometheus.Registry
	auth     *AuthService
	analyses *AnalysisService
}

func newFixture(t *testing.T, a analyzer.Analyzer) *fixture {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	if a == nil {
		a = analyzer.Unconfigured{}
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	logger := logging.Discard()
	jwtManager := auth.NewJWTManager(testSecret)
	authenticator := auth.NewPasswordAuthenticator(store, auth.BcryptHasher{Cost: bcrypt.MinCost})

	return &fixture{
		store:    store,
		jwt:      jwtManager,
		reg:      reg,
		auth:     NewAuthService(authenticator, jwtManager, store, logger, m),
		analyses: NewAnalysisService(store, a, logger, m),
	}
}

// registerUser registers email and returns a context authenticated as it.
func (f *fixture) registerUser(t *testing.T, email string) (context.Context, string) {
	t.Helper()
	res, err := f.auth.Register(context.Background(), email, "secret1")
	require.NoError(t, err)
	return middleware.WithUserID(context.Background(), res.User.ID), res.User.ID
}

// fixedClock returns successive instants one minute apart.
func fixedClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		t := next
		next = next.Add(time.Minute)
		return t
	}
}
