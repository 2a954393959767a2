package factory

import (
	"time"

	"github.com/spf13/afero"

	"github.com/mcoot/squidgame/internal/dependencies/mocks"
	feedmemory "github.com/mcoot/squidgame/internal/feed/memory"
	"github.com/mcoot/squidgame/internal/metrics"
	"github.com/mcoot/squidgame/internal/photos"
	"github.com/mcoot/squidgame/internal/services/auth"
	"github.com/mcoot/squidgame/internal/storage/memory"
	"github.com/mcoot/squidgame/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockIDs    *mocks.MockIDs

	MemoryStorage *memory.Storage
	MemoryFeed    *feedmemory.Broker
	PhotoFs       afero.Fs
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	logger := testutil.NopLogger()
	store := memory.New()
	broker := feedmemory.New(logger)
	fs := afero.NewMemMapFs()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockIDs := mocks.NewMockIDs("id")

	app := newWithDependencies(deps{
		store:   store,
		broker:  broker,
		photos:  photos.NewStore(fs, PhotoURLPrefix, photos.DefaultMaxBytes, logger),
		clock:   mockClock,
		random:  mockRandom,
		ids:     mockIDs,
		metrics: metrics.New(),
		authCfg: auth.DefaultConfig(),
		logger:  logger,
	})
	app.closers = []func() error{broker.Close, store.Close}

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MockIDs:       mockIDs,
		MemoryStorage: store,
		MemoryFeed:    broker,
		PhotoFs:       fs,
	}
}
