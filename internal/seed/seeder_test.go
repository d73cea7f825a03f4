package seed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"catalogservice/internal/book"
	"catalogservice/internal/config"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) AddBookToCatalog(ctx context.Context, b book.Book) (book.Book, error) {
	args := m.Called(ctx, b)
	return args.Get(0).(book.Book), args.Error(1)
}

type mockResetter struct {
	mock.Mock
}

func (m *mockResetter) DeleteAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) BookSeeded(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[outcome]++
}

func fakerConfig(amount int) config.FakerConfig {
	return config.FakerConfig{Enabled: true, Amount: amount, MinPrice: 5, MaxPrice: 50}
}

func TestSeeder_FakeBookIsValid(t *testing.T) {
	s := New(nil, nil, fakerConfig(1), WithFaker(gofakeit.New(42)))

	for i := 0; i < 200; i++ {
		b := s.FakeBook()
		assert.Regexp(t, book.ISBNPattern, b.ISBN)
		assert.NotEmpty(t, b.Title)
		assert.NotEmpty(t, b.Author)
		assert.NotEmpty(t, b.Publisher)
		assert.GreaterOrEqual(t, b.Price, 5.0)
		assert.LessOrEqual(t, b.Price, 50.0)
		assert.Equal(t, b.Price, float64(int(b.Price)), "price is a whole amount")
		assert.True(t, b.IsNew())
	}
}

func TestSeeder_RunCountsOutcomes(t *testing.T) {
	catalog := &mockCatalog{}
	rec := &countingRecorder{}
	s := New(catalog, &mockResetter{}, fakerConfig(3), WithRecorder(rec))

	catalog.On("AddBookToCatalog", mock.Anything, mock.Anything).Return(book.Book{ID: 1}, nil).Twice()
	catalog.On("AddBookToCatalog", mock.Anything, mock.Anything).
		Return(book.Book{}, &book.AlreadyExistsError{ISBN: "1234567890"}).Once()

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{Added: 2, Skipped: 1}, res)
	assert.Equal(t, map[string]int{"added": 2, "skipped": 1}, rec.counts)
	catalog.AssertExpectations(t)
}

func TestSeeder_RunAbortsOnStorageFailure(t *testing.T) {
	catalog := &mockCatalog{}
	s := New(catalog, &mockResetter{}, fakerConfig(5))

	catalog.On("AddBookToCatalog", mock.Anything, mock.Anything).
		Return(book.Book{}, book.ErrStorageUnavailable).Once()

	res, err := s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, book.ErrStorageUnavailable)
	assert.Zero(t, res.Added)
	catalog.AssertNumberOfCalls(t, "AddBookToCatalog", 1)
}

func TestSeeder_ResetOnlyOnFirstRun(t *testing.T) {
	catalog := &mockCatalog{}
	resetter := &mockResetter{}
	cfg := fakerConfig(1)
	cfg.Reset = true
	s := New(catalog, resetter, cfg)

	resetter.On("DeleteAll", mock.Anything).Return(nil).Once()
	catalog.On("AddBookToCatalog", mock.Anything, mock.Anything).Return(book.Book{ID: 1}, nil)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.NoError(t, err)

	resetter.AssertNumberOfCalls(t, "DeleteAll", 1)
}

func TestSeeder_ResetFailure(t *testing.T) {
	resetter := &mockResetter{}
	cfg := fakerConfig(1)
	cfg.Reset = true
	s := New(&mockCatalog{}, resetter, cfg)

	resetter.On("DeleteAll", mock.Anything).Return(errors.New("boom"))

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reset catalog")
}

func TestSeeder_StartOnceAndStop(t *testing.T) {
	catalog := &mockCatalog{}
	s := New(catalog, &mockResetter{}, fakerConfig(2))
	calls := make(chan struct{}, 2)
	catalog.On("AddBookToCatalog", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { calls <- struct{}{} }).
		Return(book.Book{ID: 1}, nil)

	s.Start(context.Background())
	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("seeder did not run")
		}
	}
	s.Stop()

	catalog.AssertNumberOfCalls(t, "AddBookToCatalog", 2)
}

func TestSeeder_StartPeriodic(t *testing.T) {
	catalog := &mockCatalog{}
	cfg := fakerConfig(1)
	cfg.Frequency = 10 * time.Millisecond
	s := New(catalog, &mockResetter{}, cfg)

	calls := make(chan struct{}, 16)
	catalog.On("AddBookToCatalog", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case calls <- struct{}{}:
			default:
			}
		}).
		Return(book.Book{ID: 1}, nil)

	s.Start(context.Background())
	for i := 0; i < 3; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("seeder did not run periodically")
		}
	}
	s.Stop()
	s.Stop()
}

func TestSeeder_StopWithoutStart(t *testing.T) {
	s := New(&mockCatalog{}, &mockResetter{}, fakerConfig(1))
	s.Stop()
}
