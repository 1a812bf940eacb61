// Package catalog implements the catalog operations shared by the HTTP API
// and the CLI: search, add, update, delete and their companions. The
// service holds no state between calls; the store is injected.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/moviedex/internal/logger"
	"github.com/mesh-intelligence/moviedex/internal/metrics"
	"github.com/mesh-intelligence/moviedex/pkg/types"
)

// Service orchestrates catalog operations over a Store.
type Service struct {
	store     types.Store
	validator *Validator
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards every record.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics records operation outcomes and store latency on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a service over store.
func New(store types.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		validator: NewValidator(),
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns the wire form of every item matching filter, in store
// order. The result is empty, not nil, when nothing matches.
func (s *Service) Search(ctx context.Context, filter types.Filter) (_ []types.Wire, err error) {
	defer s.observe(ctx, "search", &err)

	start := time.Now()
	items, err := s.store.Fetch(ctx, filter)
	s.observeStore("fetch", start)
	if err != nil {
		return nil, storeError("search items", err)
	}

	out := make([]types.Wire, 0, len(items))
	for _, it := range items {
		out = append(out, it.ToWire())
	}
	return out, nil
}

// Get returns the wire form of one item.
func (s *Service) Get(ctx context.Context, id int64) (_ types.Wire, err error) {
	defer s.observe(ctx, "get", &err)

	start := time.Now()
	item, err := s.store.Get(ctx, id)
	s.observeStore("get", start)
	if err != nil {
		return types.Wire{}, storeError("get item", err)
	}
	return item.ToWire(), nil
}

// Add validates req, builds an item of the given kind and persists it.
// kind falls back to req.Kind, then to "movie". Returns the new ID.
func (s *Service) Add(ctx context.Context, kind string, req AddRequest) (_ int64, err error) {
	defer s.observe(ctx, "add", &err)

	if kind == "" {
		kind = req.Kind
	}
	if kind == "" {
		kind = string(types.KindMovie)
	}
	if req.Genres == nil {
		req.Genres = req.Genre
	}
	if err := s.validator.Validate(req); err != nil {
		return 0, err
	}

	k, err := types.ParseKind(kind)
	if err != nil {
		return 0, err
	}

	item, err := types.NewItem(k, req.common(), req.extras(k))
	if err != nil {
		return 0, err
	}
	if err := item.SetGenres(req.Genres); err != nil {
		return 0, err
	}

	start := time.Now()
	id, err := s.store.Insert(ctx, item)
	s.observeStore("insert", start)
	if err != nil {
		return 0, storeError("add item", err)
	}

	s.logger.InfoContext(ctx, "item added",
		slog.Int64("id", id),
		slog.String("kind", string(k)),
		slog.String("title", item.Title),
	)
	return id, nil
}

// Update applies patch to the item with the given ID in one transaction
// and returns the updated wire form. Kind and ID never change.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) (_ types.Wire, err error) {
	defer s.observe(ctx, "update", &err)

	start := time.Now()
	item, err := s.store.Update(ctx, id, patch.apply)
	s.observeStore("update", start)
	if err != nil {
		return types.Wire{}, storeError("update item", err)
	}

	s.logger.InfoContext(ctx, "item updated", slog.Int64("id", id))
	return item.ToWire(), nil
}

// AddGenre adds one genre to the item's set.
func (s *Service) AddGenre(ctx context.Context, id int64, genre string) (_ types.Wire, err error) {
	defer s.observe(ctx, "add_genre", &err)

	start := time.Now()
	item, err := s.store.Update(ctx, id, func(it *types.Item) error {
		return it.AddGenre(genre)
	})
	s.observeStore("update", start)
	if err != nil {
		return types.Wire{}, storeError("add genre", err)
	}

	s.logger.InfoContext(ctx, "genre added", slog.Int64("id", id), slog.String("genre", genre))
	return item.ToWire(), nil
}

// Delete removes the item with the given ID.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer s.observe(ctx, "delete", &err)

	start := time.Now()
	err = s.store.Delete(ctx, id)
	s.observeStore("delete", start)
	if err != nil {
		return storeError("delete item", err)
	}

	s.logger.InfoContext(ctx, "item deleted", slog.Int64("id", id))
	return nil
}

// Clear removes every item and returns how many were removed.
func (s *Service) Clear(ctx context.Context) (_ int64, err error) {
	defer s.observe(ctx, "clear", &err)

	start := time.Now()
	n, err := s.store.Clear(ctx)
	s.observeStore("clear", start)
	if err != nil {
		return 0, storeError("clear items", err)
	}

	s.logger.InfoContext(ctx, "catalog cleared", slog.Int64("removed", n))
	return n, nil
}

// YearCounts returns the number of items per release year, ascending.
func (s *Service) YearCounts(ctx context.Context) (_ []types.YearCount, err error) {
	defer s.observe(ctx, "year_counts", &err)

	start := time.Now()
	counts, err := s.store.CountByYear(ctx)
	s.observeStore("count_by_year", start)
	if err != nil {
		return nil, storeError("count items by year", err)
	}
	return counts, nil
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return storeError("ping store", err)
	}
	return nil
}

// storeError passes validation and not-found errors through and wraps
// everything else in a PersistenceError.
func storeError(op string, err error) error {
	if errors.Is(err, types.ErrValidation) || errors.Is(err, types.ErrNotFound) {
		return err
	}
	return &types.PersistenceError{Op: op, Err: err}
}

// ErrorKind names the error class of err for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, types.ErrValidation):
		return "validation"
	case errors.Is(err, types.ErrNotFound):
		return "not_found"
	case errors.Is(err, types.ErrPersistence):
		return "persistence"
	default:
		return "internal"
	}
}

func (s *Service) observe(ctx context.Context, op string, errp *error) {
	err := *errp
	kind := ErrorKind(err)

	switch kind {
	case "":
	case "validation", "not_found":
		s.logger.DebugContext(ctx, "catalog request rejected",
			slog.String("operation", op),
			slog.String("error_kind", kind),
			slog.String("error", err.Error()),
		)
	default:
		s.logger.ErrorContext(ctx, "catalog operation failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
	}

	if s.metrics == nil {
		return
	}
	if kind == "" {
		s.metrics.Operations.WithLabelValues(op, "ok").Inc()
		return
	}
	s.metrics.Operations.WithLabelValues(op, "error").Inc()
	s.metrics.OperationFails.WithLabelValues(op, kind).Inc()
}

func (s *Service) observeStore(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStore(op, start)
	}
}
