package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/domain/catalogs/location"
	"crewtransit/internal/domain/catalogs/ratecode"
	"crewtransit/internal/domain/catalogs/routeprice"
)

// memStore is a concurrency-safe fake shared by the three store fakes.
// The workers inside a batch run in parallel, so the mutex is load-bearing.
type memStore[T interface {
	Normalize()
	Validate(ctx context.Context) error
}] struct {
	mu    sync.Mutex
	items map[string]T
	code  func(T) string
}

func (m *memStore[T]) get(code string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if item, ok := m.items[code]; ok {
		return item, nil
	}
	return zero, apperror.NewNotFound("entry", code)
}

func (m *memStore[T]) put(ctx context.Context, item T) error {
	item.Normalize()
	if err := item.Validate(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[m.code(item)] = item
	return nil
}

type fakeLocations struct{ memStore[*location.Location] }

func (f *fakeLocations) GetByCode(_ context.Context, code string) (*location.Location, error) {
	return f.get(code)
}
func (f *fakeLocations) Create(ctx context.Context, loc *location.Location) error {
	return f.put(ctx, loc)
}
func (f *fakeLocations) Update(ctx context.Context, loc *location.Location) error {
	return f.put(ctx, loc)
}

type fakeRoutes struct{ memStore[*routeprice.RoutePrice] }

func (f *fakeRoutes) GetByCode(_ context.Context, code string) (*routeprice.RoutePrice, error) {
	return f.get(code)
}
func (f *fakeRoutes) Create(ctx context.Context, rp *routeprice.RoutePrice) error {
	return f.put(ctx, rp)
}
func (f *fakeRoutes) Update(ctx context.Context, rp *routeprice.RoutePrice) error {
	return f.put(ctx, rp)
}

type fakeRateCodes struct{ memStore[*ratecode.RateCode] }

func (f *fakeRateCodes) GetByCode(_ context.Context, code string) (*ratecode.RateCode, error) {
	return f.get(code)
}
func (f *fakeRateCodes) Create(ctx context.Context, rc *ratecode.RateCode) error {
	return f.put(ctx, rc)
}
func (f *fakeRateCodes) Update(ctx context.Context, rc *ratecode.RateCode) error {
	return f.put(ctx, rc)
}

type fixture struct {
	svc       *Service
	locations *fakeLocations
	routes    *fakeRoutes
	rateCodes *fakeRateCodes
}

func newFixture() *fixture {
	locations := &fakeLocations{memStore[*location.Location]{
		items: make(map[string]*location.Location),
		code:  func(l *location.Location) string { return l.Code },
	}}
	routes := &fakeRoutes{memStore[*routeprice.RoutePrice]{
		items: make(map[string]*routeprice.RoutePrice),
		code:  func(r *routeprice.RoutePrice) string { return r.Code },
	}}
	rateCodes := &fakeRateCodes{memStore[*ratecode.RateCode]{
		items: make(map[string]*ratecode.RateCode),
		code:  func(r *ratecode.RateCode) string { return r.Code },
	}}
	return &fixture{
		svc:       NewService(locations, routes, rateCodes),
		locations: locations,
		routes:    routes,
		rateCodes: rateCodes,
	}
}

func attrs(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestRun_MixedKinds(t *testing.T) {
	f := newFixture()

	records := []Record{
		{
			Kind: KindLocation,
			Key:  "HOTEL-PTY",
			Attributes: attrs(t, map[string]any{
				"name": "Hotel Panama City", "class": "hotel", "city": "Panama City",
			}),
		},
		{
			Kind: KindRoutePrice,
			Key:  "HOTEL-PTY>PORT-BALBOA",
			Attributes: attrs(t, map[string]any{
				"origin": "HOTEL-PTY", "destination": "PORT-BALBOA",
				"basePrice": 120, "perExtraPassenger": 15, "perWaitingHour": 25,
				"currency": "USD",
			}),
		},
		{
			Kind: KindRateCode,
			Key:  "TRNSP-INC",
			Attributes: attrs(t, map[string]any{
				"name": "Transport income", "kind": "income", "costCenter": "CC-4710",
			}),
		},
	}

	report := f.svc.Run(context.Background(), records)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Accepted)
	assert.Equal(t, 0, report.Rejected)
	assert.Empty(t, report.Errors)

	loc, err := f.locations.GetByCode(context.Background(), "HOTEL-PTY")
	require.NoError(t, err)
	assert.Equal(t, location.ClassHotel, loc.Class)

	rp, err := f.routes.GetByCode(context.Background(), "HOTEL-PTY>PORT-BALBOA")
	require.NoError(t, err)
	assert.Equal(t, "120", rp.BasePrice.String())
}

func TestRun_PartialSuccess(t *testing.T) {
	f := newFixture()

	records := []Record{
		{
			Kind:       KindLocation,
			Key:        "HOTEL-PTY",
			Attributes: attrs(t, map[string]any{"name": "Hotel Panama City", "class": "hotel"}),
		},
		{
			Kind:       KindLocation,
			Key:        "BAD-CLASS",
			Attributes: attrs(t, map[string]any{"name": "Nowhere", "class": "castle"}),
		},
		{
			Kind:       Kind("vessel"),
			Key:        "EVER-GIVEN",
			Attributes: attrs(t, map[string]any{}),
		},
	}

	report := f.svc.Run(context.Background(), records)

	assert.Equal(t, 1, report.Accepted)
	assert.Equal(t, 2, report.Rejected)
	assert.Len(t, report.Errors, 2)

	// The good record landed despite its neighbors failing.
	_, err := f.locations.GetByCode(context.Background(), "HOTEL-PTY")
	require.NoError(t, err)
}

func TestRun_UpsertUpdatesExisting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first := []Record{{
		Kind:       KindLocation,
		Key:        "HOTEL-PTY",
		Attributes: attrs(t, map[string]any{"name": "Hotel Panama City", "class": "hotel"}),
	}}
	report := f.svc.Run(ctx, first)
	require.Equal(t, 1, report.Accepted)

	second := []Record{{
		Kind:       KindLocation,
		Key:        "HOTEL-PTY",
		Attributes: attrs(t, map[string]any{"name": "Hotel Panama City Downtown", "class": "hotel"}),
	}}
	report = f.svc.Run(ctx, second)
	require.Equal(t, 1, report.Accepted)

	loc, err := f.locations.GetByCode(ctx, "HOTEL-PTY")
	require.NoError(t, err)
	assert.Equal(t, "Hotel Panama City Downtown", loc.Name)
	assert.Len(t, f.locations.items, 1)
}

func TestRun_ErrorListCapped(t *testing.T) {
	f := newFixture()

	records := make([]Record, 0, MaxReportedErrors+20)
	for i := 0; i < MaxReportedErrors+20; i++ {
		records = append(records, Record{
			Kind:       Kind("vessel"),
			Key:        fmt.Sprintf("BAD-%03d", i),
			Attributes: attrs(t, map[string]any{}),
		})
	}

	report := f.svc.Run(context.Background(), records)

	assert.Equal(t, MaxReportedErrors+20, report.Rejected)
	assert.Len(t, report.Errors, MaxReportedErrors)
	assert.True(t, report.Truncated)
}

func TestRun_LargeBatchAllAccepted(t *testing.T) {
	f := newFixture()

	records := make([]Record, 0, BatchSize*2+7)
	for i := 0; i < BatchSize*2+7; i++ {
		records = append(records, Record{
			Kind: KindLocation,
			Key:  fmt.Sprintf("LOC-%04d", i),
			Attributes: attrs(t, map[string]any{
				"name": fmt.Sprintf("Location %d", i), "class": "other",
			}),
		})
	}

	report := f.svc.Run(context.Background(), records)

	assert.Equal(t, BatchSize*2+7, report.Accepted)
	assert.Equal(t, 0, report.Rejected)
	assert.Len(t, f.locations.items, BatchSize*2+7)
}

func TestRun_MissingKeyRejected(t *testing.T) {
	f := newFixture()

	report := f.svc.Run(context.Background(), []Record{{
		Kind:       KindLocation,
		Attributes: attrs(t, map[string]any{"name": "No key", "class": "hotel"}),
	}})

	assert.Equal(t, 1, report.Rejected)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Reason, "key is required")
}
