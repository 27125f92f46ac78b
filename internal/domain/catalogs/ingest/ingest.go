// Package ingest provides bulk catalog ingestion: lists of tagged records
// are validated per kind at this boundary, upserted with partial-success
// semantics, and reported item by item.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/types"
	"crewtransit/internal/domain/catalogs/location"
	"crewtransit/internal/domain/catalogs/ratecode"
	"crewtransit/internal/domain/catalogs/routeprice"
	"crewtransit/pkg/logger"
)

// Kind tags a record with its catalog.
type Kind string

const (
	KindLocation   Kind = "location"
	KindRoutePrice Kind = "route_price"
	KindRateCode   Kind = "rate_code"
)

const (
	// BatchSize is the number of records processed per batch.
	BatchSize = 100

	// Workers bounds the parallelism inside a batch. Each item touches only
	// its own key, so items never contend with each other.
	Workers = 4

	// MaxReportedErrors caps the itemized error list in the report.
	MaxReportedErrors = 50
)

// Record is one ingestion item. Attributes are decoded into the typed
// payload of the record's kind; unknown kinds are rejected.
type Record struct {
	Kind       Kind            `json:"kind"`
	Key        string          `json:"key"`
	Attributes json.RawMessage `json:"attributes"`
}

// ItemError describes one rejected record.
type ItemError struct {
	Index  int    `json:"index"`
	Kind   Kind   `json:"kind"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// Report summarizes an ingestion run. Errors holds at most
// MaxReportedErrors entries; Truncated marks that more were dropped.
type Report struct {
	Total     int         `json:"total"`
	Accepted  int         `json:"accepted"`
	Rejected  int         `json:"rejected"`
	Errors    []ItemError `json:"errors,omitempty"`
	Truncated bool        `json:"truncated,omitempty"`
}

// LocationStore is the location catalog surface ingestion needs.
type LocationStore interface {
	GetByCode(ctx context.Context, code string) (*location.Location, error)
	Create(ctx context.Context, loc *location.Location) error
	Update(ctx context.Context, loc *location.Location) error
}

// RoutePriceStore is the route price catalog surface ingestion needs.
type RoutePriceStore interface {
	GetByCode(ctx context.Context, code string) (*routeprice.RoutePrice, error)
	Create(ctx context.Context, rp *routeprice.RoutePrice) error
	Update(ctx context.Context, rp *routeprice.RoutePrice) error
}

// RateCodeStore is the rate code catalog surface ingestion needs.
type RateCodeStore interface {
	GetByCode(ctx context.Context, code string) (*ratecode.RateCode, error)
	Create(ctx context.Context, rc *ratecode.RateCode) error
	Update(ctx context.Context, rc *ratecode.RateCode) error
}

// Service runs bulk catalog ingestion.
type Service struct {
	locations LocationStore
	routes    RoutePriceStore
	rateCodes RateCodeStore
}

// NewService creates an ingestion service.
func NewService(locations LocationStore, routes RoutePriceStore, rateCodes RateCodeStore) *Service {
	return &Service{
		locations: locations,
		routes:    routes,
		rateCodes: rateCodes,
	}
}

// Run ingests the records in fixed-size batches with bounded parallelism.
// Item failures are independent: one bad record never aborts the run.
func (s *Service) Run(ctx context.Context, records []Record) *Report {
	report := &Report{Total: len(records)}

	var mu sync.Mutex
	reject := func(idx int, rec Record, reason string) {
		mu.Lock()
		defer mu.Unlock()
		report.Rejected++
		if len(report.Errors) < MaxReportedErrors {
			report.Errors = append(report.Errors, ItemError{
				Index:  idx,
				Kind:   rec.Kind,
				Key:    rec.Key,
				Reason: reason,
			})
		} else {
			report.Truncated = true
		}
	}
	accept := func() {
		mu.Lock()
		defer mu.Unlock()
		report.Accepted++
	}

	for start := 0; start < len(records); start += BatchSize {
		end := start + BatchSize
		if end > len(records) {
			end = len(records)
		}

		type job struct {
			idx int
			rec Record
		}
		jobs := make(chan job)
		var wg sync.WaitGroup

		for w := 0; w < Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range jobs {
					if err := s.upsert(ctx, j.rec); err != nil {
						reject(j.idx, j.rec, errReason(err))
					} else {
						accept()
					}
				}
			}()
		}

		for i := start; i < end; i++ {
			jobs <- job{idx: i, rec: records[i]}
		}
		close(jobs)
		wg.Wait()
	}

	logger.Info(ctx, "catalog ingestion finished",
		"total", report.Total,
		"accepted", report.Accepted,
		"rejected", report.Rejected)

	return report
}

func (s *Service) upsert(ctx context.Context, rec Record) error {
	if rec.Key == "" {
		return apperror.NewValidation("key is required")
	}

	switch rec.Kind {
	case KindLocation:
		return s.upsertLocation(ctx, rec)
	case KindRoutePrice:
		return s.upsertRoutePrice(ctx, rec)
	case KindRateCode:
		return s.upsertRateCode(ctx, rec)
	default:
		return apperror.NewValidation("unknown kind").
			WithDetail("kind", string(rec.Kind))
	}
}

// --- typed payloads, one per kind, validated at this boundary ---

type locationPayload struct {
	Name    string `json:"name"`
	Class   string `json:"class"`
	City    string `json:"city"`
	Address string `json:"address"`
}

func (s *Service) upsertLocation(ctx context.Context, rec Record) error {
	var p locationPayload
	if err := decode(rec.Attributes, &p); err != nil {
		return err
	}

	existing, err := s.locations.GetByCode(ctx, rec.Key)
	if err != nil && !apperror.IsNotFound(err) {
		return err
	}

	if existing != nil {
		existing.Name = p.Name
		existing.Class = location.Class(p.Class)
		existing.City = p.City
		existing.Address = p.Address
		return s.locations.Update(ctx, existing)
	}

	loc := location.New(rec.Key, p.Name, location.Class(p.Class))
	loc.City = p.City
	loc.Address = p.Address
	return s.locations.Create(ctx, loc)
}

type routePricePayload struct {
	Origin            string      `json:"origin"`
	Destination       string      `json:"destination"`
	BasePrice         types.Money `json:"basePrice"`
	PerExtraPassenger types.Money `json:"perExtraPassenger"`
	PerWaitingHour    types.Money `json:"perWaitingHour"`
	Currency          string      `json:"currency"`
}

func (s *Service) upsertRoutePrice(ctx context.Context, rec Record) error {
	var p routePricePayload
	if err := decode(rec.Attributes, &p); err != nil {
		return err
	}

	existing, err := s.routes.GetByCode(ctx, routeprice.RouteCode(p.Origin, p.Destination))
	if err != nil && !apperror.IsNotFound(err) {
		return err
	}

	if existing != nil {
		existing.BasePrice = p.BasePrice
		existing.PerExtraPassenger = p.PerExtraPassenger
		existing.PerWaitingHour = p.PerWaitingHour
		existing.Currency = p.Currency
		return s.routes.Update(ctx, existing)
	}

	rp := routeprice.New(p.Origin, p.Destination, p.BasePrice, p.Currency)
	rp.PerExtraPassenger = p.PerExtraPassenger
	rp.PerWaitingHour = p.PerWaitingHour
	return s.routes.Create(ctx, rp)
}

type rateCodePayload struct {
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	CostCenter   string `json:"costCenter"`
	ProfitCenter string `json:"profitCenter"`
}

func (s *Service) upsertRateCode(ctx context.Context, rec Record) error {
	var p rateCodePayload
	if err := decode(rec.Attributes, &p); err != nil {
		return err
	}

	existing, err := s.rateCodes.GetByCode(ctx, rec.Key)
	if err != nil && !apperror.IsNotFound(err) {
		return err
	}

	if existing != nil {
		existing.Name = p.Name
		existing.Kind = ratecode.Kind(p.Kind)
		existing.CostCenter = p.CostCenter
		existing.ProfitCenter = p.ProfitCenter
		return s.rateCodes.Update(ctx, existing)
	}

	rc := ratecode.New(rec.Key, p.Name, ratecode.Kind(p.Kind), p.CostCenter)
	rc.ProfitCenter = p.ProfitCenter
	return s.rateCodes.Create(ctx, rc)
}

func decode(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return apperror.NewValidation("attributes are required")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperror.NewValidation("malformed attributes").
			WithDetail("cause", err.Error())
	}
	return nil
}

func errReason(err error) string {
	if appErr, ok := apperror.AsAppError(err); ok {
		if len(appErr.Details) > 0 {
			return fmt.Sprintf("%s: %v", appErr.Message, appErr.Details)
		}
		return appErr.Message
	}
	return err.Error()
}
