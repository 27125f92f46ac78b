package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/id"
	"crewtransit/internal/core/types"
	"crewtransit/internal/domain"
	"crewtransit/internal/domain/catalogs/client"
	"crewtransit/internal/domain/documents/servicerecord"
	"crewtransit/internal/domain/export"
	"crewtransit/internal/domain/pricing"
	"crewtransit/pkg/numerator"
)

// --- test doubles ---

type memInvoiceRepo struct {
	invoices    map[id.ID]*Invoice
	adjustments map[id.ID][]AdjustmentLine
}

func newMemInvoiceRepo() *memInvoiceRepo {
	return &memInvoiceRepo{
		invoices:    make(map[id.ID]*Invoice),
		adjustments: make(map[id.ID][]AdjustmentLine),
	}
}

func (m *memInvoiceRepo) Create(_ context.Context, inv *Invoice) error {
	for _, existing := range m.invoices {
		if existing.Number == inv.Number {
			return apperror.NewDuplicate("invoice", "number", inv.Number)
		}
	}
	cp := *inv
	m.invoices[inv.ID] = &cp
	return nil
}

func (m *memInvoiceRepo) GetByID(_ context.Context, invID id.ID) (*Invoice, error) {
	inv, ok := m.invoices[invID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invID)
	}
	cp := *inv
	return &cp, nil
}

func (m *memInvoiceRepo) GetByNumber(_ context.Context, number string) (*Invoice, error) {
	for _, inv := range m.invoices {
		if inv.Number == number {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("invoice", number)
}

func (m *memInvoiceRepo) Update(_ context.Context, inv *Invoice) error {
	if _, ok := m.invoices[inv.ID]; !ok {
		return apperror.NewNotFound("invoice", inv.ID)
	}
	cp := *inv
	m.invoices[inv.ID] = &cp
	return nil
}

func (m *memInvoiceRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Invoice], error) {
	out := domain.ListResult[*Invoice]{}
	for _, inv := range m.invoices {
		cp := *inv
		out.Items = append(out.Items, &cp)
	}
	out.TotalCount = int64(len(out.Items))
	return out, nil
}

func (m *memInvoiceRepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	for _, inv := range m.invoices {
		if inv.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (m *memInvoiceRepo) MarkFinalized(_ context.Context, invID id.ID, protocolID string, at time.Time) (bool, error) {
	inv, ok := m.invoices[invID]
	if !ok || inv.Status != StatusDraft {
		return false, nil
	}
	inv.Status = StatusFinalized
	inv.ExportProtocolID = protocolID
	t := at
	inv.FinalizedAt = &t
	return true, nil
}

func (m *memInvoiceRepo) Delete(_ context.Context, invID id.ID) error {
	delete(m.invoices, invID)
	delete(m.adjustments, invID)
	return nil
}

func (m *memInvoiceRepo) GetAdjustments(_ context.Context, invID id.ID) ([]AdjustmentLine, error) {
	return m.adjustments[invID], nil
}

func (m *memInvoiceRepo) SaveAdjustments(_ context.Context, invID id.ID, lines []AdjustmentLine) error {
	m.adjustments[invID] = lines
	return nil
}

type memServiceRepo struct {
	records map[id.ID]*servicerecord.ServiceRecord
}

func newMemServiceRepo() *memServiceRepo {
	return &memServiceRepo{records: make(map[id.ID]*servicerecord.ServiceRecord)}
}

func (m *memServiceRepo) add(clientCode, price string) id.ID {
	rec := servicerecord.New(clientCode, "HOTEL-PTY", "PORT-BALBOA", pricing.CategoryStandard,
		time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC))
	rec.Number = "SRV-2026-" + rec.ID.String()[:8]
	rec.Status = servicerecord.StatusCompleted
	rec.Price = types.MustMoney(price)
	rec.Currency = "USD"
	m.records[rec.ID] = rec
	return rec.ID
}

func (m *memServiceRepo) Create(_ context.Context, rec *servicerecord.ServiceRecord) error {
	m.records[rec.ID] = rec
	return nil
}

func (m *memServiceRepo) GetByID(_ context.Context, recID id.ID) (*servicerecord.ServiceRecord, error) {
	rec, ok := m.records[recID]
	if !ok {
		return nil, apperror.NewNotFound("service record", recID)
	}
	cp := *rec
	return &cp, nil
}

func (m *memServiceRepo) GetByNumber(_ context.Context, number string) (*servicerecord.ServiceRecord, error) {
	for _, rec := range m.records {
		if rec.Number == number {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("service record", number)
}

func (m *memServiceRepo) Update(_ context.Context, rec *servicerecord.ServiceRecord) error {
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memServiceRepo) List(_ context.Context, filter servicerecord.ListFilter) (domain.ListResult[*servicerecord.ServiceRecord], error) {
	out := domain.ListResult[*servicerecord.ServiceRecord]{}
	for _, rec := range m.records {
		if filter.InvoiceID != nil && (rec.InvoiceID == nil || *rec.InvoiceID != *filter.InvoiceID) {
			continue
		}
		cp := *rec
		out.Items = append(out.Items, &cp)
	}
	out.TotalCount = int64(len(out.Items))
	return out, nil
}

func (m *memServiceRepo) UpdateStatus(_ context.Context, recID id.ID, from, to servicerecord.Status) (bool, error) {
	rec, ok := m.records[recID]
	if !ok || rec.Status != from {
		return false, nil
	}
	rec.Status = to
	return true, nil
}

func (m *memServiceRepo) LinkToInvoice(_ context.Context, recID, invoiceID id.ID, version int) (servicerecord.LinkResult, error) {
	rec, ok := m.records[recID]
	if !ok {
		return servicerecord.NotFound, nil
	}
	if rec.InvoiceID != nil {
		return servicerecord.AlreadyLinked, nil
	}
	if rec.Status != servicerecord.StatusCompleted {
		return servicerecord.NotEligible, nil
	}
	if rec.Version != version {
		return servicerecord.StaleVersion, nil
	}
	inv := invoiceID
	rec.Status = servicerecord.StatusPrefactured
	rec.InvoiceID = &inv
	rec.Version++
	return servicerecord.Linked, nil
}

func (m *memServiceRepo) MarkInvoiced(_ context.Context, invoiceID id.ID) (int, error) {
	n := 0
	for _, rec := range m.records {
		if rec.InvoiceID != nil && *rec.InvoiceID == invoiceID && rec.Status == servicerecord.StatusPrefactured {
			rec.Status = servicerecord.StatusInvoiced
			n++
		}
	}
	return n, nil
}

func (m *memServiceRepo) ReleaseFromInvoice(_ context.Context, invoiceID id.ID) (int, error) {
	n := 0
	for _, rec := range m.records {
		if rec.InvoiceID != nil && *rec.InvoiceID == invoiceID && rec.Status == servicerecord.StatusPrefactured {
			rec.Status = servicerecord.StatusCompleted
			rec.InvoiceID = nil
			n++
		}
	}
	return n, nil
}

func (m *memServiceRepo) CountByInvoice(_ context.Context, invoiceID id.ID, status servicerecord.Status) (int, error) {
	n := 0
	for _, rec := range m.records {
		if rec.InvoiceID != nil && *rec.InvoiceID == invoiceID && rec.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memServiceRepo) GetAttachments(_ context.Context, _ id.ID) ([]servicerecord.Attachment, error) {
	return nil, nil
}

func (m *memServiceRepo) SaveAttachments(_ context.Context, _ id.ID, _ []servicerecord.Attachment) error {
	return nil
}

type fakeClients struct {
	clients map[string]*client.Client
}

func (f *fakeClients) GetByCode(_ context.Context, code string) (*client.Client, error) {
	if c, ok := f.clients[code]; ok {
		return c, nil
	}
	return nil, apperror.NewNotFound("client", code)
}

func (f *fakeClients) RequireExportable(ctx context.Context, code string) (*client.Client, error) {
	c, err := f.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !c.Exportable() {
		return nil, apperror.NewClientMissingExportID(c.Code)
	}
	return c, nil
}

type fakeRateCodes struct{}

func (fakeRateCodes) CostCenterFor(_ context.Context, code string) (string, string, error) {
	return "CC-4710", "PC-100", nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc      *Service
	invoices *memInvoiceRepo
	services *memServiceRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	invoices := newMemInvoiceRepo()
	services := newMemServiceRepo()
	maersk := client.New("MAERSK", "Maersk Line", "USD")
	maersk.ExportID = "0001002345"
	noExport := client.New("NOEXPORT", "No Export Yet", "USD")

	clients := &fakeClients{clients: map[string]*client.Client{
		maersk.Code:   maersk,
		noExport.Code: noExport,
	}}

	svc := NewService(
		invoices,
		services,
		clients,
		fakeRateCodes{},
		export.NewValidator(nil),
		&numerator.MockGenerator{},
		fakeTxManager{},
		Config{CompanyCode: "CT01", ServiceRateCode: "TRNSP-INC"},
	)

	return &fixture{svc: svc, invoices: invoices, services: services}
}

func completedServices(f *fixture) []id.ID {
	return []id.ID{
		f.services.add("MAERSK", "120"),
		f.services.add("MAERSK", "85"),
		f.services.add("MAERSK", "200"),
	}
}

// --- tests ---

func TestCreate_TotalsAndStatusFlip(t *testing.T) {
	f := newFixture(t)
	ids := completedServices(f)

	inv, err := f.svc.Create(context.Background(), CreateInput{
		ClientCode: "MAERSK",
		Number:     "inv-001",
		ServiceIDs: ids,
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-001", inv.Number)
	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, "405", inv.TotalAmount.String())
	assert.Equal(t, "USD", inv.Currency)

	for _, recID := range ids {
		rec := f.services.records[recID]
		assert.Equal(t, servicerecord.StatusPrefactured, rec.Status)
		require.NotNil(t, rec.InvoiceID)
		assert.Equal(t, inv.ID, *rec.InvoiceID)
	}
}

func TestCreate_WithAdjustments(t *testing.T) {
	f := newFixture(t)
	ids := completedServices(f)

	inv, err := f.svc.Create(context.Background(), CreateInput{
		ClientCode: "MAERSK",
		Number:     "INV-002",
		ServiceIDs: ids,
		Adjustments: []AdjustmentLine{
			{Description: "Port access fee", RateCode: "PORT-FEE", Amount: types.MustMoney("25")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "405", inv.ServicesTotal.String())
	assert.Equal(t, "25", inv.AdjustmentsTotal.String())
	assert.Equal(t, "430", inv.TotalAmount.String())
}

func TestCreate_SecondAggregationRejected(t *testing.T) {
	f := newFixture(t)
	ids := completedServices(f)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{ClientCode: "MAERSK", Number: "INV-001", ServiceIDs: ids})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, CreateInput{ClientCode: "MAERSK", Number: "INV-002", ServiceIDs: ids[:1]})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeAlreadyLinked))

	// Nothing was half-created.
	_, err = f.invoices.GetByNumber(ctx, "INV-002")
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_DuplicateNumber(t *testing.T) {
	f := newFixture(t)
	ids := completedServices(f)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{ClientCode: "MAERSK", Number: "INV-001", ServiceIDs: ids[:1]})
	require.NoError(t, err)

	// Case-insensitive: inv-001 normalizes to the taken number.
	_, err = f.svc.Create(ctx, CreateInput{ClientCode: "MAERSK", Number: "inv-001", ServiceIDs: ids[1:]})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicateInvoiceNumber))
}

func TestCreate_ServiceNotEligible(t *testing.T) {
	f := newFixture(t)
	recID := f.services.add("MAERSK", "120")
	f.services.records[recID].Status = servicerecord.StatusInProgress

	_, err := f.svc.Create(context.Background(), CreateInput{
		ClientCode: "MAERSK",
		Number:     "INV-001",
		ServiceIDs: []id.ID{recID},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeServiceNotEligible))
}

func TestCreate_ClientMismatch(t *testing.T) {
	f := newFixture(t)
	maersk := f.services.add("MAERSK", "120")
	other := f.services.add("MSC", "85")

	_, err := f.svc.Create(context.Background(), CreateInput{
		ClientCode: "MAERSK",
		Number:     "INV-001",
		ServiceIDs: []id.ID{maersk, other},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeClientMismatch))
}

func TestCreate_CurrencyMismatch(t *testing.T) {
	f := newFixture(t)
	usd := f.services.add("MAERSK", "120")
	eur := f.services.add("MAERSK", "85")
	f.services.records[eur].Currency = "EUR"

	_, err := f.svc.Create(context.Background(), CreateInput{
		ClientCode: "MAERSK",
		Number:     "INV-001",
		ServiceIDs: []id.ID{usd, eur},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCurrencyMismatch))

	// Nothing was created and nothing was linked.
	_, err = f.invoices.GetByNumber(context.Background(), "INV-001")
	assert.True(t, apperror.IsNotFound(err))
	assert.Nil(t, f.services.records[usd].InvoiceID)
}

// editBetweenReadAndLink reprices the stored record right after the
// eligibility read returns, the way a concurrent dispatcher edit would.
type editBetweenReadAndLink struct {
	*memServiceRepo
}

func (e *editBetweenReadAndLink) GetByID(ctx context.Context, recID id.ID) (*servicerecord.ServiceRecord, error) {
	rec, err := e.memServiceRepo.GetByID(ctx, recID)
	if err != nil {
		return nil, err
	}
	stored := e.records[recID]
	stored.Price = types.MustMoney("999")
	stored.Version++
	return rec, nil
}

func TestCreate_ConcurrentEditRejected(t *testing.T) {
	services := newMemServiceRepo()
	recID := services.add("MAERSK", "120")

	invoices := newMemInvoiceRepo()
	maersk := client.New("MAERSK", "Maersk Line", "USD")
	maersk.ExportID = "0001002345"
	clients := &fakeClients{clients: map[string]*client.Client{maersk.Code: maersk}}

	svc := NewService(
		invoices,
		&editBetweenReadAndLink{services},
		clients,
		fakeRateCodes{},
		export.NewValidator(nil),
		&numerator.MockGenerator{},
		fakeTxManager{},
		Config{CompanyCode: "CT01", ServiceRateCode: "TRNSP-INC"},
	)

	_, err := svc.Create(context.Background(), CreateInput{
		ClientCode: "MAERSK",
		Number:     "INV-001",
		ServiceIDs: []id.ID{recID},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConcurrentModification))

	// The record stayed unlinked; the stale price never reached an invoice.
	assert.Nil(t, services.records[recID].InvoiceID)
	assert.Equal(t, servicerecord.StatusCompleted, services.records[recID].Status)
}

type recordingTxManager struct {
	active bool
}

func (m *recordingTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.active = true
	defer func() { m.active = false }()
	return fn(ctx)
}

func TestCreate_GeneratedNumberRidesTransaction(t *testing.T) {
	f := newFixture(t)
	ids := completedServices(f)

	tm := &recordingTxManager{}
	calledInTx := false
	gen := &numerator.MockGenerator{
		GetNextNumberFunc: func(context.Context, numerator.Config, *numerator.Options, time.Time) (string, error) {
			calledInTx = tm.active
			return "INV-2026-00042", nil
		},
	}

	svc := NewService(
		f.invoices,
		f.services,
		&fakeClients{clients: map[string]*client.Client{"MAERSK": mustClient("MAERSK", "Maersk Line", "USD", "0001002345")}},
		fakeRateCodes{},
		export.NewValidator(nil),
		gen,
		tm,
		Config{CompanyCode: "CT01", ServiceRateCode: "TRNSP-INC"},
	)

	inv, err := svc.Create(context.Background(), CreateInput{
		ClientCode: "MAERSK",
		ServiceIDs: ids,
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-00042", inv.Number)
	assert.True(t, calledInTx, "sequence increment must roll back with a failed aggregation")
}

func mustClient(code, name, currency, exportID string) *client.Client {
	c := client.New(code, name, currency)
	c.ExportID = exportID
	return c
}

func TestCreate_ClientMissingExportID(t *testing.T) {
	f := newFixture(t)
	recID := f.services.add("NOEXPORT", "120")

	_, err := f.svc.Create(context.Background(), CreateInput{
		ClientCode: "NOEXPORT",
		Number:     "INV-001",
		ServiceIDs: []id.ID{recID},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeClientMissingExportID))
}

func TestFinalize_GateBlocksInvalidDocument(t *testing.T) {
	f := newFixture(t)
	ids := completedServices(f)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, CreateInput{ClientCode: "MAERSK", Number: "INV-001", ServiceIDs: ids})
	require.NoError(t, err)

	doc, err := f.svc.BuildExportDocument(ctx, inv.ID)
	require.NoError(t, err)
	doc.Lines = nil

	_, err = f.svc.Finalize(ctx, inv.ID, doc)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeExportValidation))

	// Nothing moved.
	stored, err := f.svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
	for _, recID := range ids {
		assert.Equal(t, servicerecord.StatusPrefactured, f.services.records[recID].Status)
	}
}

func TestFinalize_ValidDocument(t *testing.T) {
	f := newFixture(t)
	ids := completedServices(f)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, CreateInput{ClientCode: "MAERSK", Number: "INV-001", ServiceIDs: ids})
	require.NoError(t, err)

	doc, err := f.svc.BuildExportDocument(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "0001002345", doc.Customer.ExportID)
	assert.True(t, doc.Customer.Amount.Equal(types.MustMoney("405")))
	assert.Len(t, doc.Lines, 3)

	finalized, err := f.svc.Finalize(ctx, inv.ID, doc)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, finalized.Status)
	assert.Equal(t, "EXP-INV-001", finalized.ExportProtocolID)

	for _, recID := range ids {
		assert.Equal(t, servicerecord.StatusInvoiced, f.services.records[recID].Status)
	}

	// Finalizing twice is rejected.
	_, err = f.svc.Finalize(ctx, inv.ID, doc)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}

func TestDelete_ReleasesServices(t *testing.T) {
	f := newFixture(t)
	ids := completedServices(f)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, CreateInput{ClientCode: "MAERSK", Number: "INV-001", ServiceIDs: ids})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, inv.ID))

	for _, recID := range ids {
		rec := f.services.records[recID]
		assert.Equal(t, servicerecord.StatusCompleted, rec.Status)
		assert.Nil(t, rec.InvoiceID)
	}

	// Services can now go into a fresh invoice.
	_, err = f.svc.Create(ctx, CreateInput{ClientCode: "MAERSK", Number: "INV-001", ServiceIDs: ids})
	require.NoError(t, err)
}

func TestDelete_FinalizedRejected(t *testing.T) {
	f := newFixture(t)
	ids := completedServices(f)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, CreateInput{ClientCode: "MAERSK", Number: "INV-001", ServiceIDs: ids})
	require.NoError(t, err)

	doc, err := f.svc.BuildExportDocument(ctx, inv.ID)
	require.NoError(t, err)
	_, err = f.svc.Finalize(ctx, inv.ID, doc)
	require.NoError(t, err)

	err = f.svc.Delete(ctx, inv.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBusinessRule))
}
