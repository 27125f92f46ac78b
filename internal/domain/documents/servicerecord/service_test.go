package servicerecord

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
	"crewtransit/internal/domain/pricing"
	"crewtransit/pkg/numerator"
)

// --- test doubles ---

type memRepo struct {
	records     map[id.ID]*ServiceRecord
	attachments map[id.ID][]Attachment
}

func newMemRepo() *memRepo {
	return &memRepo{
		records:     make(map[id.ID]*ServiceRecord),
		attachments: make(map[id.ID][]Attachment),
	}
}

func (m *memRepo) Create(_ context.Context, rec *ServiceRecord) error {
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, recID id.ID) (*ServiceRecord, error) {
	rec, ok := m.records[recID]
	if !ok {
		return nil, apperror.NewNotFound("service record", recID)
	}
	cp := *rec
	return &cp, nil
}

func (m *memRepo) GetByNumber(_ context.Context, number string) (*ServiceRecord, error) {
	for _, rec := range m.records {
		if rec.Number == number {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("service record", number)
}

func (m *memRepo) Update(_ context.Context, rec *ServiceRecord) error {
	if _, ok := m.records[rec.ID]; !ok {
		return apperror.NewNotFound("service record", rec.ID)
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*ServiceRecord], error) {
	out := domain.ListResult[*ServiceRecord]{}
	for _, rec := range m.records {
		cp := *rec
		out.Items = append(out.Items, &cp)
	}
	out.TotalCount = int64(len(out.Items))
	return out, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, recID id.ID, from, to Status) (bool, error) {
	rec, ok := m.records[recID]
	if !ok || rec.Status != from {
		return false, nil
	}
	rec.Status = to
	return true, nil
}

func (m *memRepo) LinkToInvoice(_ context.Context, recID, invoiceID id.ID, version int) (LinkResult, error) {
	rec, ok := m.records[recID]
	if !ok {
		return NotFound, nil
	}
	if rec.InvoiceID != nil {
		return AlreadyLinked, nil
	}
	if rec.Status != StatusCompleted {
		return NotEligible, nil
	}
	if rec.Version != version {
		return StaleVersion, nil
	}
	inv := invoiceID
	rec.Status = StatusPrefactured
	rec.InvoiceID = &inv
	rec.Version++
	return Linked, nil
}

func (m *memRepo) MarkInvoiced(_ context.Context, invoiceID id.ID) (int, error) {
	n := 0
	for _, rec := range m.records {
		if rec.InvoiceID != nil && *rec.InvoiceID == invoiceID && rec.Status == StatusPrefactured {
			rec.Status = StatusInvoiced
			n++
		}
	}
	return n, nil
}

func (m *memRepo) ReleaseFromInvoice(_ context.Context, invoiceID id.ID) (int, error) {
	n := 0
	for _, rec := range m.records {
		if rec.InvoiceID != nil && *rec.InvoiceID == invoiceID && rec.Status == StatusPrefactured {
			rec.Status = StatusCompleted
			rec.InvoiceID = nil
			n++
		}
	}
	return n, nil
}

func (m *memRepo) CountByInvoice(_ context.Context, invoiceID id.ID, status Status) (int, error) {
	n := 0
	for _, rec := range m.records {
		if rec.InvoiceID != nil && *rec.InvoiceID == invoiceID && rec.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) GetAttachments(_ context.Context, recID id.ID) ([]Attachment, error) {
	return m.attachments[recID], nil
}

func (m *memRepo) SaveAttachments(_ context.Context, recID id.ID, lines []Attachment) error {
	m.attachments[recID] = lines
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedCalculator struct {
	err error
}

func (c fixedCalculator) Calculate(_ context.Context, in pricing.Input) (*pricing.Breakdown, error) {
	if c.err != nil {
		return nil, c.err
	}
	base := types.MustMoney("120")
	surcharge := types.Zero()
	if in.Category == pricing.CategoryVIP {
		surcharge = types.MustMoney("36")
	}
	return &pricing.Breakdown{
		Base:              base,
		CategorySurcharge: surcharge,
		Total:             base.Add(surcharge),
		Currency:          "USD",
		Source:            pricing.SourceRoute,
	}, nil
}

func newTestService(t *testing.T, repo *memRepo, calc PriceCalculator) *Service {
	t.Helper()
	return NewService(repo, calc, &numerator.MockGenerator{}, fakeTxManager{})
}

func newTestRecord() *ServiceRecord {
	return New("MAERSK", "HOTEL-PTY", "PORT-BALBOA", pricing.CategoryStandard,
		time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC))
}

// --- tests ---

func TestService_Create(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, fixedCalculator{})

	rec := newTestRecord()
	require.NoError(t, svc.Create(context.Background(), rec))

	assert.Equal(t, StatusPending, rec.Status)
	assert.NotEmpty(t, rec.Number)
	assert.Equal(t, "120", rec.Price.String())
	assert.Equal(t, "USD", rec.Currency)
	assert.Nil(t, rec.InvoiceID)

	stored, err := svc.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Number, stored.Number)
}

func TestService_Create_PricingErrorBlocks(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, fixedCalculator{err: apperror.NewPricing("no route")})

	rec := newTestRecord()
	err := svc.Create(context.Background(), rec)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePricing))
	assert.Empty(t, repo.records)
}

func TestService_Update_Reprices(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, fixedCalculator{})

	rec := newTestRecord()
	require.NoError(t, svc.Create(context.Background(), rec))

	rec.Category = pricing.CategoryVIP
	require.NoError(t, svc.Update(context.Background(), rec))
	assert.Equal(t, "156", rec.Price.String())
}

func TestService_Update_RejectedAfterCompleted(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, fixedCalculator{})

	rec := newTestRecord()
	require.NoError(t, svc.Create(context.Background(), rec))

	_, err := svc.ChangeStatus(context.Background(), rec.ID, StatusCompleted)
	require.NoError(t, err)

	rec.PassengerCount = 3
	err = svc.Update(context.Background(), rec)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeRecordLocked))
}

func TestService_ChangeStatus_Flow(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, fixedCalculator{})

	rec := newTestRecord()
	require.NoError(t, svc.Create(context.Background(), rec))
	ctx := context.Background()

	rec2, err := svc.ChangeStatus(ctx, rec.ID, StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, rec2.Status)

	rec2, err = svc.ChangeStatus(ctx, rec.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec2.Status)

	// rollback is allowed from completed
	rec2, err = svc.ChangeStatus(ctx, rec.ID, StatusPending)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rec2.Status)
}

func TestService_ChangeStatus_InvalidTransition(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, fixedCalculator{})

	rec := newTestRecord()
	require.NoError(t, svc.Create(context.Background(), rec))

	_, err := svc.ChangeStatus(context.Background(), rec.ID, Status("archived"))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestService_ChangeStatus_InvoicingStatesRejected(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, fixedCalculator{})

	rec := newTestRecord()
	require.NoError(t, svc.Create(context.Background(), rec))
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, rec.ID, StatusCompleted)
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, rec.ID, StatusPrefactured)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBusinessRule))
}

func TestService_InvoicedIsTerminal(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, fixedCalculator{})

	rec := newTestRecord()
	require.NoError(t, svc.Create(context.Background(), rec))
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, rec.ID, StatusCompleted)
	require.NoError(t, err)

	invoiceID := id.New()
	res, err := repo.LinkToInvoice(ctx, rec.ID, invoiceID, repo.records[rec.ID].Version)
	require.NoError(t, err)
	require.Equal(t, Linked, res)
	_, err = repo.MarkInvoiced(ctx, invoiceID)
	require.NoError(t, err)

	for _, target := range []Status{StatusPending, StatusInProgress, StatusCompleted} {
		_, err = svc.ChangeStatus(ctx, rec.ID, target)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	}
}

func TestService_AddAttachment_Cap(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, fixedCalculator{})

	rec := newTestRecord()
	require.NoError(t, svc.Create(context.Background(), rec))
	ctx := context.Background()

	for i := 0; i < MaxAttachments; i++ {
		_, err := svc.AddAttachment(ctx, rec.ID, "manifest.pdf", "files/manifest.pdf")
		require.NoError(t, err)
	}

	_, err := svc.AddAttachment(ctx, rec.ID, "one-too-many.pdf", "files/extra.pdf")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBusinessRule))
}

func TestService_Delete_GatedByStatus(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo, fixedCalculator{})

	rec := newTestRecord()
	require.NoError(t, svc.Create(context.Background(), rec))
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, rec.ID, StatusCompleted)
	require.NoError(t, err)

	err = svc.Delete(ctx, rec.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeRecordLocked))
}
