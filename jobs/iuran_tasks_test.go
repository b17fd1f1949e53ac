package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eresidence/eresidence/internal/iuran"
	"github.com/eresidence/eresidence/internal/iuran/categories"
	_ "github.com/eresidence/eresidence/testing"
)

type mockTaskStore struct {
	overdueMarked int64
	overdueErr    error
	contacts      []iuran.OverdueContact
	uncharged     map[string][]string
	created       []*iuran.Transaction
}

func (m *mockTaskStore) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	return m.overdueMarked, m.overdueErr
}

func (m *mockTaskStore) OverdueContacts(ctx context.Context) ([]iuran.OverdueContact, error) {
	return m.contacts, nil
}

type capturingMailer struct {
	sent []SendEmailPayload
}

func (c *capturingMailer) EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error) {
	c.sent = append(c.sent, payload)
	return nil, nil
}

func (m *mockTaskStore) ResidentsWithoutCharge(ctx context.Context, categoryID, periode string) ([]string, error) {
	return m.uncharged[categoryID], nil
}

func (m *mockTaskStore) Create(ctx context.Context, tx *iuran.Transaction) error {
	m.created = append(m.created, tx)
	remaining := m.uncharged[tx.CategoryID][:0]
	for _, id := range m.uncharged[tx.CategoryID] {
		if id != tx.ResidentID {
			remaining = append(remaining, id)
		}
	}
	m.uncharged[tx.CategoryID] = remaining
	return nil
}

type stubCategoryLister struct {
	items []categories.Category
}

func (s *stubCategoryLister) List(ctx context.Context, activeOnly bool) ([]categories.Category, error) {
	return s.items, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGenerateDuesCreatesMissingCharges(t *testing.T) {
	store := &mockTaskStore{
		uncharged: map[string][]string{
			"cat-bulanan":    {"warga-1", "warga-2"},
			"cat-kebersihan": {"warga-2"},
		},
	}
	cats := &stubCategoryLister{items: []categories.Category{
		{ID: "cat-bulanan", NamaKategori: "Iuran Bulanan", NominalDefault: 150000, IsActive: true},
		{ID: "cat-kebersihan", NamaKategori: "Iuran Kebersihan", NominalDefault: 25000, IsActive: true},
	}}

	tasks := NewIuranTasks(slog.Default(), store, cats, nil, nil)
	tasks.now = fixedClock(time.Date(2026, time.March, 1, 2, 0, 0, 0, time.UTC))

	task, err := NewGenerateDuesTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, tasks.HandleGenerateDues(context.Background(), task))

	require.Len(t, store.created, 3)
	first := store.created[0]
	assert.Equal(t, "2026-03", first.Periode)
	assert.Equal(t, iuran.StatusUnpaid, first.StatusPembayaran)
	assert.Equal(t, int64(150000), first.JumlahNominal)
	assert.Equal(t, "system", first.DibuatOleh)
	require.NotNil(t, first.TanggalJatuhTempo)
	assert.Equal(t, 10, first.TanggalJatuhTempo.Day())
}

func TestGenerateDuesSecondRunFillsNothing(t *testing.T) {
	store := &mockTaskStore{
		uncharged: map[string][]string{"cat-bulanan": {"warga-1"}},
	}
	cats := &stubCategoryLister{items: []categories.Category{
		{ID: "cat-bulanan", NamaKategori: "Iuran Bulanan", NominalDefault: 150000, IsActive: true},
	}}

	tasks := NewIuranTasks(slog.Default(), store, cats, nil, nil)
	tasks.now = fixedClock(time.Date(2026, time.March, 1, 2, 0, 0, 0, time.UTC))

	task, err := NewGenerateDuesTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, tasks.HandleGenerateDues(context.Background(), task))
	require.NoError(t, tasks.HandleGenerateDues(context.Background(), task))

	assert.Len(t, store.created, 1)
}

func TestOverdueScanPropagatesErrors(t *testing.T) {
	store := &mockTaskStore{overdueMarked: 4}
	tasks := NewIuranTasks(slog.Default(), store, &stubCategoryLister{}, nil, nil)

	task, err := NewOverdueScanTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, tasks.HandleOverdueScan(context.Background(), task))

	store.overdueErr = errors.New("db down")
	assert.Error(t, tasks.HandleOverdueScan(context.Background(), task))
}

func TestOverdueScanQueuesReminders(t *testing.T) {
	store := &mockTaskStore{
		overdueMarked: 2,
		contacts: []iuran.OverdueContact{
			{ResidentName: "Budi Santoso", Email: "budi@example.com", TotalAmount: 300000, Count: 2},
		},
	}
	mailer := &capturingMailer{}
	tasks := NewIuranTasks(slog.Default(), store, &stubCategoryLister{}, nil, mailer)

	task, err := NewOverdueScanTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, tasks.HandleOverdueScan(context.Background(), task))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "budi@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "Budi Santoso")
	assert.Contains(t, mailer.sent[0].Subject, "Tertunggak")
}

func TestOverdueScanSkipsRemindersWhenNothingMarked(t *testing.T) {
	store := &mockTaskStore{
		contacts: []iuran.OverdueContact{
			{ResidentName: "Budi Santoso", Email: "budi@example.com", TotalAmount: 300000, Count: 2},
		},
	}
	mailer := &capturingMailer{}
	tasks := NewIuranTasks(slog.Default(), store, &stubCategoryLister{}, nil, mailer)

	task, err := NewOverdueScanTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, tasks.HandleOverdueScan(context.Background(), task))

	assert.Empty(t, mailer.sent)
}
