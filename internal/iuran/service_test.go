package iuran_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eresidence/eresidence/internal/iuran"
	"github.com/eresidence/eresidence/internal/shared"
	_ "github.com/eresidence/eresidence/testing"
)

type txKey struct {
	resident, category, periode string
}

type mockTxRepo struct {
	records  map[string]iuran.Transaction
	history  []iuran.HistoryEntry
	lastUrut int64
}

func newMockTxRepo() *mockTxRepo {
	return &mockTxRepo{records: make(map[string]iuran.Transaction)}
}

func (m *mockTxRepo) List(ctx context.Context, filter iuran.ListFilter) (*iuran.Page, error) {
	var list []iuran.Transaction
	for _, tx := range m.records {
		if filter.Status != "" && tx.StatusPembayaran != filter.Status {
			continue
		}
		if filter.Periode != "" && tx.Periode != filter.Periode {
			continue
		}
		list = append(list, tx)
	}
	return &iuran.Page{Transactions: list, TotalCount: int64(len(list)), TotalPages: 1, CurrentPage: 1}, nil
}

func (m *mockTxRepo) Find(ctx context.Context, id string) (*iuran.Transaction, error) {
	tx, ok := m.records[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &tx, nil
}

func (m *mockTxRepo) Exists(ctx context.Context, residentID, categoryID, periode string) (bool, error) {
	key := txKey{residentID, categoryID, periode}
	for _, tx := range m.records {
		if (txKey{tx.ResidentID, tx.CategoryID, tx.Periode}) == key {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTxRepo) Create(ctx context.Context, tx *iuran.Transaction) error {
	m.lastUrut++
	tx.NomorUrut = m.lastUrut
	m.records[tx.ID] = *tx
	m.history = append(m.history, iuran.HistoryEntry{
		TransactionID: tx.ID, Action: iuran.ActionCreate, AdminID: tx.DibuatOleh,
	})
	return nil
}

func (m *mockTxRepo) Update(ctx context.Context, tx *iuran.Transaction, adminID string) error {
	existing, ok := m.records[tx.ID]
	if !ok {
		return shared.ErrNotFound
	}
	tx.NomorUrut = existing.NomorUrut
	m.records[tx.ID] = *tx
	m.history = append(m.history, iuran.HistoryEntry{
		TransactionID: tx.ID, Action: iuran.ActionUpdate, AdminID: adminID,
	})
	return nil
}

func (m *mockTxRepo) Delete(ctx context.Context, id, adminID string) error {
	if _, ok := m.records[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.records, id)
	m.history = append(m.history, iuran.HistoryEntry{
		TransactionID: id, Action: iuran.ActionDelete, AdminID: adminID,
	})
	return nil
}

func (m *mockTxRepo) History(ctx context.Context, transactionID string) ([]iuran.HistoryEntry, error) {
	var out []iuran.HistoryEntry
	for _, entry := range m.history {
		if entry.TransactionID == transactionID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *mockTxRepo) Stats(ctx context.Context, now time.Time) (*iuran.Stats, error) {
	return &iuran.Stats{StatusCounts: map[string]int64{}}, nil
}

func (m *mockTxRepo) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	var changed int64
	for id, tx := range m.records {
		if tx.StatusPembayaran == iuran.StatusUnpaid && tx.TanggalJatuhTempo != nil && tx.TanggalJatuhTempo.Before(now) {
			tx.StatusPembayaran = iuran.StatusOverdue
			m.records[id] = tx
			changed++
		}
	}
	return changed, nil
}

func (m *mockTxRepo) ResidentsWithoutCharge(ctx context.Context, categoryID, periode string) ([]string, error) {
	return nil, nil
}

func (m *mockTxRepo) OverdueContacts(ctx context.Context) ([]iuran.OverdueContact, error) {
	return nil, nil
}

func validTx() iuran.Transaction {
	return iuran.Transaction{
		ResidentID:    "resident-1",
		CategoryID:    "category-1",
		Periode:       "2026-09",
		JumlahNominal: 50000,
	}
}

func TestCreateTransactionAssignsSequentialNumber(t *testing.T) {
	repo := newMockTxRepo()
	svc := iuran.NewService(nil, repo)

	first, err := svc.Create(context.Background(), validTx())
	require.NoError(t, err)

	second := validTx()
	second.CategoryID = "category-2"
	created, err := svc.Create(context.Background(), second)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.NomorUrut)
	assert.Equal(t, int64(2), created.NomorUrut)
	assert.Equal(t, iuran.StatusUnpaid, first.StatusPembayaran)
	assert.Equal(t, iuran.MethodCash, first.MetodePembayaran)
}

func TestCreateTransactionDuplicateRejected(t *testing.T) {
	repo := newMockTxRepo()
	svc := iuran.NewService(nil, repo)

	_, err := svc.Create(context.Background(), validTx())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validTx())
	assert.ErrorIs(t, err, iuran.ErrDuplicateTransaction)
	assert.Len(t, repo.records, 1)
}

func TestCreateTransactionValidation(t *testing.T) {
	svc := iuran.NewService(nil, newMockTxRepo())

	badPeriode := validTx()
	badPeriode.Periode = "2026-13"
	_, err := svc.Create(context.Background(), badPeriode)
	assert.ErrorIs(t, err, iuran.ErrInvalidPeriode)

	zeroAmount := validTx()
	zeroAmount.JumlahNominal = 0
	_, err = svc.Create(context.Background(), zeroAmount)
	assert.ErrorIs(t, err, iuran.ErrAmountRequired)

	badMethod := validTx()
	badMethod.MetodePembayaran = "PULSA"
	_, err = svc.Create(context.Background(), badMethod)
	assert.ErrorIs(t, err, iuran.ErrInvalidMethod)
}

func TestUpdateStatusToPaidStampsDate(t *testing.T) {
	repo := newMockTxRepo()
	svc := iuran.NewService(nil, repo)

	created, err := svc.Create(context.Background(), validTx())
	require.NoError(t, err)
	require.Nil(t, created.TanggalBayar)

	updated, err := svc.UpdateStatus(context.Background(), created.ID, iuran.StatusPaid, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, iuran.StatusPaid, updated.StatusPembayaran)
	require.NotNil(t, updated.TanggalBayar)
	assert.WithinDuration(t, time.Now(), *updated.TanggalBayar, time.Minute)
}

func TestUpdateStatusUnknownRejected(t *testing.T) {
	repo := newMockTxRepo()
	svc := iuran.NewService(nil, repo)

	created, err := svc.Create(context.Background(), validTx())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.ID, "LUNAS", "admin-1")
	assert.ErrorIs(t, err, iuran.ErrInvalidStatus)
}

func TestMutationsWriteHistory(t *testing.T) {
	repo := newMockTxRepo()
	svc := iuran.NewService(nil, repo)

	tx := validTx()
	tx.DibuatOleh = "admin-1"
	created, err := svc.Create(context.Background(), tx)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.ID, iuran.StatusPaid, "admin-2")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), created.ID, "admin-2"))

	history, err := svc.History(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, iuran.ActionCreate, history[0].Action)
	assert.Equal(t, iuran.ActionUpdate, history[1].Action)
	assert.Equal(t, iuran.ActionDelete, history[2].Action)
	assert.Equal(t, "admin-2", history[2].AdminID)
}
