package residents_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eresidence/eresidence/internal/residents"
	"github.com/eresidence/eresidence/internal/shared"
	_ "github.com/eresidence/eresidence/testing"
)

type mockResidentRepo struct {
	records map[string]residents.Resident
}

func newMockResidentRepo() *mockResidentRepo {
	return &mockResidentRepo{records: make(map[string]residents.Resident)}
}

func (m *mockResidentRepo) List(ctx context.Context, filter residents.ListFilter) ([]residents.Resident, error) {
	var out []residents.Resident
	for _, res := range m.records {
		if filter.Blok != "" && res.Blok != filter.Blok {
			continue
		}
		if filter.Status != "" && res.Status != filter.Status {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(res.NamaWarga), strings.ToLower(filter.Search)) &&
			!strings.Contains(res.NomorRumah, filter.Search) &&
			!strings.Contains(res.NoTelp, filter.Search) {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (m *mockResidentRepo) Find(ctx context.Context, id string) (*residents.Resident, error) {
	res, ok := m.records[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &res, nil
}

func (m *mockResidentRepo) Create(ctx context.Context, res residents.Resident) error {
	for _, existing := range m.records {
		if res.NIK != "" && existing.NIK == res.NIK {
			return residents.ErrNIKTaken
		}
	}
	m.records[res.ID] = res
	return nil
}

func (m *mockResidentRepo) Update(ctx context.Context, res residents.Resident) error {
	if _, ok := m.records[res.ID]; !ok {
		return shared.ErrNotFound
	}
	m.records[res.ID] = res
	return nil
}

func (m *mockResidentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.records[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func TestCreateResidentDefaults(t *testing.T) {
	repo := newMockResidentRepo()
	svc := residents.NewService(nil, repo)

	created, err := svc.Create(context.Background(), residents.Resident{
		NamaWarga:  "  Pak Budi Santoso  ",
		NomorRumah: "A-12",
		Blok:       "A",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Pak Budi Santoso", created.NamaWarga)
	assert.Equal(t, residents.StatusActive, created.Status)
	assert.Equal(t, 1, created.JumlahAnggota)
}

func TestCreateResidentRequiresName(t *testing.T) {
	svc := residents.NewService(nil, newMockResidentRepo())

	_, err := svc.Create(context.Background(), residents.Resident{NamaWarga: "  ", NomorRumah: "A-1"})
	assert.ErrorIs(t, err, residents.ErrNameRequired)
}

func TestCreateResidentDuplicateNIK(t *testing.T) {
	repo := newMockResidentRepo()
	svc := residents.NewService(nil, repo)

	_, err := svc.Create(context.Background(), residents.Resident{
		NamaWarga: "Bu Ani", NomorRumah: "B-3", NIK: "3201010101010001",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), residents.Resident{
		NamaWarga: "Pak Joko", NomorRumah: "B-4", NIK: "3201010101010001",
	})
	assert.ErrorIs(t, err, residents.ErrNIKTaken)
}

func TestListResidentsFiltered(t *testing.T) {
	repo := newMockResidentRepo()
	svc := residents.NewService(nil, repo)

	seed := []residents.Resident{
		{NamaWarga: "Pak Budi", NomorRumah: "A-1", Blok: "A"},
		{NamaWarga: "Bu Ani", NomorRumah: "B-2", Blok: "B"},
		{NamaWarga: "Pak Joko", NomorRumah: "A-3", Blok: "A"},
	}
	for _, res := range seed {
		_, err := svc.Create(context.Background(), res)
		require.NoError(t, err)
	}

	blokA, err := svc.List(context.Background(), residents.ListFilter{Blok: "A"})
	require.NoError(t, err)
	assert.Len(t, blokA, 2)

	byName, err := svc.List(context.Background(), residents.ListFilter{Search: "ani"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Bu Ani", byName[0].NamaWarga)
}

func TestUpdateMissingResident(t *testing.T) {
	svc := residents.NewService(nil, newMockResidentRepo())

	_, err := svc.Update(context.Background(), residents.Resident{
		ID: "nope", NamaWarga: "Siapa", NomorRumah: "Z-9",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
