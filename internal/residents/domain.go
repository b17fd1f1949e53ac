package residents

import (
	"errors"
	"time"
)

// Resident statuses.
const (
	StatusActive   = "AKTIF"
	StatusInactive = "TIDAK_AKTIF"
)

// Resident is one warga record in the estate registry.
type Resident struct {
	ID            string
	NamaWarga     string
	NIK           string
	NomorRumah    string
	Blok          string
	AlamatLengkap string
	NoTelp        string
	Email         string
	JumlahAnggota int
	Status        string
	ProfileID     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ListFilter narrows the registry listing. Zero values mean "no filter".
type ListFilter struct {
	Search string
	Blok   string
	Status string
}

var (
	// ErrNIKTaken rejects a duplicate national identity number.
	ErrNIKTaken = errors.New("NIK sudah terdaftar")
	// ErrNameRequired rejects an empty resident name.
	ErrNameRequired = errors.New("nama warga wajib diisi")
)
