package categories

import (
	"errors"
	"time"
)

// Category is one fee category, e.g. iuran kebersihan bulanan.
type Category struct {
	ID             string
	NamaKategori   string
	Deskripsi      string
	NominalDefault int64
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

var (
	// ErrNameRequired rejects an empty category name.
	ErrNameRequired = errors.New("nama kategori wajib diisi")
	// ErrNameTaken rejects a duplicate category name.
	ErrNameTaken = errors.New("nama kategori sudah digunakan")
)
