package iuran

import (
	"errors"
	"regexp"
	"time"
)

// Payment statuses.
const (
	StatusPaid    = "PAID"
	StatusUnpaid  = "UNPAID"
	StatusPending = "PENDING"
	StatusOverdue = "OVERDUE"
)

// Payment methods.
const (
	MethodCash     = "CASH"
	MethodTransfer = "TRANSFER"
	MethodQRIS     = "QRIS"
	MethodBank     = "BANK"
)

// History actions.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Transaction is one fee charge for a resident in a billing period.
// Periode is "YYYY-MM"; amounts are whole rupiah.
type Transaction struct {
	ID                string
	NomorUrut         int64
	ResidentID        string
	ResidentName      string
	NomorRumah        string
	CategoryID        string
	CategoryName      string
	Periode           string
	JumlahNominal     int64
	MetodePembayaran  string
	StatusPembayaran  string
	TanggalBayar      *time.Time
	TanggalJatuhTempo *time.Time
	Keterangan        string
	BuktiPembayaran   string
	DibuatOleh        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HistoryEntry is one audit row recording a transaction mutation.
type HistoryEntry struct {
	ID            string
	TransactionID string
	Action        string
	OldData       []byte
	NewData       []byte
	AdminID       string
	CreatedAt     time.Time
}

// ListFilter narrows the transaction listing. Zero values mean "no
// filter". Page is 1-based.
type ListFilter struct {
	Periode    string
	CategoryID string
	ResidentID string
	Method     string
	Status     string
	DateFrom   *time.Time
	DateTo     *time.Time
	Search     string
	Page       int
	PerPage    int
}

// Page is the paginated listing payload.
type Page struct {
	Transactions []Transaction
	TotalCount   int64
	TotalPages   int
	CurrentPage  int
	HasNext      bool
	HasPrev      bool
}

// Stats aggregates the transaction dashboard numbers.
type Stats struct {
	MonthlyRevenue  int64
	RevenueGrowth   float64
	PendingAmount   int64
	PendingCount    int64
	StatusCounts    map[string]int64
	MonthlySeries   []MonthlyPoint
	RecentTransacts []Transaction
}

// MonthlyPoint is one month in the revenue series.
type MonthlyPoint struct {
	Periode string
	Total   int64
}

// OverdueContact is one resident with outstanding overdue charges and a
// reachable email address.
type OverdueContact struct {
	ResidentName string
	Email        string
	TotalAmount  int64
	Count        int64
}

var (
	// ErrDuplicateTransaction rejects a second charge for the same
	// resident, category and periode.
	ErrDuplicateTransaction = errors.New("transaksi untuk warga, kategori dan periode ini sudah ada")
	// ErrInvalidPeriode rejects a periode outside the YYYY-MM shape.
	ErrInvalidPeriode = errors.New("periode harus berformat YYYY-MM")
	// ErrInvalidStatus rejects an unknown payment status.
	ErrInvalidStatus = errors.New("status pembayaran tidak dikenal")
	// ErrInvalidMethod rejects an unknown payment method.
	ErrInvalidMethod = errors.New("metode pembayaran tidak dikenal")
	// ErrAmountRequired rejects a non-positive amount.
	ErrAmountRequired = errors.New("jumlah nominal harus lebih dari nol")
)

var periodePattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidPeriode reports whether p is a YYYY-MM billing period.
func ValidPeriode(p string) bool {
	return periodePattern.MatchString(p)
}

// ValidStatus reports whether s is a known payment status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPaid, StatusUnpaid, StatusPending, StatusOverdue:
		return true
	}
	return false
}

// ValidMethod reports whether m is a known payment method.
func ValidMethod(m string) bool {
	switch m {
	case MethodCash, MethodTransfer, MethodQRIS, MethodBank:
		return true
	}
	return false
}
