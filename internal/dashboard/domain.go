package dashboard

import "github.com/eresidence/eresidence/internal/iuran"

// Stats is the aggregated landing-page payload.
type Stats struct {
	TotalWarga        int64
	WargaMenunggak    int64
	PendapatanBulanan int64
	TunggakanTotal    int64
	Arrears           []ArrearsRow
	Recent            []iuran.Transaction
}

// ArrearsRow summarizes one resident's unpaid charges.
type ArrearsRow struct {
	ResidentID      string
	NamaWarga       string
	NomorRumah      string
	JumlahTunggakan int64
	JumlahTagihan   int64
}
