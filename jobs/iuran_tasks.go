package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/eresidence/eresidence/internal/iuran"
	"github.com/eresidence/eresidence/internal/iuran/categories"
	jobmetrics "github.com/eresidence/eresidence/internal/jobs"
)

const (
	// TaskOverdueScan flips unpaid charges past their due date to OVERDUE.
	TaskOverdueScan = "iuran:overdue_scan"
	// TaskGenerateDues creates the monthly charges for every active category.
	TaskGenerateDues = "iuran:generate_dues"

	// Charges come due on the 10th of their billing month.
	dueDayOfMonth = 10
)

// SchedulePayload carries scheduling metadata for recurring iuran tasks.
type SchedulePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewOverdueScanTask constructs an Asynq task for the nightly overdue scan.
func NewOverdueScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SchedulePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueScan, body, asynq.Queue(QueueDefault)), nil
}

// NewGenerateDuesTask constructs an Asynq task for the monthly dues run.
func NewGenerateDuesTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SchedulePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGenerateDues, body, asynq.Queue(QueueDefault)), nil
}

// TransactionStore is the slice of the iuran repository the jobs need.
type TransactionStore interface {
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
	OverdueContacts(ctx context.Context) ([]iuran.OverdueContact, error)
	ResidentsWithoutCharge(ctx context.Context, categoryID, periode string) ([]string, error)
	Create(ctx context.Context, tx *iuran.Transaction) error
}

// MailEnqueuer queues reminder mails. *Client satisfies it.
type MailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// CategoryLister lists fee categories for the dues generator.
type CategoryLister interface {
	List(ctx context.Context, activeOnly bool) ([]categories.Category, error)
}

// IuranTasks bundles the handlers for scheduled iuran maintenance.
type IuranTasks struct {
	logger     *slog.Logger
	store      TransactionStore
	categories CategoryLister
	metrics    *jobmetrics.Metrics
	mail       MailEnqueuer
	now        func() time.Time
}

// NewIuranTasks constructs the scheduled task handlers. mail may be nil,
// in which case overdue scans skip the reminder mails.
func NewIuranTasks(logger *slog.Logger, store TransactionStore, cats CategoryLister, metrics *jobmetrics.Metrics, mail MailEnqueuer) *IuranTasks {
	return &IuranTasks{
		logger:     logger,
		store:      store,
		categories: cats,
		metrics:    metrics,
		mail:       mail,
		now:        time.Now,
	}
}

var rupiah = message.NewPrinter(language.Indonesian)

// HandleOverdueScan marks every unpaid charge past its due date as
// overdue, then queues one reminder mail per resident with an email on
// file. Mail failures do not fail the scan.
func (j *IuranTasks) HandleOverdueScan(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track("iuran_overdue_scan")
	count, err := j.store.MarkOverdue(ctx, j.now())
	if err != nil {
		j.logger.Error("overdue scan", slog.Any("error", err))
		return tracker.End(err)
	}
	if count > 0 && j.mail != nil {
		j.sendReminders(ctx)
	}
	j.logger.Info("overdue scan complete", slog.Int64("marked", count))
	return tracker.End(nil)
}

func (j *IuranTasks) sendReminders(ctx context.Context) {
	contacts, err := j.store.OverdueContacts(ctx)
	if err != nil {
		j.logger.Error("list overdue contacts", slog.Any("error", err))
		return
	}
	for _, contact := range contacts {
		_, err := j.mail.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      contact.Email,
			Subject: "Pengingat Iuran Tertunggak",
			Body: rupiah.Sprintf("Halo %s, Anda memiliki %d tagihan iuran tertunggak sebesar Rp %d. Mohon segera lakukan pembayaran.",
				contact.ResidentName, contact.Count, contact.TotalAmount),
		})
		if err != nil {
			j.logger.Warn("enqueue reminder", slog.String("to", contact.Email), slog.Any("error", err))
		}
	}
}

// HandleGenerateDues creates the current month's charge for every resident
// who does not have one yet, per active category. The scan is idempotent:
// re-running it only fills gaps.
func (j *IuranTasks) HandleGenerateDues(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track("iuran_generate_dues")

	now := j.now()
	periode := now.Format("2006-01")
	dueDate := time.Date(now.Year(), now.Month(), dueDayOfMonth, 0, 0, 0, 0, now.Location())

	cats, err := j.categories.List(ctx, true)
	if err != nil {
		j.logger.Error("list categories", slog.Any("error", err))
		return tracker.End(err)
	}

	var created int
	for _, cat := range cats {
		residentIDs, err := j.store.ResidentsWithoutCharge(ctx, cat.ID, periode)
		if err != nil {
			j.logger.Error("scan uncharged residents",
				slog.String("category", cat.ID), slog.Any("error", err))
			return tracker.End(err)
		}
		for _, residentID := range residentIDs {
			tx := &iuran.Transaction{
				ID:                uuid.NewString(),
				ResidentID:        residentID,
				CategoryID:        cat.ID,
				Periode:           periode,
				JumlahNominal:     cat.NominalDefault,
				MetodePembayaran:  iuran.MethodCash,
				StatusPembayaran:  iuran.StatusUnpaid,
				TanggalJatuhTempo: &dueDate,
				Keterangan:        "Tagihan otomatis " + cat.NamaKategori,
				DibuatOleh:        "system",
			}
			if err := j.store.Create(ctx, tx); err != nil {
				j.logger.Error("create charge",
					slog.String("resident", residentID),
					slog.String("category", cat.ID),
					slog.Any("error", err))
				return tracker.End(err)
			}
			created++
		}
	}

	j.metrics.AddGeneratedCharges(created)
	j.logger.Info("dues generation complete",
		slog.String("periode", periode), slog.Int("created", created))
	return tracker.End(nil)
}
