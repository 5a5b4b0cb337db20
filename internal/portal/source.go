package portal

import (
	"context"
	"errors"
	"time"
)

// ErrMessageNotFound is returned when a read receipt targets a message
// the client does not own.
var ErrMessageNotFound = errors.New("portal: message not found")

// Project statuses as shown on the dashboard. Anything that is not
// Completed counts as active.
const (
	ProjectStatusInProgress = "In Progress"
	ProjectStatusReview     = "Review"
	ProjectStatusCompleted  = "Completed"
)

// Invoice statuses. Anything that is not Paid counts toward the amount
// due.
const (
	InvoiceStatusPaid    = "Paid"
	InvoiceStatusPending = "Pending"
	InvoiceStatusOverdue = "Overdue"
)

// Project is one engagement shown on a client's dashboard.
type Project struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Deadline  time.Time `json:"deadline"`
	CreatedAt time.Time `json:"created_at"`
}

// Invoice is one bill shown on a client's dashboard. Amount is in
// cents.
type Invoice struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	Number      string    `json:"number"`
	AmountCents int64     `json:"amount_cents"`
	Status      string    `json:"status"`
	DueDate     time.Time `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// Message is one inbox entry on a client's dashboard.
type Message struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Sender    string    `json:"sender"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Read      bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// DataSource is the remote store behind the dashboard. List results
// come back newest first. Implementations: the postgres repository and
// the in-memory fixture used for demos.
type DataSource interface {
	ListProjects(ctx context.Context, clientID string) ([]Project, error)
	ListInvoices(ctx context.Context, clientID string) ([]Invoice, error)
	ListMessages(ctx context.Context, clientID string) ([]Message, error)
	MarkMessageRead(ctx context.Context, clientID, messageID string) error
}
