package portal

import (
	"context"
	"sort"
	"sync"
	"time"
)

// FixtureSource is an in-memory DataSource seeded with sample data so
// the dashboard works in demos without a database. It serves the same
// rows for every client id.
type FixtureSource struct {
	mu       sync.Mutex
	projects []Project
	invoices []Invoice
	messages []Message
}

// NewFixtureSource seeds the sample dashboard data.
func NewFixtureSource() *FixtureSource {
	day := func(offset int) time.Time {
		return time.Date(2026, time.February, 12, 9, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	}
	return &FixtureSource{
		projects: []Project{
			{ID: "proj-003", Name: "Client Portal Revamp", Status: ProjectStatusInProgress, Progress: 35, Deadline: day(45), CreatedAt: day(-6)},
			{ID: "proj-002", Name: "Marketing Site Redesign", Status: ProjectStatusReview, Progress: 90, Deadline: day(10), CreatedAt: day(-30)},
			{ID: "proj-001", Name: "Booking MVP", Status: ProjectStatusCompleted, Progress: 100, Deadline: day(-20), CreatedAt: day(-90)},
		},
		invoices: []Invoice{
			{ID: "inv-003", Number: "INV-2026-003", AmountCents: 375000, Status: InvoiceStatusPending, DueDate: day(14), CreatedAt: day(-2)},
			{ID: "inv-002", Number: "INV-2026-002", AmountCents: 120000, Status: InvoiceStatusOverdue, DueDate: day(-7), CreatedAt: day(-40)},
			{ID: "inv-001", Number: "INV-2026-001", AmountCents: 250000, Status: InvoiceStatusPaid, DueDate: day(-60), CreatedAt: day(-95)},
		},
		messages: []Message{
			{ID: "msg-003", Sender: "Maya (Project Lead)", Subject: "Sprint demo on Friday", Body: "We pushed the staging build, take a look before the demo.", CreatedAt: day(-1)},
			{ID: "msg-002", Sender: "Billing", Subject: "Invoice INV-2026-003 issued", Body: "Your latest invoice is ready in the invoices tab.", CreatedAt: day(-2)},
			{ID: "msg-001", Sender: "Maya (Project Lead)", Subject: "Kickoff notes", Body: "Thanks for the call, notes and next steps attached.", Read: true, CreatedAt: day(-12)},
		},
	}
}

func (f *FixtureSource) ListProjects(_ context.Context, clientID string) ([]Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Project, len(f.projects))
	copy(out, f.projects)
	for i := range out {
		out[i].ClientID = clientID
	}
	sortNewestFirst(out, func(p Project) time.Time { return p.CreatedAt })
	return out, nil
}

func (f *FixtureSource) ListInvoices(_ context.Context, clientID string) ([]Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Invoice, len(f.invoices))
	copy(out, f.invoices)
	for i := range out {
		out[i].ClientID = clientID
	}
	sortNewestFirst(out, func(inv Invoice) time.Time { return inv.CreatedAt })
	return out, nil
}

func (f *FixtureSource) ListMessages(_ context.Context, clientID string) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, len(f.messages))
	copy(out, f.messages)
	for i := range out {
		out[i].ClientID = clientID
	}
	sortNewestFirst(out, func(m Message) time.Time { return m.CreatedAt })
	return out, nil
}

func (f *FixtureSource) MarkMessageRead(_ context.Context, _ string, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.messages {
		if f.messages[i].ID == messageID {
			f.messages[i].Read = true
			return nil
		}
	}
	return ErrMessageNotFound
}

func sortNewestFirst[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}
