package portal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/devcrafthub/client-portal/internal/observability/metrics"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

var portalTracer = otel.Tracer("devcraft.internal.portal")

// Notifier pushes non-blocking notices to the client, for example over
// the session event stream.
type Notifier interface {
	Notify(level, message string)
}

// Snapshot is the dashboard state handed to the client: the three
// resource lists plus an independent loading flag per resource. A
// failed refresh leaves the previous list in place.
type Snapshot struct {
	Projects        []Project `json:"projects"`
	Invoices        []Invoice `json:"invoices"`
	Messages        []Message `json:"messages"`
	LoadingProjects bool      `json:"loading_projects"`
	LoadingInvoices bool      `json:"loading_invoices"`
	LoadingMessages bool      `json:"loading_messages"`
}

// UnreadCount is the badge shown next to the messages tab.
func (s Snapshot) UnreadCount() int {
	n := 0
	for _, m := range s.Messages {
		if !m.Read {
			n++
		}
	}
	return n
}

// ActiveProjects counts projects that are not completed.
func (s Snapshot) ActiveProjects() int {
	n := 0
	for _, p := range s.Projects {
		if p.Status != ProjectStatusCompleted {
			n++
		}
	}
	return n
}

// AmountDueCents sums unpaid invoices.
func (s Snapshot) AmountDueCents() int64 {
	var total int64
	for _, inv := range s.Invoices {
		if inv.Status != InvoiceStatusPaid {
			total += inv.AmountCents
		}
	}
	return total
}

// Dashboard holds one signed-in client's portal state and keeps it in
// sync with the data source. The three resources load concurrently and
// fail independently.
type Dashboard struct {
	clientID string
	source   DataSource
	notifier Notifier
	metrics  *metrics.SiteMetrics
	logger   *logging.Logger

	mu   sync.Mutex
	snap Snapshot
}

// NewDashboard creates a dashboard for one client. notifier and
// siteMetrics may be nil.
func NewDashboard(clientID string, source DataSource, notifier Notifier, siteMetrics *metrics.SiteMetrics, logger *logging.Logger) *Dashboard {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dashboard{
		clientID: clientID,
		source:   source,
		notifier: notifier,
		metrics:  siteMetrics,
		logger:   logger,
	}
}

// Snapshot returns a copy of the current dashboard state.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneSnapshot(d.snap)
}

// Refresh fetches all three resources concurrently and waits for every
// fetch to settle. Each resource sets its own loading flag, and a
// failed fetch keeps the previous list, logs a warning, and clears the
// flag. Refresh never returns an error: partial data is a valid
// dashboard.
func (d *Dashboard) Refresh(ctx context.Context) Snapshot {
	ctx, span := portalTracer.Start(ctx, "portal.refresh_dashboard")
	defer span.End()

	d.mu.Lock()
	d.snap.LoadingProjects = true
	d.snap.LoadingInvoices = true
	d.snap.LoadingMessages = true
	d.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		projects, ok := timedFetch(d, "projects", func() ([]Project, error) {
			return d.source.ListProjects(ctx, d.clientID)
		})
		d.mu.Lock()
		defer d.mu.Unlock()
		d.snap.LoadingProjects = false
		if ok {
			d.snap.Projects = projects
		}
	}()

	go func() {
		defer wg.Done()
		invoices, ok := timedFetch(d, "invoices", func() ([]Invoice, error) {
			return d.source.ListInvoices(ctx, d.clientID)
		})
		d.mu.Lock()
		defer d.mu.Unlock()
		d.snap.LoadingInvoices = false
		if ok {
			d.snap.Invoices = invoices
		}
	}()

	go func() {
		defer wg.Done()
		messages, ok := timedFetch(d, "messages", func() ([]Message, error) {
			return d.source.ListMessages(ctx, d.clientID)
		})
		d.mu.Lock()
		defer d.mu.Unlock()
		d.snap.LoadingMessages = false
		if ok {
			d.snap.Messages = messages
		}
	}()

	wg.Wait()
	return d.Snapshot()
}

func timedFetch[T any](d *Dashboard, resource string, fetch func() (T, error)) (T, bool) {
	start := time.Now()
	result, err := fetch()
	elapsed := time.Since(start).Seconds()
	if err != nil {
		d.metrics.ObserveDashboardFetch(resource, "error", elapsed)
		d.logger.Warn("dashboard fetch failed", "resource", resource, "client_id", d.clientID, "error", err)
		var zero T
		return zero, false
	}
	d.metrics.ObserveDashboardFetch(resource, "ok", elapsed)
	return result, true
}

// MarkMessageRead flips the read receipt locally first, then syncs to
// the data source. A sync failure reverts the local flip and pushes a
// notice; it never blocks the rest of the dashboard.
func (d *Dashboard) MarkMessageRead(ctx context.Context, messageID string) error {
	d.mu.Lock()
	idx := -1
	for i := range d.snap.Messages {
		if d.snap.Messages[i].ID == messageID {
			idx = i
			break
		}
	}
	if idx == -1 {
		d.mu.Unlock()
		return ErrMessageNotFound
	}
	if d.snap.Messages[idx].Read {
		d.mu.Unlock()
		return nil
	}
	d.snap.Messages[idx].Read = true
	d.mu.Unlock()

	if err := d.source.MarkMessageRead(ctx, d.clientID, messageID); err != nil {
		d.mu.Lock()
		for i := range d.snap.Messages {
			if d.snap.Messages[i].ID == messageID {
				d.snap.Messages[i].Read = false
			}
		}
		d.mu.Unlock()
		d.logger.Warn("read receipt sync failed", "client_id", d.clientID, "message_id", messageID, "error", err)
		if d.notifier != nil {
			d.notifier.Notify("error", "Could not mark the message as read. Please try again.")
		}
		return fmt.Errorf("portal: read receipt sync: %w", err)
	}
	return nil
}

func cloneSnapshot(s Snapshot) Snapshot {
	out := s
	out.Projects = append([]Project(nil), s.Projects...)
	out.Invoices = append([]Invoice(nil), s.Invoices...)
	out.Messages = append([]Message(nil), s.Messages...)
	return out
}
