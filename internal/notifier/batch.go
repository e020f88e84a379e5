package notifier

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-notifier/internal/metrics"
)

// Batch sends the deliveries of one event. Identical deliveries are sent once,
// each delivery is isolated from the failure of another, and in dry-run mode
// nothing reaches the transport.
type Batch struct {
	sender  Sender
	metrics metrics.Metrics
	dryRun  bool

	mu        sync.Mutex
	seen      map[string]bool
	attempted []Delivery
	failed    int
}

// NewBatch creates a batch for one event.
func NewBatch(sender Sender, m metrics.Metrics, dryRun bool) *Batch {
	return &Batch{
		sender:  sender,
		metrics: m,
		dryRun:  dryRun,
		seen:    make(map[string]bool),
	}
}

// Send delivers d unless an identical delivery was already sent in this batch.
// It reports whether the delivery was attempted.
func (b *Batch) Send(ctx context.Context, d Delivery) bool {
	key := d.Key()
	b.mu.Lock()
	if b.seen[key] {
		b.mu.Unlock()
		log.Debug("Skipping duplicate delivery", "channel", d.Channel, "recipients", d.Recipients, "target", d.Target)
		return false
	}
	b.seen[key] = true
	b.attempted = append(b.attempted, d)
	b.mu.Unlock()

	if b.dryRun {
		log.Info("[Dry Run] Would send notification", "channel", d.Channel, "recipients", d.Recipients, "target", d.Target, "subject", d.Subject, "text", d.Text)
		return true
	}

	if err := Send(ctx, b.sender, d); err != nil {
		b.mu.Lock()
		b.failed++
		b.mu.Unlock()
		b.metrics.IncDeliveryFailed(string(d.Channel))
		log.Error("Failed to send notification", "channel", d.Channel, "recipients", d.Recipients, "target", d.Target, "error", err)
		return true
	}
	b.metrics.IncDeliverySent(string(d.Channel))
	log.Debug("Sent notification", "channel", d.Channel, "recipients", d.Recipients, "target", d.Target)
	return true
}

// SendAll sends every delivery in order.
func (b *Batch) SendAll(ctx context.Context, ds []Delivery) {
	for _, d := range ds {
		b.Send(ctx, d)
	}
}

// Deliveries returns the deliveries attempted so far, in order.
func (b *Batch) Deliveries() []Delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Delivery(nil), b.attempted...)
}

// Failed returns how many attempted deliveries the transport rejected.
func (b *Batch) Failed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failed
}

// DryRun reports whether the batch only logs.
func (b *Batch) DryRun() bool {
	return b.dryRun
}
