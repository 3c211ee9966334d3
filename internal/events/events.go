// Package events is the in-process boundary between the quotation engine and
// downstream side effects (PDF rendering, customer messaging). The engine
// only publishes signals after a successful commit; delivery is somebody
// else's job.
package events

import "time"

type Type string

const (
	TypeQuotationGenerated Type = "quotation.generated"
)

type Event struct {
	Type        Type      `json:"type"`
	QuotationID string    `json:"quotation_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher accepts events for later dispatch. Publishing must never fail
// the business operation that emits it.
type Publisher interface {
	Publish(e Event)
}
