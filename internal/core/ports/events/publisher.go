package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeAssetReconciled = "asset.reconciled"
	TypeAssetDisposed   = "asset.disposed"
)

// Publisher sends integration events after a ledger transaction commits.
type Publisher interface {
	Publish(ctx context.Context, key string, event Event) error
	Close() error
}

// Event is the envelope written to the topic.
type Event struct {
	Type       string    `json:"type"`
	AssetID    string    `json:"assetID"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// AssetDisposed is the payload of TypeAssetDisposed.
type AssetDisposed struct {
	DispositionID   string          `json:"dispositionID"`
	JournalEntryID  string          `json:"journalEntryID"`
	DispositionType string          `json:"dispositionType"`
	DispositionDate string          `json:"dispositionDate"`
	FinalBookValue  decimal.Decimal `json:"finalBookValue"`
	GainLoss        decimal.Decimal `json:"gainLoss"`
}

// AssetReconciled is the payload of TypeAssetReconciled.
type AssetReconciled struct {
	PeriodsCreated          int             `json:"periodsCreated"`
	EntryIDs                []string        `json:"entryIDs"`
	AccumulatedDepreciation decimal.Decimal `json:"accumulatedDepreciation"`
	CurrentValue            decimal.Decimal `json:"currentValue"`
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish discards event.
func (NopPublisher) Publish(context.Context, string, Event) error {
	return nil
}

// Close is a no-op.
func (NopPublisher) Close() error {
	return nil
}
