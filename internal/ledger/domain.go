package ledger

import "time"

// Direction enumerates movement directions.
type Direction string

const (
	// DirectionIn represents a restock movement.
	DirectionIn Direction = "IN"
	// DirectionOut represents consumption or rejection leaving stock.
	DirectionOut Direction = "OUT"
)

// Classification distinguishes normal consumption from rejection loss on
// outbound movements. Inbound movements are always normal.
type Classification string

const (
	// ClassificationNormal tags restocks and regular consumption.
	ClassificationNormal Classification = "normal"
	// ClassificationRejected tags damaged, expired or otherwise rejected stock.
	ClassificationRejected Classification = "rejected"
)

// Entry is one immutable ledger record. Entries are only ever appended;
// corrections happen through compensating entries.
type Entry struct {
	ID             int64          `json:"id"`
	ItemID         int64          `json:"item_id"`
	Direction      Direction      `json:"direction"`
	Classification Classification `json:"classification"`
	Quantity       int64          `json:"quantity"`
	Remark         string         `json:"remark"`
	Actor          string         `json:"actor"`
	RefID          string         `json:"ref_id,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

// ApplyInput describes a movement request.
type ApplyInput struct {
	ItemID    int64
	Direction Direction
	Quantity  int64
	Remark    string
	Actor     string
	// Rejection overrides remark-based classification when set.
	Rejection *bool
	// RefID optionally links the movement to an external document (UUID).
	RefID string
	// IdempotencyKey deduplicates retried requests when non-empty.
	IdempotencyKey string
}

// Filter narrows ledger listings to a time window and optional dimensions.
type Filter struct {
	ItemID    int64
	Direction Direction
	From      time.Time
	To        time.Time
	Limit     int
}

// ItemState is the locked counter row the apply protocol folds into.
type ItemState struct {
	ItemID            int64
	OnHand            int64
	ConsumedTotal     int64
	RejectedTotal     int64
	LowStockThreshold int64
}
