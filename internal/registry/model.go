package registry

import "time"

// Status describes the derived stock position of an item.
type Status string

const (
	// StatusInStock means on-hand quantity is above the low-stock threshold.
	StatusInStock Status = "in_stock"
	// StatusLowStock means on-hand quantity is at or below the threshold.
	StatusLowStock Status = "low_stock"
	// StatusOutOfStock means nothing is left on hand.
	StatusOutOfStock Status = "out_of_stock"
)

// Item is a trackable supply with running counters kept in lockstep with the
// movement ledger.
type Item struct {
	ID                int64     `json:"id"`
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	Unit              string    `json:"unit"`
	OnHand            int64     `json:"on_hand"`
	ConsumedTotal     int64     `json:"consumed_total"`
	RejectedTotal     int64     `json:"rejected_total"`
	LowStockThreshold int64     `json:"low_stock_threshold"`
	Archived          bool      `json:"archived"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DeriveStatus computes the stock status from on-hand quantity and threshold.
// Status is never stored; it is always recomputed from these two values.
func DeriveStatus(onHand, threshold int64) Status {
	switch {
	case onHand <= 0:
		return StatusOutOfStock
	case onHand <= threshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Status reports the derived status of the item.
func (i Item) Status() Status {
	return DeriveStatus(i.OnHand, i.LowStockThreshold)
}
