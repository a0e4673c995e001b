package inventory

import (
	"time"

	"github.com/google/uuid"
)

type StockState string

const (
	StockOK  StockState = "OK"
	StockLow StockState = "LOW"
	StockOut StockState = "OUT"
)

func (s StockState) Valid() bool {
	switch s {
	case StockOK, StockLow, StockOut:
		return true
	}
	return false
}

// Classify maps a quantity against its reorder threshold.
func Classify(quantity, threshold int) StockState {
	switch {
	case quantity == 0:
		return StockOut
	case quantity > 0 && quantity <= threshold:
		return StockLow
	default:
		return StockOK
	}
}

// Supply is a consumable kept in the clinic storeroom.
type Supply struct {
	ID               uuid.UUID
	Name             string
	Unit             string
	Quantity         int
	ReorderThreshold int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (s Supply) State() StockState {
	return Classify(s.Quantity, s.ReorderThreshold)
}

func (s Supply) NeedsReorder() bool {
	return s.State() != StockOK
}
