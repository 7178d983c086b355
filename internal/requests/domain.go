package requests

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/pantry/internal/shared"
)

// Status tracks the request lifecycle.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Sector is the requesting area of the restaurant.
type Sector string

const (
	SectorKitchen    Sector = "KITCHEN"
	SectorBar        Sector = "BAR"
	SectorDiningRoom Sector = "DINING_ROOM"
	SectorAdmin      Sector = "ADMIN"
)

// Valid reports whether s is a known sector.
func (s Sector) Valid() bool {
	switch s {
	case SectorKitchen, SectorBar, SectorDiningRoom, SectorAdmin:
		return true
	}
	return false
}

// MaterialRequest asks for stock to be released to a sector. Item name and
// unit of measure are snapshots taken at creation.
type MaterialRequest struct {
	ID            string     `json:"id"`
	UnitID        string     `json:"unitId"`
	ItemID        string     `json:"itemId"`
	ItemName      string     `json:"itemName"`
	Quantity      float64    `json:"quantity"`
	Unit          string     `json:"unit"`
	Sector        Sector     `json:"sector"`
	Status        Status     `json:"status"`
	RequestedAt   time.Time  `json:"requestedAt"`
	RequesterName string     `json:"requesterName"`
	DecidedAt     *time.Time `json:"decidedAt,omitempty"`
	DecidedBy     string     `json:"decidedBy,omitempty"`
}

// Line is one entry of a bulk request.
type Line struct {
	ItemID   string
	Quantity float64
}

// InsufficientStockError reports an approval that would take more than is on hand.
type InsufficientStockError struct {
	ItemID    string
	Available float64
	Requested float64
	Unit      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("requests: insufficient stock for %s: available %g %s, requested %g", e.ItemID, e.Available, e.Unit, e.Requested)
}

// Unwrap lets callers match the conflict class.
func (e *InsufficientStockError) Unwrap() error {
	return shared.ErrConflict
}

// ProblemExtensions exposes the quantities in problem responses.
func (e *InsufficientStockError) ProblemExtensions() map[string]any {
	return map[string]any{"available": e.Available, "requested": e.Requested, "unit": e.Unit}
}

var (
	// ErrInvalidState occurs when a decision targets a request that is no longer pending.
	ErrInvalidState = fmt.Errorf("requests: invalid state transition: %w", shared.ErrConflict)
	// ErrRequestNotFound indicates an unknown request ID within the unit.
	ErrRequestNotFound = fmt.Errorf("requests: request %w", shared.ErrNotFound)
	// ErrInvalidSector indicates an unknown sector.
	ErrInvalidSector = fmt.Errorf("requests: sector: %w", shared.ErrInvalidInput)
	// ErrInvalidQuantity indicates a non-positive requested quantity.
	ErrInvalidQuantity = fmt.Errorf("requests: quantity must be greater than zero: %w", shared.ErrInvalidInput)
)
