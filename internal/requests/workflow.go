package requests

import (
	"github.com/odyssey-erp/pantry/internal/inventory"
)

// ApprovalReasonPrefix starts the reason recorded on approval transactions.
const ApprovalReasonPrefix = "Request approved: "

// CreateRequest builds a pending request for item. Unit, item name and unit of
// measure are copied from the item.
func CreateRequest(item inventory.Item, quantity float64, sector Sector, requesterName string, stamp inventory.Stamp) MaterialRequest {
	if requesterName == "" {
		requesterName = stamp.Actor
	}
	return MaterialRequest{
		ID:            stamp.NextID(),
		UnitID:        item.UnitID,
		ItemID:        item.ID,
		ItemName:      item.Name,
		Quantity:      quantity,
		Unit:          item.Unit,
		Sector:        sector,
		Status:        StatusPending,
		RequestedAt:   stamp.At,
		RequesterName: requesterName,
	}
}

// CreateBulkRequests builds one pending request per valid line with a shared
// timestamp. Unknown items and non-positive quantities are skipped.
func CreateBulkRequests(items []inventory.Item, lines []Line, sector Sector, requesterName string, stamp inventory.Stamp) ([]MaterialRequest, inventory.SkipReport) {
	var report inventory.SkipReport
	out := make([]MaterialRequest, 0, len(lines))
	for i, line := range lines {
		item, ok := inventory.FindItem(items, line.ItemID)
		if !ok {
			report.Entries = append(report.Entries, inventory.SkippedEntry{Index: i, ItemID: line.ItemID, Reason: inventory.SkipUnknownItem})
			continue
		}
		if !(line.Quantity > 0) {
			report.Entries = append(report.Entries, inventory.SkippedEntry{Index: i, ItemID: line.ItemID, Reason: inventory.SkipInvalidQuantity})
			continue
		}
		out = append(out, CreateRequest(item, line.Quantity, sector, requesterName, stamp))
	}
	return out, report
}

// Approve releases the requested stock. Only pending requests can be approved;
// on any error items are returned unchanged.
func Approve(items []inventory.Item, req MaterialRequest, stamp inventory.Stamp) ([]inventory.Item, inventory.StockTransaction, MaterialRequest, error) {
	if req.Status != StatusPending {
		return items, inventory.StockTransaction{}, req, ErrInvalidState
	}
	item, ok := inventory.FindItem(items, req.ItemID)
	if !ok {
		return items, inventory.StockTransaction{}, req, inventory.ErrItemNotFound
	}
	if item.Quantity < req.Quantity {
		return items, inventory.StockTransaction{}, req, &InsufficientStockError{
			ItemID:    item.ID,
			Available: item.Quantity,
			Requested: req.Quantity,
			Unit:      item.Unit,
		}
	}
	out, tx, ok := inventory.ApplySingleMovement(items, inventory.SingleMovement{
		ItemID:   req.ItemID,
		Type:     inventory.MovementExitProduction,
		Quantity: req.Quantity,
		Reason:   ApprovalReasonPrefix + string(req.Sector),
	}, stamp)
	if !ok {
		return items, inventory.StockTransaction{}, req, ErrInvalidQuantity
	}
	tx.ItemName = req.ItemName
	tx.UnitID = req.UnitID
	return out, tx, decide(req, StatusApproved, stamp), nil
}

// Reject closes a pending request without touching inventory.
func Reject(req MaterialRequest, stamp inventory.Stamp) (MaterialRequest, error) {
	if req.Status != StatusPending {
		return req, ErrInvalidState
	}
	return decide(req, StatusRejected, stamp), nil
}

func decide(req MaterialRequest, status Status, stamp inventory.Stamp) MaterialRequest {
	at := stamp.At
	req.Status = status
	req.DecidedAt = &at
	req.DecidedBy = stamp.Actor
	return req
}
