package core

import "fmt"

// LinePair couples a kept remote line with the local edit that updates it.
type LinePair struct {
	Remote RemoteLine `json:"remote"`
	Local  Line       `json:"local"`
}

// Reconciliation is the mutation set produced by diffing a fetched order
// against a locally edited line list. FinalSequence is the full renumbered
// line set the Service Layer receives: kept lines in their original relative
// order, then appended lines in local order, numbered 0..N-1.
type Reconciliation struct {
	ToDelete      []RemoteLine `json:"toDelete"`
	ToUpdate      []LinePair   `json:"toUpdate"`
	ToAppend      []Line       `json:"toAppend"`
	FinalSequence []RemoteLine `json:"finalSequence"`
}

// IsNoOp reports whether the edit changes nothing structurally.
// Updated lines may still carry changed quantities or prices.
func (r Reconciliation) IsNoOp() bool {
	return len(r.ToDelete) == 0 && len(r.ToAppend) == 0
}

// Reconcile diffs the current remote line set against the locally edited one.
//
// Matching is strictly by line number: a local line claims a remote line via
// RemoteLineNum, never via item code, so a user may change the item on an
// existing line without losing its position. Remote lines nobody claims are
// deleted; local lines with no RemoteLineNum are appended in local order.
// The same item code appearing on two lines stays two lines.
//
// Reconcile is a pure transform and cannot fail; fetch and submit failures
// belong to the collaborators that move the data.
func Reconcile(remote []RemoteLine, local []Line) Reconciliation {
	claimed := make(map[int]Line, len(local))
	for _, l := range local {
		if l.RemoteLineNum != nil {
			claimed[*l.RemoteLineNum] = l
		}
	}

	var rec Reconciliation
	for _, r := range remote {
		l, ok := claimed[r.LineNum]
		if !ok {
			rec.ToDelete = append(rec.ToDelete, r)
			continue
		}
		rec.ToUpdate = append(rec.ToUpdate, LinePair{Remote: r, Local: l})

		kept := r
		kept.ItemCode = l.ItemCode
		kept.Quantity = l.Quantity
		kept.Price = l.UnitPrice
		if l.WarehouseCode != "" {
			kept.WarehouseCode = l.WarehouseCode
		}
		rec.FinalSequence = append(rec.FinalSequence, kept)
	}

	for _, l := range local {
		if !l.IsNew() {
			continue
		}
		rec.ToAppend = append(rec.ToAppend, l)
		rec.FinalSequence = append(rec.FinalSequence, RemoteLine{
			ItemCode:      l.ItemCode,
			Quantity:      l.Quantity,
			Price:         l.UnitPrice,
			WarehouseCode: l.WarehouseCode,
		})
	}

	// Contiguous renumbering from 0. Gaps or duplicates are rejected
	// downstream, so the sequence is always rebuilt, never patched.
	for i := range rec.FinalSequence {
		rec.FinalSequence[i].LineNum = i
	}
	return rec
}

// SequencingError reports a line sequence that violates the contiguity
// invariant. Reconcile cannot produce one; seeing this error means an
// engine bug, and the payload it guards must not be submitted.
type SequencingError struct {
	LineNum int
	Index   int
}

func (e *SequencingError) Error() string {
	return fmt.Sprintf("line sequence invariant violated: line number %d at index %d", e.LineNum, e.Index)
}

// CheckSequence verifies that line numbers run 0..N-1 with no gaps or
// duplicates.
func CheckSequence(lines []RemoteLine) error {
	for i, l := range lines {
		if l.LineNum != i {
			return &SequencingError{LineNum: l.LineNum, Index: i}
		}
	}
	return nil
}

// OutboundOrder is the document shape an edit submits. It deliberately has
// no DocTotal or VatSum: stale client-side aggregates would silently
// override the server's recomputation, so they are stripped here and the
// wire layer never sees them.
type OutboundOrder struct {
	DocEntry int          `json:"docEntry"`
	CardCode string       `json:"cardCode"`
	Comments string       `json:"comments"`
	Lines    []RemoteLine `json:"lines"`
}

// BuildOrderUpdate assembles the outbound payload for an edit from the
// fetched order header and a reconciliation result. The sequence invariant
// is asserted before anything leaves the engine.
//
// An empty final sequence is representable: an order edited down to zero
// lines is submitted as such, and the Service Layer's verdict on it is
// surfaced as a remote error, not suppressed locally.
func BuildOrderUpdate(order RemoteOrder, rec Reconciliation) (OutboundOrder, error) {
	if err := CheckSequence(rec.FinalSequence); err != nil {
		return OutboundOrder{}, err
	}
	return OutboundOrder{
		DocEntry: order.DocEntry,
		CardCode: order.CardCode,
		Comments: order.Comments,
		Lines:    rec.FinalSequence,
	}, nil
}
