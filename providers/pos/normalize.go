package pos

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ReportShape tags which of the known upstream response variants was decoded.
type ReportShape int

const (
	ShapeUnknown ReportShape = iota
	ShapeBranchList
	ShapeSingleBranch
	ShapeReportTransactions
)

func (s ReportShape) String() string {
	switch s {
	case ShapeBranchList:
		return "branch-list"
	case ShapeSingleBranch:
		return "single-branch"
	case ShapeReportTransactions:
		return "report-transactions"
	default:
		return "unknown"
	}
}

// Normalize maps any of the three known upstream payload shapes into the
// canonical branch list. An empty result with ShapeUnknown is the "no data"
// signal, never an error.
func Normalize(data json.RawMessage) ([]Branch, ReportShape) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, ShapeUnknown
	}

	if strings.HasPrefix(trimmed, "[") {
		var branches []Branch
		if err := json.Unmarshal(data, &branches); err == nil {
			return branches, ShapeBranchList
		}
		return nil, ShapeUnknown
	}

	var probe struct {
		Merchant     string              `json:"merchant"`
		Location     BranchLocation      `json:"location"`
		Sales        []RawSale           `json:"sales"`
		Transactions []reportTransaction `json:"transactions"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, ShapeUnknown
	}

	if probe.Sales != nil {
		return []Branch{{
			Merchant: probe.Merchant,
			Location: probe.Location,
			Sales:    probe.Sales,
		}}, ShapeSingleBranch
	}

	if probe.Transactions != nil {
		return []Branch{remapReportTransactions(probe.Transactions)}, ShapeReportTransactions
	}

	return nil, ShapeUnknown
}

// remapReportTransactions converts /Report/get-report rows into the canonical
// sale shape. The endpoint has a single amount field, used for both sale and
// total amounts.
func remapReportTransactions(txs []reportTransaction) Branch {
	branch := Branch{Sales: make([]RawSale, 0, len(txs))}
	for _, tx := range txs {
		if branch.Merchant == "" {
			branch.Merchant = tx.Merchant
		}
		if branch.Location.ID == "" {
			branch.Location = BranchLocation{ID: tx.LocationID, Address: tx.Address}
		}

		id := tx.ID
		if id == "" {
			id = tx.TransactionID
		}
		if id == "" {
			id = SynthesizeSaleID(tx.SerialNumber, tx.DateTime, tx.Amount.String(), tx.SequenceNumber)
		}

		branch.Sales = append(branch.Sales, RawSale{
			ID:                  id,
			SequenceNumber:      tx.SequenceNumber,
			SerialNumber:        tx.SerialNumber,
			TransactionDateTime: tx.DateTime,
			TransactionType:     tx.Type,
			Status:              tx.Status,
			SaleAmount:          tx.Amount,
			TotalAmount:         tx.Amount,
		})
	}
	return branch
}

// SaleExternalID resolves the stable identifier for a sale, synthesizing one
// when the upstream row has none.
func SaleExternalID(s RawSale) string {
	if s.ID != "" {
		return s.ID
	}
	amount := s.TotalAmount.String()
	if amount == "" {
		amount = s.SaleAmount.String()
	}
	return SynthesizeSaleID(s.SerialNumber, s.TransactionDateTime, amount, s.SequenceNumber)
}

// SynthesizeSaleID builds a best-effort dedup key for sales without a native
// id: {serial|unknown}-{digits of timestamp, max 14}-{amount}-{seq|random}.
// It is deterministic except for the random branch, reached only when the
// sequence number is also absent. Unrelated sales sharing serial, timestamp
// and amount can collide; upstream identity semantics do not rule that out.
func SynthesizeSaleID(serial, dateTime, amount, sequence string) string {
	if serial == "" {
		serial = "unknown"
	}
	if amount == "" {
		amount = "0"
	}
	if sequence == "" {
		sequence = uuid.NewString()[:8]
	}
	return fmt.Sprintf("%s-%s-%s-%s", serial, digitsOnly(dateTime, 14), amount, sequence)
}

func digitsOnly(s string, max int) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() >= max {
				break
			}
		}
	}
	return b.String()
}
