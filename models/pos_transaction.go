package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PosTransactionCompleted = "COMPLETED"
	PosTransactionFailed    = "FAILED"
	PosTransactionPending   = "PENDING"
)

// ===== Custom time parser for the terminal API =====
// The upstream sends timestamps in several variants (RFC3339, millis without
// timezone, space-separated). PosTime accepts all of them.
type PosTime struct {
	time.Time
}

var posTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func ParsePosTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range posTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func (pt *PosTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" || s == "0001-01-01T00:00:00" {
		return nil
	}
	t, err := ParsePosTime(s)
	if err != nil {
		return err
	}
	pt.Time = t
	return nil
}

func (pt *PosTime) Scan(value interface{}) error {
	if value == nil {
		pt.Time = time.Time{}
		return nil
	}
	switch v := value.(type) {
	case time.Time:
		pt.Time = v
		return nil
	case []byte:
		t, err := ParsePosTime(string(v))
		if err != nil {
			return err
		}
		pt.Time = t
		return nil
	case string:
		t, err := ParsePosTime(v)
		if err != nil {
			return err
		}
		pt.Time = t
		return nil
	default:
		return nil
	}
}

func (pt PosTime) Value() (driver.Value, error) {
	if pt.Time.IsZero() {
		return nil, nil
	}
	return pt.Time, nil
}

// ===== Reconciled terminal transaction =====
type PosTransaction struct {
	gorm.Model

	ExternalID     string  `gorm:"uniqueIndex;size:120" json:"externalId"`
	SequenceNumber *string `gorm:"size:60" json:"sequenceNumber"`
	SerialNumber   *string `gorm:"size:60;index" json:"serialNumber"`
	LocationID     *string `gorm:"size:60;index" json:"locationId"`
	Address        *string `gorm:"size:255" json:"address"`

	Status     string  `gorm:"size:20;index" json:"status"`
	OccurredAt PosTime `gorm:"type:timestamp;index" json:"occurredAt"`
	Kind       string  `gorm:"size:30" json:"kind"`

	SaleAmount  decimal.Decimal `gorm:"type:numeric(18,2)" json:"saleAmount"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(18,2)" json:"totalAmount"`

	Items []PosTransactionItem `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"items"`

	// Runs that produced or re-observed this transaction.
	SyncRuns []PosSyncRun `gorm:"many2many:pos_transaction_runs;" json:"-"`
}

type PosTransactionItem struct {
	gorm.Model
	TransactionID uint            `gorm:"index" json:"-"`
	Code          *string         `gorm:"size:60" json:"code"`
	Name          string          `gorm:"size:255" json:"name"`
	Quantity      int             `gorm:"default:1" json:"quantity"`
	Price         decimal.Decimal `gorm:"type:numeric(18,2)" json:"price"`
}
