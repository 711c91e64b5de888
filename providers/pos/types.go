package pos

import (
	"encoding/json"
	"strings"
)

// Amount tolerates the upstream sending numbers either as JSON numbers or as
// quoted strings (both occur in the wild). A nil *Amount means the field was
// absent; an empty Amount means it was sent blank and should coerce to zero.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		return nil
	}
	*a = Amount(s)
	return nil
}

func (a *Amount) String() string {
	if a == nil {
		return ""
	}
	return string(*a)
}

// ReportQuery is the request body for both report endpoints.
type ReportQuery struct {
	From            string
	To              string
	Page            int
	PageSize        int
	LocationID      string
	SerialNumber    string
	TransactionType string
	CardBrand       string
}

type Pagination struct {
	Page         int `json:"page"`
	PageSize     int `json:"pageSize"`
	TotalPages   int `json:"totalPages"`
	TotalRecords int `json:"totalRecords"`
}

// ReportResponse is the raw upstream envelope. Data is kept opaque here and
// decoded by Normalize, since the API returns several shapes under the same key.
type ReportResponse struct {
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
	Raw        []byte          `json:"-"`
}

// Branch is the canonical "branch -> sales" grouping every upstream shape is
// normalized into.
type Branch struct {
	Merchant string         `json:"merchant"`
	Location BranchLocation `json:"location"`
	Sales    []RawSale      `json:"sales"`
}

type BranchLocation struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

type RawSale struct {
	ID                  string    `json:"id"`
	SequenceNumber      string    `json:"sequenceNumber"`
	SerialNumber        string    `json:"serialNumber"`
	TransactionDateTime string    `json:"transactionDateTime"`
	TransactionType     string    `json:"transactionType"`
	Status              string    `json:"status"`
	SaleAmount          *Amount   `json:"saleAmount"`
	TotalAmount         *Amount   `json:"totalAmount"`
	Products            []Product `json:"products"`
}

type Product struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    *Amount `json:"price"`
}

// reportTransaction is the flat row shape of the /Report/get-report endpoint.
type reportTransaction struct {
	ID             string  `json:"id"`
	TransactionID  string  `json:"transactionId"`
	SequenceNumber string  `json:"sequenceNumber"`
	SerialNumber   string  `json:"serialNumber"`
	DateTime       string  `json:"dateTime"`
	Type           string  `json:"type"`
	Status         string  `json:"status"`
	Amount         *Amount `json:"amount"`
	Merchant       string  `json:"merchant"`
	LocationID     string  `json:"locationId"`
	Address        string  `json:"address"`
}
