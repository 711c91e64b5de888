package pos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	branchReportPath = "/BranchReport/branch-report"
	reportPath       = "/Report/get-report"

	// Upstream caps pageSize at 20.
	defaultPageSize = 20

	maxErrorBodyLen = 500
)

// Client talks to the payment-terminal API. Both known upstream variants are
// satisfied by sending the API key as X-API-Key and as a Bearer token, and by
// carrying both from/to and startDate/endDate key pairs in the body.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) FetchBranchReport(q ReportQuery) (*ReportResponse, error) {
	return c.post(branchReportPath, q)
}

func (c *Client) FetchReport(q ReportQuery) (*ReportResponse, error) {
	return c.post(reportPath, q)
}

func (c *Client) post(path string, q ReportQuery) (*ReportResponse, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}

	payload := map[string]any{
		"from":      q.From,
		"to":        q.To,
		"startDate": q.From,
		"endDate":   q.To,
		"page":      page,
		"pageSize":  pageSize,
	}
	if q.LocationID != "" {
		payload["locationId"] = q.LocationID
	}
	if q.SerialNumber != "" {
		payload["serialNumber"] = q.SerialNumber
	}
	if q.TransactionType != "" {
		payload["typeTransaction"] = q.TransactionType
	}
	if q.CardBrand != "" {
		payload["cardBrand"] = q.CardBrand
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	rawResp, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthError{Message: "invalid API key"}
	case resp.StatusCode >= 500:
		return nil, &UnavailableError{Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &RequestError{Status: resp.StatusCode, Body: truncate(string(rawResp), maxErrorBodyLen)}
	}

	var result ReportResponse
	if err := json.Unmarshal(rawResp, &result); err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	result.Raw = rawResp

	return &result, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
