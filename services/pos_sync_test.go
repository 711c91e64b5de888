package services

import (
	"encoding/json"
	"fmt"
	"testing"

	"bizops/models"
	"bizops/providers/pos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== in-memory SyncStore =====

type memoryStore struct {
	cfg        *models.PosSyncConfig
	runs       []*models.PosSyncRun
	txs        map[string]*models.PosTransaction
	runUpdates map[uint]int
	nextID     uint

	failCreateTx error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		txs:        map[string]*models.PosTransaction{},
		runUpdates: map[uint]int{},
	}
}

func (m *memoryStore) GetConfig() (*models.PosSyncConfig, error) {
	return m.cfg, nil
}

func (m *memoryStore) SaveConfig(cfg *models.PosSyncConfig) error {
	if cfg.ID == 0 {
		cfg.ID = 1
	}
	m.cfg = cfg
	return nil
}

func (m *memoryStore) CreateRun(run *models.PosSyncRun) error {
	m.nextID++
	run.ID = m.nextID
	m.runs = append(m.runs, run)
	return nil
}

func (m *memoryStore) UpdateRun(run *models.PosSyncRun) error {
	m.runUpdates[run.ID]++
	return nil
}

func (m *memoryStore) TransactionExists(externalID string) (bool, error) {
	_, ok := m.txs[externalID]
	return ok, nil
}

func (m *memoryStore) CreateTransaction(tx *models.PosTransaction, run *models.PosSyncRun) error {
	if m.failCreateTx != nil {
		return m.failCreateTx
	}
	if _, ok := m.txs[tx.ExternalID]; ok {
		return fmt.Errorf("duplicate key value violates unique constraint: %s", tx.ExternalID)
	}
	m.txs[tx.ExternalID] = tx
	if run != nil {
		tx.SyncRuns = append(tx.SyncRuns, *run)
	}
	return nil
}

// ===== fake remote client =====

type fakeFetcher struct {
	branchFn    func(q pos.ReportQuery) (*pos.ReportResponse, error)
	reportFn    func(q pos.ReportQuery) (*pos.ReportResponse, error)
	branchCalls []pos.ReportQuery
	reportCalls []pos.ReportQuery
}

func (f *fakeFetcher) FetchBranchReport(q pos.ReportQuery) (*pos.ReportResponse, error) {
	f.branchCalls = append(f.branchCalls, q)
	if f.branchFn != nil {
		return f.branchFn(q)
	}
	return emptyResponse(), nil
}

func (f *fakeFetcher) FetchReport(q pos.ReportQuery) (*pos.ReportResponse, error) {
	f.reportCalls = append(f.reportCalls, q)
	if f.reportFn != nil {
		return f.reportFn(q)
	}
	return emptyResponse(), nil
}

func emptyResponse() *pos.ReportResponse {
	return &pos.ReportResponse{Data: json.RawMessage(`{}`), Raw: []byte(`{"data":{}}`)}
}

func branchResponse(t *testing.T, branches []pos.Branch) *pos.ReportResponse {
	t.Helper()
	data, err := json.Marshal(branches)
	require.NoError(t, err)
	raw, err := json.Marshal(map[string]json.RawMessage{"data": data})
	require.NoError(t, err)
	return &pos.ReportResponse{Data: data, Raw: raw}
}

func amountPtr(s string) *pos.Amount {
	a := pos.Amount(s)
	return &a
}

func validSale(id string) pos.RawSale {
	return pos.RawSale{
		ID:                  id,
		SerialNumber:        "SN-1",
		SequenceNumber:      "1",
		TransactionDateTime: "2025-01-15T10:30:45",
		TransactionType:     "DEBIT",
		Status:              "SUCCESSFUL",
		SaleAmount:          amountPtr("100.50"),
		TotalAmount:         amountPtr("100.50"),
		Products: []pos.Product{
			{Code: "P-1", Name: "Coffee", Quantity: 2, Price: amountPtr("50.25")},
		},
	}
}

func newSyncService(store *memoryStore, fetcher ReportFetcher) *PosSyncService {
	store.cfg = &models.PosSyncConfig{
		APIKey:            "key",
		BaseURL:           "https://pos.example",
		AutoSyncEnabled:   true,
		SyncIntervalHours: 24,
		MaxDaysToSync:     7,
		RetentionDays:     90,
	}
	store.cfg.ID = 1

	cfgSvc := NewPosConfigService(store)
	cfgSvc.factory = func(baseURL, apiKey string) ReportFetcher { return fetcher }

	svc := NewPosSyncService(store, cfgSvc)
	svc.pageDelay = 0
	return svc
}

// ===== engine tests =====

func TestRunSyncCreatesTransactions(t *testing.T) {
	store := newMemoryStore()
	fetcher := &fakeFetcher{}
	fetcher.branchFn = func(q pos.ReportQuery) (*pos.ReportResponse, error) {
		return branchResponse(t, []pos.Branch{{
			Merchant: "Cafe Central",
			Location: pos.BranchLocation{ID: "LOC-1", Address: "Main St 1"},
			Sales:    []pos.RawSale{validSale("S-1"), validSale("S-2")},
		}}), nil
	}
	svc := newSyncService(store, fetcher)

	res := svc.RunSync(models.PosSyncRunManual, "2025-01-10", "2025-01-20")

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 2, res.Created)
	assert.Empty(t, res.Errors)

	require.Len(t, store.runs, 1)
	run := store.runs[0]
	assert.Equal(t, models.PosSyncRunCompleted, run.Status)
	assert.Equal(t, models.PosSyncRunManual, run.Kind)
	assert.Equal(t, "2025-01-10", run.StartDate)
	assert.Equal(t, "2025-01-20", run.EndDate)
	assert.Equal(t, 2, run.TotalProcessed)
	assert.Equal(t, 2, run.TotalCreated)
	assert.NotNil(t, run.CompletedAt)
	assert.NotEmpty(t, run.RawResponseSample)

	tx := store.txs["S-1"]
	require.NotNil(t, tx)
	assert.Equal(t, models.PosTransactionCompleted, tx.Status)
	assert.Equal(t, "DEBIT", tx.Kind)
	assert.Equal(t, "100.5", tx.TotalAmount.String())
	require.NotNil(t, tx.LocationID)
	assert.Equal(t, "LOC-1", *tx.LocationID)
	require.Len(t, tx.Items, 1)
	assert.Equal(t, "Coffee", tx.Items[0].Name)
	assert.Equal(t, 2, tx.Items[0].Quantity)
	require.Len(t, tx.SyncRuns, 1)
	assert.Equal(t, run.ID, tx.SyncRuns[0].ID)
}

func TestRunSyncIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	fetcher := &fakeFetcher{}
	fetcher.branchFn = func(q pos.ReportQuery) (*pos.ReportResponse, error) {
		return branchResponse(t, []pos.Branch{{
			Location: pos.BranchLocation{ID: "LOC-1"},
			Sales:    []pos.RawSale{validSale("S-1"), validSale("S-2")},
		}}), nil
	}
	svc := newSyncService(store, fetcher)

	first := svc.RunSync(models.PosSyncRunManual, "2025-01-10", "2025-01-20")
	second := svc.RunSync(models.PosSyncRunManual, "2025-01-10", "2025-01-20")

	assert.Equal(t, 2, first.Created)
	assert.Equal(t, 0, second.Created, "second run must not create duplicates")
	assert.Equal(t, first.Processed, second.Processed)
	assert.True(t, second.Success)
	assert.Len(t, store.txs, 2)
}

func TestRunSyncZeroData(t *testing.T) {
	store := newMemoryStore()
	fetcher := &fakeFetcher{}
	svc := newSyncService(store, fetcher)

	res := svc.RunSync(models.PosSyncRunManual, "2025-01-01", "2025-01-05")

	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "no transactions")
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 0, res.Processed)

	require.Len(t, store.runs, 1)
	assert.Equal(t, models.PosSyncRunCompleted, store.runs[0].Status)

	// Both endpoints were consulted before concluding there is no data.
	assert.NotEmpty(t, fetcher.branchCalls)
	assert.NotEmpty(t, fetcher.reportCalls)
}

func TestRunSyncFallbackEndpointRejectionIsNotFatal(t *testing.T) {
	store := newMemoryStore()
	fetcher := &fakeFetcher{}
	fetcher.reportFn = func(q pos.ReportQuery) (*pos.ReportResponse, error) {
		return nil, &pos.RequestError{Status: 404, Body: "Cannot POST /Report/get-report"}
	}
	svc := newSyncService(store, fetcher)

	res := svc.RunSync(models.PosSyncRunManual, "2025-01-01", "2025-01-05")

	assert.True(t, res.Success, "a deployment without the generic report endpoint still completes")
	assert.Contains(t, res.Message, "no transactions")
	require.Len(t, store.runs, 1)
	assert.Equal(t, models.PosSyncRunCompleted, store.runs[0].Status)
	assert.NotEmpty(t, fetcher.reportCalls, "the fallback endpoint was consulted")
}

func TestRunSyncFallbackAuthFailureIsFatal(t *testing.T) {
	store := newMemoryStore()
	fetcher := &fakeFetcher{}
	fetcher.reportFn = func(q pos.ReportQuery) (*pos.ReportResponse, error) {
		return nil, &pos.AuthError{Message: "invalid API key"}
	}
	svc := newSyncService(store, fetcher)

	res := svc.RunSync(models.PosSyncRunManual, "2025-01-01", "2025-01-05")

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "invalid API key")
	require.Len(t, store.runs, 1)
	assert.Equal(t, models.PosSyncRunFailed, store.runs[0].Status)
}

func TestRunSyncAuthFailure(t *testing.T) {
	store := newMemoryStore()
	fetcher := &fakeFetcher{}
	fetcher.branchFn = func(q pos.ReportQuery) (*pos.ReportResponse, error) {
		return nil, &pos.AuthError{Message: "invalid API key"}
	}
	svc := newSyncService(store, fetcher)

	res := svc.RunSync(models.PosSyncRunManual, "2025-01-01", "2025-01-05")

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "invalid API key")

	require.Len(t, store.runs, 1)
	run := store.runs[0]
	assert.Equal(t, models.PosSyncRunFailed, run.Status)
	assert.NotNil(t, run.CompletedAt)
	assert.Equal(t, 1, store.runUpdates[run.ID], "terminal state must be written exactly once")
}

func TestRunSyncUpstreamUnavailable(t *testing.T) {
	store := newMemoryStore()
	fetcher := &fakeFetcher{}
	fetcher.branchFn = func(q pos.ReportQuery) (*pos.ReportResponse, error) {
		return nil, &pos.UnavailableError{Status: 503}
	}
	svc := newSyncService(store, fetcher)

	res := svc.RunSync(models.PosSyncRunManual, "2025-01-01", "2025-01-05")

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "temporarily unavailable")
	assert.Equal(t, models.PosSyncRunFailed, store.runs[0].Status)
}

func TestRunSyncValidationShortCircuit(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *pos.RawSale)
		wantErr string
	}{
		{"missing dateTime", func(s *pos.RawSale) { s.TransactionDateTime = "" }, "missing transactionDateTime"},
		{"missing saleAmount", func(s *pos.RawSale) { s.SaleAmount = nil }, "missing saleAmount"},
		{"missing totalAmount", func(s *pos.RawSale) { s.TotalAmount = nil }, "missing totalAmount"},
		{"missing transactionType", func(s *pos.RawSale) { s.TransactionType = "" }, "missing transactionType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			sale := validSale("S-bad")
			tt.mutate(&sale)

			fetcher := &fakeFetcher{}
			fetcher.branchFn = func(q pos.ReportQuery) (*pos.ReportResponse, error) {
				return branchResponse(t, []pos.Branch{{Sales: []pos.RawSale{sale}}}), nil
			}
			svc := newSyncService(store, fetcher)

			res := svc.RunSync(models.PosSyncRunManual, "2025-01-01", "2025-01-05")

			assert.True(t, res.Success, "a bad record must not fail the run")
			assert.Equal(t, 1, res.Processed)
			assert.Equal(t, 0, res.Created)
			require.Len(t, res.Errors, 1, "exactly one error entry per skipped sale")
			assert.Contains(t, res.Errors[0], tt.wantErr)
			assert.Empty(t, store.txs)
		})
	}
}

func TestRunSyncBlankAmountCoercesToZero(t *testing.T) {
	store := newMemoryStore()
	sale := validSale("S-blank")
	sale.SaleAmount = amountPtr("")

	fetcher := &fakeFetcher{}
	fetcher.branchFn = func(q pos.ReportQuery) (*pos.ReportResponse, error) {
		return branchResponse(t, []pos.Branch{{Sales: []pos.RawSale{sale}}}), nil
	}
	svc := newSyncService(store, fetcher)

	res := svc.RunSync(models.PosSyncRunManual, "2025-01-01", "2025-01-05")

	assert.Equal(t, 1, res.Created)
	require.NotNil(t, store.txs["S-blank"])
	assert.True(t, store.txs["S-blank"].SaleAmount.IsZero())
}

func TestRunSyncPersistenceFailureContinues(t *testing.T) {
	store := newMemoryStore()
	store.failCreateTx = fmt.Errorf("duplicate key value violates unique constraint")

	fetcher := &fakeFetcher{}
	fetcher.branchFn = func(q pos.ReportQuery) (*pos.ReportResponse, error) {
		return branchResponse(t, []pos.Branch{{Sales: []pos.RawSale{validSale("S-1"), validSale("S-2")}}}), nil
	}
	svc := newSyncService(store, fetcher)

	res := svc.RunSync(models.PosSyncRunManual, "2025-01-01", "2025-01-05")

	assert.True(t, res.Success, "per-record persistence failures do not fail the run")
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 0, res.Created)
	assert.Len(t, res.Errors, 2)
	assert.Equal(t, models.PosSyncRunCompleted, store.runs[0].Status)
}

func TestRunSyncGuards(t *testing.T) {
	t.Run("no configuration", func(t *testing.T) {
		store := newMemoryStore()
		svc := NewPosSyncService(store, NewPosConfigService(store))

		res := svc.RunSync(models.PosSyncRunManual, "", "")

		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "not configured")
		assert.Empty(t, store.runs, "guard path must not write an audit row")
	})

	t.Run("sync disabled", func(t *testing.T) {
		store := newMemoryStore()
		svc := newSyncService(store, &fakeFetcher{})
		store.cfg.AutoSyncEnabled = false

		res := svc.RunSync(models.PosSyncRunManual, "", "")

		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "disabled")
		assert.Empty(t, store.runs)
	})
}

func TestRunSyncSwapsInvertedWindow(t *testing.T) {
	store := newMemoryStore()
	svc := newSyncService(store, &fakeFetcher{})

	svc.RunSync(models.PosSyncRunManual, "2025-03-10", "2025-03-01")

	require.Len(t, store.runs, 1)
	assert.Equal(t, "2025-03-01", store.runs[0].StartDate)
	assert.Equal(t, "2025-03-10", store.runs[0].EndDate)
}

func TestRunSyncChunksLongWindows(t *testing.T) {
	store := newMemoryStore()
	fetcher := &fakeFetcher{}
	svc := newSyncService(store, fetcher)

	svc.RunSync(models.PosSyncRunManual, "2025-01-01", "2025-02-15")

	// 46 days split into 30 + 16.
	require.Len(t, fetcher.branchCalls, 2)
	assert.Equal(t, "2025-01-01", fetcher.branchCalls[0].From)
	assert.Equal(t, "2025-01-30", fetcher.branchCalls[0].To)
	assert.Equal(t, "2025-01-31", fetcher.branchCalls[1].From)
	assert.Equal(t, "2025-02-15", fetcher.branchCalls[1].To)
}

func TestRunSyncAdvancedPagination(t *testing.T) {
	store := newMemoryStore()
	fetcher := &fakeFetcher{}
	fetcher.branchFn = func(q pos.ReportQuery) (*pos.ReportResponse, error) {
		resp := branchResponse(t, []pos.Branch{{
			Sales: []pos.RawSale{validSale(fmt.Sprintf("S-p%d", q.Page))},
		}})
		resp.Pagination = &pos.Pagination{Page: q.Page, TotalPages: 5}
		return resp, nil
	}
	svc := newSyncService(store, fetcher)

	res := svc.RunSyncAdvanced(models.PosSyncRunManual, AdvancedSyncOptions{
		FromDate:   "2025-01-01",
		ToDate:     "2025-01-10",
		MaxPages:   2,
		LocationID: "LOC-1",
	})

	assert.True(t, res.Success)
	assert.Equal(t, 5, res.TotalPages)
	assert.Equal(t, 2, res.PagesProcessed, "maxPages must bound the page loop")
	assert.Equal(t, 2, res.Created)

	require.Len(t, fetcher.branchCalls, 2)
	assert.Equal(t, 1, fetcher.branchCalls[0].Page)
	assert.Equal(t, 2, fetcher.branchCalls[1].Page)
	assert.Equal(t, "LOC-1", fetcher.branchCalls[0].LocationID)
}

func TestMapUpstreamStatus(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		known bool
	}{
		{"SUCCESSFUL", models.PosTransactionCompleted, true},
		{"successful", models.PosTransactionCompleted, true},
		{"FAILED", models.PosTransactionFailed, true},
		{"PENDING", models.PosTransactionPending, true},
		{"UNKNOWN", models.PosTransactionFailed, false},
		{"", models.PosTransactionFailed, false},
	}

	for _, tt := range tests {
		got, known := mapUpstreamStatus(tt.in)
		assert.Equal(t, tt.want, got, "status %q", tt.in)
		assert.Equal(t, tt.known, known, "status %q", tt.in)
	}
}

func TestRunSyncStoresUnknownStatusAsFailed(t *testing.T) {
	store := newMemoryStore()
	sale := validSale("S-odd")
	sale.Status = "REVERSED"

	fetcher := &fakeFetcher{}
	fetcher.branchFn = func(q pos.ReportQuery) (*pos.ReportResponse, error) {
		return branchResponse(t, []pos.Branch{{Sales: []pos.RawSale{sale}}}), nil
	}
	svc := newSyncService(store, fetcher)

	res := svc.RunSync(models.PosSyncRunManual, "2025-01-01", "2025-01-05")

	assert.Equal(t, 1, res.Created)
	require.NotNil(t, store.txs["S-odd"])
	assert.Equal(t, models.PosTransactionFailed, store.txs["S-odd"].Status)
}

func TestResolveWindow(t *testing.T) {
	from, to := resolveWindow("2025-01-05", "2025-01-01")
	assert.Equal(t, "2025-01-01", from)
	assert.Equal(t, "2025-01-05", to)

	from, to = resolveWindow("2025/01/01", "also-bad")
	assert.True(t, isStrictDate(from))
	assert.True(t, isStrictDate(to))
	assert.LessOrEqual(t, from, to)

	assert.False(t, isStrictDate("2025-1-1"))
	assert.False(t, isStrictDate("2025-13-40"))
	assert.True(t, isStrictDate("2025-12-31"))
}
