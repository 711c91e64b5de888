package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"bizops/models"
	"bizops/providers/pos"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	// Upstream rejects ranges longer than 30 days.
	maxChunkDays = 30

	defaultLookbackDays = 7
	defaultMaxPages     = 10

	// Fixed pause between successive pages, to stay under the upstream
	// rate limit. Not adaptive.
	interPageDelay = 500 * time.Millisecond

	maxRawSampleLen = 4096
)

var strictDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type SyncResult struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	Processed      int      `json:"processedTransactions"`
	Created        int      `json:"createdTransactions"`
	Errors         []string `json:"errors"`
	TotalPages     int      `json:"totalPages,omitempty"`
	PagesProcessed int      `json:"pagesProcessed,omitempty"`
}

type AdvancedSyncOptions struct {
	FromDate        string `json:"fromDate"`
	ToDate          string `json:"toDate"`
	LocationID      string `json:"locationId"`
	SerialNumber    string `json:"serialNumber"`
	TransactionType string `json:"typeTransaction"`
	CardBrand       string `json:"cardBrand"`
	MaxPages        int    `json:"maxPages"`
	PageSize        int    `json:"pageSize"`
}

// PosSyncService reconciles terminal transactions from the payment API into
// the local ledger. Each invocation is one audited run; a failed run is not
// retried internally, the next scheduler tick or manual call re-invokes it.
type PosSyncService struct {
	store     SyncStore
	config    *PosConfigService
	pageDelay time.Duration
}

func NewPosSyncService(store SyncStore, config *PosConfigService) *PosSyncService {
	return &PosSyncService{store: store, config: config, pageDelay: interPageDelay}
}

// runState accumulates counters and diagnostics across one run.
type runState struct {
	run            *models.PosSyncRun
	processed      int
	created        int
	errs           []string
	lastRaw        []byte
	sawData        bool
	totalPages     int
	pagesProcessed int
}

func (st *runState) addError(msg string) {
	st.errs = append(st.errs, msg)
}

func (s *PosSyncService) RunSync(kind, fromDate, toDate string) SyncResult {
	return s.runOnce(kind, AdvancedSyncOptions{FromDate: fromDate, ToDate: toDate}, false)
}

func (s *PosSyncService) RunSyncAdvanced(kind string, opts AdvancedSyncOptions) SyncResult {
	return s.runOnce(kind, opts, true)
}

func (s *PosSyncService) runOnce(kind string, opts AdvancedSyncOptions, paginated bool) SyncResult {
	fetcher, _, err := s.config.Fetcher()
	if err != nil {
		// Guard path: no audit row is written for an unconfigured or
		// disabled subsystem.
		return SyncResult{Success: false, Message: err.Error(), Errors: []string{}}
	}

	from, to := resolveWindow(opts.FromDate, opts.ToDate)

	st := &runState{run: &models.PosSyncRun{
		Kind:      kind,
		Status:    models.PosSyncRunRunning,
		StartDate: from,
		EndDate:   to,
		StartedAt: time.Now(),
	}}
	if err := s.store.CreateRun(st.run); err != nil {
		return SyncResult{Success: false, Message: fmt.Sprintf("failed to create sync run: %v", err), Errors: []string{}}
	}

	log.Printf("🟡 POS sync run %d started (%s, %s → %s)", st.run.ID, kind, from, to)

	if err := s.fetchWindow(fetcher, st, from, to, opts, paginated); err != nil {
		return s.finishFailed(st, err)
	}
	return s.finishCompleted(st)
}

func (s *PosSyncService) fetchWindow(fetcher ReportFetcher, st *runState, from, to string, opts AdvancedSyncOptions, paginated bool) error {
	for _, chunk := range ChunkDateRange(from, to, maxChunkDays) {
		if paginated {
			if err := s.fetchChunkPaginated(fetcher, st, chunk, opts); err != nil {
				return err
			}
			continue
		}
		if err := s.fetchChunk(fetcher, st, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *PosSyncService) fetchChunk(fetcher ReportFetcher, st *runState, chunk DateChunk) error {
	resp, err := fetcher.FetchBranchReport(pos.ReportQuery{From: chunk.From, To: chunk.To})
	if err != nil {
		return err
	}
	if s.processResponse(st, resp) > 0 {
		return nil
	}

	// Some upstream deployments only answer on the generic report endpoint;
	// its transaction rows normalize through the alternate path. Deployments
	// without that endpoint reject the call outright, which is still just
	// "no data" for the chunk; auth and 5xx failures stay fatal.
	resp, err = fetcher.FetchReport(pos.ReportQuery{From: chunk.From, To: chunk.To})
	if err != nil {
		var reqErr *pos.RequestError
		if errors.As(err, &reqErr) {
			log.Printf("🟡 POS sync: report endpoint rejected chunk %s → %s (status %d)", chunk.From, chunk.To, reqErr.Status)
			return nil
		}
		return err
	}
	if s.processResponse(st, resp) == 0 {
		log.Printf("🟡 POS sync: no data for chunk %s → %s", chunk.From, chunk.To)
	}
	return nil
}

func (s *PosSyncService) fetchChunkPaginated(fetcher ReportFetcher, st *runState, chunk DateChunk, opts AdvancedSyncOptions) error {
	maxPages := opts.MaxPages
	if maxPages < 1 {
		maxPages = defaultMaxPages
	}

	page := 1
	for {
		resp, err := fetcher.FetchBranchReport(pos.ReportQuery{
			From:            chunk.From,
			To:              chunk.To,
			Page:            page,
			PageSize:        opts.PageSize,
			LocationID:      opts.LocationID,
			SerialNumber:    opts.SerialNumber,
			TransactionType: opts.TransactionType,
			CardBrand:       opts.CardBrand,
		})
		if err != nil {
			return err
		}
		s.processResponse(st, resp)
		st.pagesProcessed++

		totalPages := 1
		if resp.Pagination != nil && resp.Pagination.TotalPages > 0 {
			totalPages = resp.Pagination.TotalPages
		}
		if totalPages > st.totalPages {
			st.totalPages = totalPages
		}

		// maxPages bounds the loop against a misbehaving upstream.
		if page >= totalPages || page >= maxPages {
			return nil
		}
		page++
		time.Sleep(s.pageDelay)
	}
}

// processResponse normalizes one upstream payload and reconciles every sale
// in it. Returns the number of branches found; zero is the non-fatal
// "no data" signal.
func (s *PosSyncService) processResponse(st *runState, resp *pos.ReportResponse) int {
	st.lastRaw = resp.Raw
	branches, shape := pos.Normalize(resp.Data)
	if len(branches) == 0 {
		return 0
	}
	log.Printf("🟢 POS sync: %d branch(es) in response (shape=%s)", len(branches), shape)
	st.sawData = true
	for _, branch := range branches {
		for _, sale := range branch.Sales {
			s.processSale(st, branch, sale)
		}
	}
	return len(branches)
}

// processSale validates and upserts one sale. A bad record never aborts the
// run: every failure is appended to the run's error list and processing
// continues with the next sale.
func (s *PosSyncService) processSale(st *runState, branch pos.Branch, sale pos.RawSale) {
	st.processed++

	externalID := pos.SaleExternalID(sale)
	if externalID == "" {
		st.addError("sale skipped: no usable identifier")
		return
	}
	if sale.TransactionDateTime == "" {
		st.addError(fmt.Sprintf("sale %s skipped: missing transactionDateTime", externalID))
		return
	}
	if sale.SaleAmount == nil {
		st.addError(fmt.Sprintf("sale %s skipped: missing saleAmount", externalID))
		return
	}
	if sale.TotalAmount == nil {
		st.addError(fmt.Sprintf("sale %s skipped: missing totalAmount", externalID))
		return
	}
	if sale.TransactionType == "" {
		st.addError(fmt.Sprintf("sale %s skipped: missing transactionType", externalID))
		return
	}

	exists, err := s.store.TransactionExists(externalID)
	if err != nil {
		st.addError(fmt.Sprintf("sale %s: lookup failed: %v", externalID, err))
		return
	}
	if exists {
		// Already reconciled by an earlier run: processed, not created.
		return
	}

	occurredAt, err := models.ParsePosTime(sale.TransactionDateTime)
	if err != nil {
		st.addError(fmt.Sprintf("sale %s: unparseable transactionDateTime %q", externalID, sale.TransactionDateTime))
		return
	}

	status, known := mapUpstreamStatus(sale.Status)
	if !known {
		log.Printf("⚠️  POS sync: unrecognized upstream status %q on sale %s, storing as FAILED", sale.Status, externalID)
	}

	tx := &models.PosTransaction{
		ExternalID:     externalID,
		SequenceNumber: optionalString(sale.SequenceNumber),
		SerialNumber:   optionalString(sale.SerialNumber),
		LocationID:     optionalString(branch.Location.ID),
		Address:        optionalString(branch.Location.Address),
		Status:         status,
		OccurredAt:     models.PosTime{Time: occurredAt},
		Kind:           sale.TransactionType,
		SaleAmount:     parseAmount(sale.SaleAmount),
		TotalAmount:    parseAmount(sale.TotalAmount),
		Items:          mapProducts(sale.Products),
	}
	if err := s.store.CreateTransaction(tx, st.run); err != nil {
		log.Printf("❌ Failed to save POS transaction %s (serial=%s, total=%s): %v",
			externalID, sale.SerialNumber, sale.TotalAmount.String(), err)
		st.addError(fmt.Sprintf("sale %s: insert failed: %v", externalID, err))
		return
	}
	st.created++
}

func (s *PosSyncService) finishCompleted(st *runState) SyncResult {
	msg := fmt.Sprintf("sync completed: %d processed, %d created", st.processed, st.created)
	if !st.sawData {
		msg = fmt.Sprintf("no transactions found for %s → %s", st.run.StartDate, st.run.EndDate)
	}
	s.closeRun(st, models.PosSyncRunCompleted)
	log.Printf("✅ POS sync run %d completed: %d processed, %d created, %d errors",
		st.run.ID, st.processed, st.created, len(st.errs))
	return s.result(st, true, msg)
}

func (s *PosSyncService) finishFailed(st *runState, cause error) SyncResult {
	msg := failureMessage(cause)
	st.addError(msg)
	s.closeRun(st, models.PosSyncRunFailed)
	log.Printf("❌ POS sync run %d failed: %v", st.run.ID, cause)
	return s.result(st, false, msg)
}

func (s *PosSyncService) result(st *runState, success bool, msg string) SyncResult {
	errs := st.errs
	if errs == nil {
		errs = []string{}
	}
	return SyncResult{
		Success:        success,
		Message:        msg,
		Processed:      st.processed,
		Created:        st.created,
		Errors:         errs,
		TotalPages:     st.totalPages,
		PagesProcessed: st.pagesProcessed,
	}
}

// closeRun transitions the run to its terminal state exactly once, attaching
// counters, the error list and a sample of the last upstream payload.
func (s *PosSyncService) closeRun(st *runState, status string) {
	now := time.Now()
	st.run.Status = status
	st.run.CompletedAt = &now
	st.run.TotalProcessed = st.processed
	st.run.TotalCreated = st.created
	st.run.TotalErrors = len(st.errs)

	if b, err := json.Marshal(st.errs); err == nil {
		st.run.ErrorDetails = datatypes.JSON(b)
	}
	if len(st.lastRaw) > 0 {
		sample := st.lastRaw
		if len(sample) > maxRawSampleLen {
			sample = sample[:maxRawSampleLen]
		}
		if json.Valid(sample) {
			st.run.RawResponseSample = datatypes.JSON(sample)
		} else if b, err := json.Marshal(string(sample)); err == nil {
			st.run.RawResponseSample = datatypes.JSON(b)
		}
	}

	if err := s.store.UpdateRun(st.run); err != nil {
		log.Printf("❌ Failed to finalize POS sync run %d: %v", st.run.ID, err)
	}
}

func failureMessage(err error) string {
	var authErr *pos.AuthError
	var unavailErr *pos.UnavailableError
	switch {
	case errors.As(err, &authErr):
		return "invalid API key"
	case errors.As(err, &unavailErr):
		return "POS service temporarily unavailable"
	default:
		return err.Error()
	}
}

// resolveWindow returns the effective [from, to] date pair: explicit strict
// YYYY-MM-DD arguments when valid, last 7 days through today otherwise.
// Inverted bounds are swapped.
func resolveWindow(fromDate, toDate string) (string, string) {
	now := time.Now()
	from := now.AddDate(0, 0, -defaultLookbackDays).Format(dateLayout)
	to := now.Format(dateLayout)

	if isStrictDate(fromDate) {
		from = fromDate
	}
	if isStrictDate(toDate) {
		to = toDate
	}
	if from > to {
		from, to = to, from
	}
	return from, to
}

func isStrictDate(s string) bool {
	if !strictDateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

func mapUpstreamStatus(status string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "SUCCESSFUL":
		return models.PosTransactionCompleted, true
	case "FAILED":
		return models.PosTransactionFailed, true
	case "PENDING":
		return models.PosTransactionPending, true
	default:
		return models.PosTransactionFailed, false
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseAmount coerces blank or malformed amounts to zero. Absence (nil) is
// rejected earlier in validation; blank is a legitimate zero.
func parseAmount(a *pos.Amount) decimal.Decimal {
	if a == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSpace(a.String()))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func mapProducts(products []pos.Product) []models.PosTransactionItem {
	items := make([]models.PosTransactionItem, 0, len(products))
	for _, p := range products {
		qty := p.Quantity
		if qty < 1 {
			qty = 1
		}
		items = append(items, models.PosTransactionItem{
			Code:     optionalString(p.Code),
			Name:     p.Name,
			Quantity: qty,
			Price:    parseAmount(p.Price),
		})
	}
	return items
}
