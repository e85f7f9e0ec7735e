package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// maxImportSize bounds the size of an imported backup.
const maxImportSize = 10 << 20

var (
	errMissingSymbols  = errors.New("missing symbols")
	errMissingSymbol   = errors.New("missing symbol")
	errNoHoldingSource = errors.New("fund holdings are not available")
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// refresher returns the refresher asked by the "fallback" query parameter.
func (s *Server) refresher(r *http.Request) (*folio.Refresher, error) {
	v := r.URL.Query().Get("fallback")
	if v == "" {
		return s.prices, nil
	}
	fallback, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("invalid fallback %q: %w", v, err)
	}
	if fallback {
		return s.fallback, nil
	}
	return s.prices, nil
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	symbols := folio.ParseSymbols(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, errMissingSymbols)
		return
	}
	refresher, err := s.refresher(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	results := refresher.Refresh(r.Context(), symbols)
	writeJSON(w, http.StatusOK, map[string]any{"prices": results})
}

func (s *Server) handleSymbolLookup(w http.ResponseWriter, r *http.Request) {
	symbol := folio.NormalizeSymbol(r.URL.Query().Get("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, errMissingSymbol)
		return
	}
	writeJSON(w, http.StatusOK, s.lookup.Resolve(r.Context(), symbol))
}

func (s *Server) handleEtfHoldings(w http.ResponseWriter, r *http.Request) {
	symbols := folio.ParseSymbols(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, errMissingSymbols)
		return
	}
	if s.holdings == nil {
		writeError(w, http.StatusNotImplemented, errNoHoldingSource)
		return
	}
	holdings := folio.FetchHoldings(r.Context(), s.log, s.holdings, symbols)
	writeJSON(w, http.StatusOK, map[string]any{"holdings": holdings})
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets := s.store.Assets()
	if assets == nil {
		assets = []folio.Asset{}
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var a folio.Asset
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid asset: %w", err))
		return
	}
	if s.lookup != nil && (a.Price.IsZero() || a.Type == "" || a.Location == "") {
		a, _ = s.lookup.Complete(r.Context(), a)
	}
	created, err := s.store.Add(a)
	switch {
	case errors.Is(err, folio.ErrDuplicateID):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// assetPatch is the body of an asset update, absent fields are left untouched.
type assetPatch struct {
	Symbol   *string          `json:"symbol"`
	Quantity *decimal.Decimal `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
	Type     *folio.AssetType `json:"type"`
	Location *folio.Location  `json:"location"`
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var patch assetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid asset: %w", err))
		return
	}
	updated, err := s.store.Update(id, folio.AssetPatch(patch))
	switch {
	case errors.Is(err, folio.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.Remove(id); err != nil {
		if errors.Is(err, folio.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// defaultTop is the number of top assets of a summary.
const defaultTop = 5

type summaryResponse struct {
	TotalValue  json.Number        `json:"totalValue"`
	Assets      []folio.Asset      `json:"assets"`
	ByType      []folio.Allocation `json:"byType"`
	ByLocation  []folio.Allocation `json:"byLocation"`
	Top         []folio.Asset      `json:"top"`
	LastUpdated *int64             `json:"lastUpdated"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	top := defaultTop
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid top %q", v))
			return
		}
		top = n
	}
	st := s.store.State()
	summary := folio.Summarize(st.Assets)
	writeJSON(w, http.StatusOK, summaryResponse{
		TotalValue:  json.Number(summary.TotalValue.String()),
		Assets:      nonNil(summary.Assets),
		ByType:      folio.GroupByType(st.Assets),
		ByLocation:  folio.GroupByLocation(st.Assets),
		Top:         nonNil(folio.TopN(st.Assets, top)),
		LastUpdated: millis(st.LastUpdated),
	})
}

func nonNil(assets []folio.Asset) []folio.Asset {
	if assets == nil {
		return []folio.Asset{}
	}
	return assets
}

func parseRemainder(v string) (folio.RemainderPolicy, error) {
	switch strings.ToLower(v) {
	case "", folio.DropRemainder.String():
		return folio.DropRemainder, nil
	case folio.AttributeRemainder.String():
		return folio.AttributeRemainder, nil
	}
	return 0, fmt.Errorf("invalid remainder %q, want drop or attribute", v)
}

func (s *Server) handleLookThrough(w http.ResponseWriter, r *http.Request) {
	policy, err := parseRemainder(r.URL.Query().Get("remainder"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.holdings == nil {
		writeError(w, http.StatusNotImplemented, errNoHoldingSource)
		return
	}
	assets := s.store.Assets()
	holdings := folio.FetchHoldings(r.Context(), s.log, s.holdings, folio.EtfCandidates(assets))
	exposures := folio.LookThrough{Remainder: policy}.Exposures(assets, holdings)
	if exposures == nil {
		exposures = []folio.Exposure{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalValue": json.Number(folio.Total(assets).String()),
		"remainder":  policy.String(),
		"exposures":  exposures,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refresher, err := s.refresher(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	results := refresher.Refresh(r.Context(), s.store.Symbols())
	n := s.store.ApplyPrices(results)
	writeJSON(w, http.StatusOK, map[string]any{
		"prices":      results,
		"updated":     n,
		"lastUpdated": millis(s.store.LastUpdated()),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", folio.ExportFilename(date.Today())))
	if err := folio.ExportAssets(w, s.store.Assets()); err != nil {
		s.log.Error().Err(err).Msg("cannot export assets")
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	assets, err := folio.ImportAssets(http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.Replace(assets, time.Time{}); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(assets)})
}

// handleClearState deletes every asset and the state file.
func (s *Server) handleClearState(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Replace(nil, time.Time{}); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if s.stateFile != "" {
		s.saveMu.Lock()
		err := folio.ClearState(s.stateFile)
		s.saveMu.Unlock()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	// no broadcast between the registration and the first snapshot
	s.feedMu.Lock()
	s.hub.AddClient(conn)
	cur := s.store.Current()
	cur.Kind = initial
	err = s.hub.SendJSON(conn, newSnapshot(cur))
	s.feedMu.Unlock()
	defer s.hub.RemoveClient(conn)
	if err != nil {
		return
	}
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
