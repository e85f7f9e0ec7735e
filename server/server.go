// Package server exposes a portfolio store over HTTP, with a websocket feed of its changes.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/etnz/folio"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Config holds what a Server serves.
type Config struct {
	Store *folio.Store
	// StateFile, when set, is rewritten after every change of Store.
	StateFile string
	// Prices resolves prices for refreshes, Fallback is the whole chain of providers, used for
	// lookups and when a request asks for it. Prices defaults to Fallback.
	Prices   *folio.Resolver
	Fallback *folio.Resolver
	// Holdings may be nil, then look-through routes answer 501.
	Holdings folio.HoldingsSource
	// Delay between two symbols of a refresh, folio.DefaultRefreshDelay if zero.
	Delay time.Duration
	Log   zerolog.Logger
}

type Server struct {
	store     *folio.Store
	stateFile string
	prices    *folio.Refresher
	fallback  *folio.Refresher
	lookup    *folio.Resolver
	holdings  folio.HoldingsSource
	hub       *Hub
	router    *mux.Router
	upgrader  websocket.Upgrader
	log       zerolog.Logger

	saveMu      sync.Mutex
	unsubscribe func()

	// feedMu orders the messages of the websocket feed. lastSeq is the store sequence of the
	// latest broadcast snapshot.
	feedMu  sync.Mutex
	lastSeq uint64
}

// New returns a server for cfg. It observes the store until Close is called.
func New(cfg Config) *Server {
	prices := cfg.Prices
	if prices == nil {
		prices = cfg.Fallback
	}
	server := &Server{
		store:     cfg.Store,
		stateFile: cfg.StateFile,
		prices:    &folio.Refresher{Resolver: prices, Delay: cfg.Delay, Log: cfg.Log},
		fallback:  &folio.Refresher{Resolver: cfg.Fallback, Delay: cfg.Delay, Log: cfg.Log},
		lookup:    cfg.Fallback,
		holdings:  cfg.Holdings,
		hub:       NewHub(),
		log:       cfg.Log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/api/health", server.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/prices", server.handlePrices).Methods(http.MethodGet)
	r.HandleFunc("/api/symbol-lookup", server.handleSymbolLookup).Methods(http.MethodGet)
	r.HandleFunc("/api/etf-holdings", server.handleEtfHoldings).Methods(http.MethodGet)
	r.HandleFunc("/api/assets", server.handleListAssets).Methods(http.MethodGet)
	r.HandleFunc("/api/assets", server.handleCreateAsset).Methods(http.MethodPost)
	r.HandleFunc("/api/assets/{id}", server.handleUpdateAsset).Methods(http.MethodPut)
	r.HandleFunc("/api/assets/{id}", server.handleDeleteAsset).Methods(http.MethodDelete)
	r.HandleFunc("/api/summary", server.handleSummary).Methods(http.MethodGet)
	r.HandleFunc("/api/lookthrough", server.handleLookThrough).Methods(http.MethodGet)
	r.HandleFunc("/api/refresh", server.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/api/export", server.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/api/import", server.handleImport).Methods(http.MethodPost)
	r.HandleFunc("/api/state", server.handleClearState).Methods(http.MethodDelete)
	r.HandleFunc("/ws", server.handleWebSocket).Methods(http.MethodGet)
	// preflight requests, answered by the middleware.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	server.router = r
	server.unsubscribe = cfg.Store.Subscribe(server.onChange)
	return server
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops observing the store.
func (s *Server) Close() {
	s.unsubscribe()
}

func (s *Server) onChange(c folio.Change) {
	s.persist()
	s.broadcast(c.Kind)
}

// broadcast sends the current portfolio to every client. Observers run concurrently, so a change
// may be notified after a later one: the feed always sends the latest state and never goes back
// to an older sequence.
func (s *Server) broadcast(kind folio.ChangeKind) {
	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	cur := s.store.Current()
	if cur.Seq <= s.lastSeq {
		return
	}
	s.lastSeq = cur.Seq
	cur.Kind = kind
	s.hub.BroadcastJSON(newSnapshot(cur))
}

func (s *Server) persist() {
	if s.stateFile == "" {
		return
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if err := folio.SaveState(s.stateFile, s.store); err != nil {
		s.log.Error().Err(err).Str("file", s.stateFile).Msg("cannot persist state")
	}
}

// initial is the kind of the snapshot sent to a client when it connects.
const initial folio.ChangeKind = "snapshot"

// snapshot is the message of the websocket feed: the whole portfolio.
type snapshot struct {
	Kind        folio.ChangeKind `json:"kind"`
	Seq         uint64           `json:"seq"`
	TotalValue  json.Number      `json:"totalValue"`
	Assets      []folio.Asset    `json:"assets"`
	LastUpdated *int64           `json:"lastUpdated"`
}

func newSnapshot(c folio.Change) snapshot {
	assets := c.Assets
	if assets == nil {
		assets = []folio.Asset{}
	}
	return snapshot{
		Kind:        c.Kind,
		Seq:         c.Seq,
		TotalValue:  json.Number(folio.Total(assets).String()),
		Assets:      assets,
		LastUpdated: millis(c.LastUpdated),
	}
}

// millis returns t in milliseconds since the epoch, nil for the zero time.
func millis(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartPolling refreshes the prices of the store every interval, until ctx is done.
func (s *Server) StartPolling(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			results := s.prices.Refresh(ctx, s.store.Symbols())
			if ctx.Err() != nil {
				return
			}
			n := s.store.ApplyPrices(results)
			s.log.Debug().Int("updated", n).Msg("prices polled")
		}
	}
}
