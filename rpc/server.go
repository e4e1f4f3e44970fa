// Package rpc exposes the ledger's query and command surfaces over HTTP. The
// server is the host boundary from the ledger's point of view: it supplies
// the authenticated caller identity, serialises command execution, journals
// emitted events in order, and persists a state snapshot after every accepted
// command.
package rpc

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"entledger/core/events"
	"entledger/core/types"
	"entledger/ledger"
	"entledger/observability/metrics"
	"entledger/storage"
)

// Server binds a ledger instance to HTTP.
type Server struct {
	mu       sync.Mutex
	ledger   *ledger.Ledger
	recorder *events.Recorder
	store    *storage.Store
	logger   *slog.Logger
	metrics  *metrics.LedgerMetrics
}

// NewServer wires the ledger, its event recorder, and the backing store. The
// recorder must be the emitter the ledger was constructed with; the server
// drains it after every command to journal the events in emission order.
func NewServer(l *ledger.Ledger, recorder *events.Recorder, store *storage.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		ledger:   l,
		recorder: recorder,
		store:    store,
		logger:   logger,
		metrics:  metrics.Ledger(),
	}
}

// JournalPending drains events already recorded outside the command path
// (the construction mint) and appends them to the journal along with a fresh
// snapshot. The daemon calls this once after constructing a new ledger.
func (s *Server) JournalPending() error {
	s.mu.Lock()
	emitted := s.recorder.Drain()
	persistErr := s.persistSnapshot()
	s.journal(emitted)
	s.mu.Unlock()
	s.metrics.SetTotalSupply(s.ledger.TotalSupply())
	return persistErr
}

// Handler assembles the chi router for the full RPC surface.
func (s *Server) Handler(limiter *RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	if limiter != nil {
		r.Use(limiter.Middleware())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/token", s.handleToken)
		v1.Get("/accounts/{address}/balance", s.handleBalance)
		v1.Get("/accounts/{address}/flags", s.handleFlags)
		v1.Get("/allowance", s.handleAllowance)
		v1.Get("/events", s.handleEvents)

		v1.Post("/transfer", s.command("transfer", s.cmdTransfer))
		v1.Post("/approve", s.command("approve", s.cmdApprove))
		v1.Post("/transfer-from", s.command("transfer_from", s.cmdTransferFrom))
		v1.Post("/issue", s.command("issue", s.cmdIssue))
		v1.Post("/redeem", s.command("redeem", s.cmdRedeem))
		v1.Post("/params", s.command("set_params", s.cmdSetParams))
		v1.Post("/ownership", s.command("transfer_ownership", s.cmdTransferOwnership))
		v1.Post("/privacy", s.command("set_account_private", s.cmdSetAccountPrivate))
		v1.Post("/blacklist/add", s.command("add_account_to_blacklist", s.cmdAddToBlacklist))
		v1.Post("/blacklist/remove", s.command("remove_account_from_blacklist", s.cmdRemoveFromBlacklist))
		v1.Post("/destroy-black-funds", s.command("destroy_black_funds", s.cmdDestroyBlackFunds))
	})
	return r
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

type commandResponse struct {
	Status string         `json:"status"`
	Events []*types.Event `json:"events"`
}

// command wraps a handler with caller extraction, single-flight execution,
// event journaling, snapshot persistence, and metrics.
func (s *Server) command(op string, handle func(caller types.AccountID, body []byte) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), RequestID: requestIDFrom(r.Context())})
			return
		}
		body, err := readBody(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), RequestID: requestIDFrom(r.Context())})
			return
		}

		s.mu.Lock()
		cmdErr := handle(caller, body)
		var inErr *inputError
		if errors.As(cmdErr, &inErr) {
			s.mu.Unlock()
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: inErr.Error(), RequestID: requestIDFrom(r.Context())})
			return
		}
		emitted := s.recorder.Drain()
		var persistErr error
		if cmdErr == nil {
			persistErr = s.persistSnapshot()
		}
		// Journal before releasing the lock so the durable order matches the
		// emission order across concurrent requests.
		journaled := s.journal(emitted)
		supply := s.ledger.TotalSupply()
		s.mu.Unlock()

		if persistErr != nil {
			s.logger.Error("snapshot persist failed", "op", op, "err", persistErr)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "snapshot persistence failed", RequestID: requestIDFrom(r.Context())})
			return
		}
		if cmdErr != nil {
			code := ledger.Code(cmdErr)
			s.metrics.ObserveCommand(op, code)
			s.logger.Info("command rejected", "op", op, "caller", caller.String(), "code", code)
			writeJSON(w, statusFor(cmdErr), errorResponse{Error: code, RequestID: requestIDFrom(r.Context())})
			return
		}

		s.metrics.ObserveCommand(op, "ok")
		s.metrics.SetTotalSupply(supply)
		s.logger.Info("command accepted", "op", op, "caller", caller.String(), "events", len(journaled))
		writeJSON(w, http.StatusOK, commandResponse{Status: "ok", Events: journaled})
	}
}

// journal appends the drained events to the durable log in emission order and
// returns their broadcast form.
func (s *Server) journal(emitted []events.Event) []*types.Event {
	out := make([]*types.Event, 0, len(emitted))
	for _, evt := range emitted {
		payload := evt.Event()
		out = append(out, payload)
		s.metrics.ObserveEvent(payload.Type)
		if s.store == nil {
			continue
		}
		if _, err := s.store.AppendEvent(payload); err != nil {
			s.logger.Error("event journal append failed", "type", payload.Type, "err", err)
		}
	}
	return out
}

func (s *Server) persistSnapshot() error {
	if s.store == nil {
		return nil
	}
	snapshot, err := s.ledger.Snapshot()
	if err != nil {
		return err
	}
	return s.store.PutSnapshot(snapshot)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrInsufficientBalance), errors.Is(err, ledger.ErrInsufficientAllowance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrAccountNotBlackListed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
