package rpc

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"entledger/core/types"
)

const maxBodyBytes = 1 << 16

// inputError marks malformed request payloads so the command wrapper can
// answer 400 without touching the ledger's failure taxonomy.
type inputError struct {
	op  string
	err error
}

func (e *inputError) Error() string { return fmt.Sprintf("%s: %v", e.op, e.err) }

func (e *inputError) Unwrap() error { return e.err }

func badRequest(op string, err error) error { return &inputError{op: op, err: err} }

func callerFrom(r *http.Request) (types.AccountID, error) {
	raw := strings.TrimSpace(r.Header.Get(CallerHeader))
	if raw == "" {
		return types.AccountID{}, fmt.Errorf("missing %s header", CallerHeader)
	}
	caller, err := types.ParseAccountID(raw)
	if err != nil {
		return types.AccountID{}, fmt.Errorf("invalid caller identity: %v", err)
	}
	return caller, nil
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read request body: %v", err)
	}
	return body, nil
}

func decodeAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("value %q is not a base-10 integer", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("value must not be negative")
	}
	return value, nil
}

// --- query handlers ---

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"name":            s.ledger.Name(),
		"symbol":          s.ledger.Symbol(),
		"decimals":        s.ledger.Decimals(),
		"owner":           s.ledger.Owner().String(),
		"totalSupply":     s.ledger.TotalSupply().String(),
		"basisPointsRate": s.ledger.BasisPointsRate(),
		"maximumFee":      s.ledger.MaximumFee().String(),
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	account, err := types.ParseAccountID(chi.URLParam(r, "address"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.mu.Lock()
	balance := s.ledger.BalanceOf(account)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{
		"account": account.String(),
		"balance": balance.String(),
	})
}

func (s *Server) handleFlags(w http.ResponseWriter, r *http.Request) {
	account, err := types.ParseAccountID(chi.URLParam(r, "address"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.mu.Lock()
	private := s.ledger.IsAccountPrivate(account)
	blacklisted := s.ledger.IsAccountBlacklisted(account)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"account":     account.String(),
		"private":     private,
		"blacklisted": blacklisted,
	})
}

func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request) {
	owner, err := types.ParseAccountID(r.URL.Query().Get("owner"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("owner: %v", err)})
		return
	}
	spender, err := types.ParseAccountID(r.URL.Query().Get("spender"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("spender: %v", err)})
		return
	}
	s.mu.Lock()
	allowance := s.ledger.Allowance(owner, spender)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{
		"owner":     owner.String(),
		"spender":   spender.String(),
		"allowance": allowance.String(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "event journal not configured"})
		return
	}
	var after uint64
	if raw := strings.TrimSpace(r.URL.Query().Get("after")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "after must be an unsigned integer"})
			return
		}
		after = parsed
	}
	limit := 100
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	entries, err := s.store.Events(after, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "journal read failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": entries})
}

// --- command bodies ---

type transferRequest struct {
	To    string `json:"to"`
	Value string `json:"value"`
}

func (s *Server) cmdTransfer(caller types.AccountID, body []byte) error {
	var req transferRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return badRequest("transfer", err)
	}
	to, err := types.ParseAccountID(req.To)
	if err != nil {
		return badRequest("transfer", err)
	}
	value, err := decodeAmount(req.Value)
	if err != nil {
		return badRequest("transfer", err)
	}
	return s.ledger.Transfer(caller, to, value)
}

type approveRequest struct {
	Spender string `json:"spender"`
	Value   string `json:"value"`
}

func (s *Server) cmdApprove(caller types.AccountID, body []byte) error {
	var req approveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return badRequest("approve", err)
	}
	spender, err := types.ParseAccountID(req.Spender)
	if err != nil {
		return badRequest("approve", err)
	}
	value, err := decodeAmount(req.Value)
	if err != nil {
		return badRequest("approve", err)
	}
	return s.ledger.Approve(caller, spender, value)
}

type transferFromRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
}

func (s *Server) cmdTransferFrom(caller types.AccountID, body []byte) error {
	var req transferFromRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return badRequest("transfer-from", err)
	}
	from, err := types.ParseAccountID(req.From)
	if err != nil {
		return badRequest("transfer-from", err)
	}
	to, err := types.ParseAccountID(req.To)
	if err != nil {
		return badRequest("transfer-from", err)
	}
	value, err := decodeAmount(req.Value)
	if err != nil {
		return badRequest("transfer-from", err)
	}
	return s.ledger.TransferFrom(caller, from, to, value)
}

type amountRequest struct {
	Value string `json:"value"`
}

func (s *Server) cmdIssue(caller types.AccountID, body []byte) error {
	var req amountRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return badRequest("issue", err)
	}
	value, err := decodeAmount(req.Value)
	if err != nil {
		return badRequest("issue", err)
	}
	return s.ledger.Issue(caller, value)
}

func (s *Server) cmdRedeem(caller types.AccountID, body []byte) error {
	var req amountRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return badRequest("redeem", err)
	}
	value, err := decodeAmount(req.Value)
	if err != nil {
		return badRequest("redeem", err)
	}
	return s.ledger.Redeem(caller, value)
}

type paramsRequest struct {
	BasisPointsRate uint32 `json:"basisPointsRate"`
	MaximumFee      string `json:"maximumFee"`
}

func (s *Server) cmdSetParams(caller types.AccountID, body []byte) error {
	var req paramsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return badRequest("params", err)
	}
	maxFee, err := decodeAmount(req.MaximumFee)
	if err != nil {
		return badRequest("params", err)
	}
	return s.ledger.SetParams(caller, req.BasisPointsRate, maxFee)
}

type ownershipRequest struct {
	NewOwner string `json:"newOwner"`
}

func (s *Server) cmdTransferOwnership(caller types.AccountID, body []byte) error {
	var req ownershipRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return badRequest("ownership", err)
	}
	newOwner, err := types.ParseAccountID(req.NewOwner)
	if err != nil {
		return badRequest("ownership", err)
	}
	return s.ledger.TransferOwnership(caller, newOwner)
}

type privacyRequest struct {
	Account string `json:"account"`
	Private bool   `json:"private"`
}

func (s *Server) cmdSetAccountPrivate(caller types.AccountID, body []byte) error {
	var req privacyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return badRequest("privacy", err)
	}
	account, err := types.ParseAccountID(req.Account)
	if err != nil {
		return badRequest("privacy", err)
	}
	return s.ledger.SetAccountPrivate(caller, account, req.Private)
}

type accountRequest struct {
	Account string `json:"account"`
}

func (s *Server) cmdAddToBlacklist(caller types.AccountID, body []byte) error {
	var req accountRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return badRequest("blacklist", err)
	}
	account, err := types.ParseAccountID(req.Account)
	if err != nil {
		return badRequest("blacklist", err)
	}
	return s.ledger.AddAccountToBlacklist(caller, account)
}

func (s *Server) cmdRemoveFromBlacklist(caller types.AccountID, body []byte) error {
	var req accountRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return badRequest("blacklist", err)
	}
	account, err := types.ParseAccountID(req.Account)
	if err != nil {
		return badRequest("blacklist", err)
	}
	return s.ledger.RemoveAccountFromBlacklist(caller, account)
}

func (s *Server) cmdDestroyBlackFunds(caller types.AccountID, body []byte) error {
	var req accountRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return badRequest("destroy-black-funds", err)
	}
	account, err := types.ParseAccountID(req.Account)
	if err != nil {
		return badRequest("destroy-black-funds", err)
	}
	return s.ledger.DestroyBlackFunds(caller, account)
}
