package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
	"github.com/malbeclabs/fitfreak/program/pkg/contest"
)

type createPayload struct {
	payloadHeader
	contest.CreateParams
}

type distributePayload struct {
	payloadHeader
	Winners []string `json:"winners"`
}

type RefundResponse struct {
	Contest     solana.PublicKey `json:"contest"`
	Participant solana.PublicKey `json:"participant"`
	Amount      uint64           `json:"amount"`
}

type AccountResponse struct {
	Address  solana.PublicKey `json:"address"`
	Lamports uint64           `json:"lamports"`
}

type DeriveResponse struct {
	Owner     solana.PublicKey `json:"owner"`
	ContestID uint64           `json:"contest_id"`
	Contest   solana.PublicKey `json:"contest"`
	Vault     solana.PublicKey `json:"vault"`
}

func pathKey(r *http.Request, name string) (solana.PublicKey, error) {
	raw := chi.URLParam(r, name)
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, badRequest("InvalidAddress", fmt.Errorf("invalid %s %q: %w", name, raw, err))
	}
	return key, nil
}

// CreateContest handles POST /v1/contests.
func (h *Handlers) CreateContest(w http.ResponseWriter, r *http.Request) {
	caller, payload, err := h.verifyEnvelope(w, r, ActionCreate, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var p createPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		h.writeError(w, r, badRequest("MalformedPayload", err))
		return
	}
	res, err := h.prog.CreateContest(r.Context(), caller, p.CreateParams)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/contests/"+res.Contest.String())
	h.writeJSON(w, http.StatusCreated, res)
}

// JoinContest handles POST /v1/contests/{contest}/join.
func (h *Handlers) JoinContest(w http.ResponseWriter, r *http.Request) {
	c, err := pathKey(r, "contest")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	caller, _, err := h.verifyEnvelope(w, r, ActionJoin, &c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.prog.JoinContest(r.Context(), caller, c); err != nil {
		h.writeError(w, r, err)
		return
	}
	rec, err := h.prog.GetParticipant(r.Context(), c, caller.Key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// DistributeRewards handles POST /v1/contests/{contest}/distribute.
func (h *Handlers) DistributeRewards(w http.ResponseWriter, r *http.Request) {
	c, err := pathKey(r, "contest")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	caller, payload, err := h.verifyEnvelope(w, r, ActionDistribute, &c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var p distributePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		h.writeError(w, r, badRequest("MalformedPayload", err))
		return
	}
	if len(p.Winners) != 3 {
		h.writeError(w, r, badRequest("InvalidParameters", fmt.Errorf("exactly 3 winners required, got %d", len(p.Winners))))
		return
	}
	var winners [3]solana.PublicKey
	for i, raw := range p.Winners {
		if winners[i], err = solana.PublicKeyFromBase58(raw); err != nil {
			h.writeError(w, r, badRequest("InvalidAddress", fmt.Errorf("winner %d: %w", i+1, err)))
			return
		}
	}
	payout, err := h.prog.DistributeRewards(r.Context(), caller, c, winners)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, payout)
}

// CloseContest handles POST /v1/contests/{contest}/close.
func (h *Handlers) CloseContest(w http.ResponseWriter, r *http.Request) {
	c, err := pathKey(r, "contest")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	caller, _, err := h.verifyEnvelope(w, r, ActionClose, &c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.prog.CloseContest(r.Context(), caller, c); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.GetContest(w, r)
}

// ClaimRefund handles POST /v1/contests/{contest}/refund.
func (h *Handlers) ClaimRefund(w http.ResponseWriter, r *http.Request) {
	c, err := pathKey(r, "contest")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	caller, _, err := h.verifyEnvelope(w, r, ActionRefund, &c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	amount, err := h.prog.ClaimRefund(r.Context(), caller, c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, RefundResponse{Contest: c, Participant: caller.Key, Amount: amount})
}

// GetContest handles GET /v1/contests/{contest}.
func (h *Handlers) GetContest(w http.ResponseWriter, r *http.Request) {
	c, err := pathKey(r, "contest")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	info, err := h.prog.GetContestInfo(r.Context(), c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}

// GetParticipant handles GET /v1/contests/{contest}/participants/{participant}.
func (h *Handlers) GetParticipant(w http.ResponseWriter, r *http.Request) {
	c, err := pathKey(r, "contest")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := pathKey(r, "participant")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rec, err := h.prog.GetParticipant(r.Context(), c, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// ListContestEvents handles GET /v1/contests/{contest}/events.
func (h *Handlers) ListContestEvents(w http.ResponseWriter, r *http.Request) {
	c, err := pathKey(r, "contest")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit := ParseLimit(r, DefaultLimit)
	events, err := h.prog.Events(r.Context(), c, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []ledger.Event{}
	}
	h.writeJSON(w, http.StatusOK, ListResponse[ledger.Event]{Items: events, Limit: limit})
}

// GetAccount handles GET /v1/accounts/{address}.
func (h *Handlers) GetAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := pathKey(r, "address")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	lamports, err := h.prog.Balance(r.Context(), addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, AccountResponse{Address: addr, Lamports: lamports})
}

// DeriveContestAddress handles GET /v1/addresses/contest?owner=&id=.
func (h *Handlers) DeriveContestAddress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	owner, err := solana.PublicKeyFromBase58(q.Get("owner"))
	if err != nil {
		h.writeError(w, r, badRequest("InvalidAddress", fmt.Errorf("invalid owner: %w", err)))
		return
	}
	id, err := strconv.ParseUint(q.Get("id"), 10, 64)
	if err != nil {
		h.writeError(w, r, badRequest("InvalidParameters", fmt.Errorf("invalid id: %w", err)))
		return
	}
	c, vault, err := h.prog.ContestAddress(owner, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, DeriveResponse{Owner: owner, ContestID: id, Contest: c, Vault: vault})
}
