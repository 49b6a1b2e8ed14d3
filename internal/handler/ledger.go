package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/templui/stash/internal/ctxkeys"
	"github.com/templui/stash/internal/model"
	"github.com/templui/stash/internal/service"
)

const requestTimeout = 5 * time.Second

type LedgerHandler struct {
	ledger *service.LedgerService
}

func NewLedgerHandler(ledger *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledger: ledger,
	}
}

func (h *LedgerHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	account, err := h.ledger.Account(ctx, ctxkeys.AccountID(ctx))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, account)
}

func (h *LedgerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	dashboard, err := h.ledger.Dashboard(ctx, ctxkeys.AccountID(ctx))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, dashboard)
}

func (h *LedgerHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	entries, err := h.ledger.Feed(ctx)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}

func (h *LedgerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	entries, err := h.ledger.Leaderboard(ctx)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}

type createGoalResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (h *LedgerHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req service.CreateGoalInput
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	goal, err := h.ledger.CreateGoal(ctx, ctxkeys.AccountID(ctx), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, createGoalResponse{ID: goal.ID, Title: goal.Title})
}

type logSacrificeResponse struct {
	Message         string      `json:"message"`
	SacrificeID     string      `json:"sacrifice_id"`
	RepetitionCount int         `json:"repetition_count"`
	TotalSaved      model.Money `json:"total_saved"`
	CurrentStreak   int         `json:"current_streak"`
}

func (h *LedgerHandler) LogSacrifice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req service.LogSacrificeInput
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	receipt, err := h.ledger.LogSacrifice(ctx, ctxkeys.AccountID(ctx), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, logSacrificeResponse{
		Message:         "Sacrifice logged",
		SacrificeID:     receipt.SacrificeID,
		RepetitionCount: receipt.RepetitionCount,
		TotalSaved:      receipt.Account.TotalSaved,
		CurrentStreak:   receipt.Account.CurrentStreak,
	})
}
