package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"financas/internal/core"
	authmw "financas/internal/middleware/auth"
)

const msgEntryNotFound = "Lançamento não encontrado"

type entryResponse struct {
	ID        int64       `json:"id"`
	Descricao string      `json:"descricao"`
	Mes       int         `json:"mes"`
	Ano       int         `json:"ano"`
	Valor     json.Number `json:"valor"`
	Tipo      string      `json:"tipo"`
	Status    string      `json:"status"`
	Usuario   int64       `json:"usuario"`
}

func toEntryResponse(e core.Entry) entryResponse {
	var userID int64
	if e.User != nil {
		userID = e.User.ID
	}
	return entryResponse{
		ID:        e.ID,
		Descricao: e.Description,
		Mes:       e.Month,
		Ano:       e.Year,
		Valor:     json.Number(e.Amount.String()),
		Tipo:      string(e.Type),
		Status:    string(e.Status),
		Usuario:   userID,
	}
}

// entryFromRequest builds a domain entry from the wire DTO, resolving
// the owner. An unknown owner id is a business rule violation with its
// own reason text.
func (s *Server) entryFromRequest(ctx context.Context, req entryRequest) (*core.Entry, error) {
	user, err := s.users.FindByID(ctx, req.Usuario)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &core.ValidationError{Reason: "Usuário não encontrado para o Id informado"}
	}

	entry := &core.Entry{
		Description:  req.Descricao,
		Month:        req.Mes,
		Year:         req.Ano,
		Amount:       req.Valor.Decimal,
		RegisteredAt: time.Now(),
		User:         user,
	}

	if req.Tipo != "" {
		t, err := core.ParseEntryType(req.Tipo)
		if err != nil {
			return nil, err
		}
		entry.Type = t
	}
	if req.Status != "" {
		st, err := core.ParseEntryStatus(req.Status)
		if err != nil {
			return nil, err
		}
		entry.Status = st
	}

	return entry, nil
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(r.Context(), w, err)
		return
	}

	entry, err := s.entryFromRequest(r.Context(), req)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	saved, err := s.ledger.Create(r.Context(), entry)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	slog.InfoContext(r.Context(), "Entry created",
		"entry_id", saved.ID,
		"caller_id", authmw.UserID(r.Context()),
		"caller", authmw.Email(r.Context()))
	writeJSON(w, http.StatusCreated, toEntryResponse(*saved))
}

func (s *Server) handleFindEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userID, err := strconv.ParseInt(q.Get("usuario"), 10, 64)
	if err != nil {
		writeText(w, http.StatusBadRequest, "Usuário não encontrado")
		return
	}
	user, err := s.users.FindByID(r.Context(), userID)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	if user == nil {
		writeText(w, http.StatusBadRequest, "Usuário não encontrado")
		return
	}

	filter := core.EntryFilter{
		Description: q.Get("descricao"),
		UserID:      userID,
	}
	if v := q.Get("mes"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			writeText(w, http.StatusBadRequest, "invalid mes parameter")
			return
		}
		filter.Month = m
	}
	if v := q.Get("ano"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeText(w, http.StatusBadRequest, "invalid ano parameter")
			return
		}
		filter.Year = y
	}

	entries, err := s.ledger.Find(r.Context(), filter)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	entry, err := s.ledger.FindByID(r.Context(), id)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	if entry == nil {
		writeText(w, http.StatusNotFound, msgEntryNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toEntryResponse(*entry))
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	existing, err := s.ledger.FindByID(r.Context(), id)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	if existing == nil {
		writeText(w, http.StatusBadRequest, msgEntryNotFound)
		return
	}

	var req entryRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(r.Context(), w, err)
		return
	}

	entry, err := s.entryFromRequest(r.Context(), req)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	entry.ID = existing.ID

	updated, err := s.ledger.Update(r.Context(), entry)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEntryResponse(*updated))
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	existing, err := s.ledger.FindByID(r.Context(), id)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	if existing == nil {
		writeText(w, http.StatusBadRequest, msgEntryNotFound)
		return
	}

	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(r.Context(), w, err)
		return
	}

	status, err := core.ParseEntryStatus(req.Status)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	updated, err := s.ledger.UpdateStatus(r.Context(), existing, status)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEntryResponse(*updated))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	existing, err := s.ledger.FindByID(r.Context(), id)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	if existing == nil {
		writeText(w, http.StatusBadRequest, msgEntryNotFound)
		return
	}

	if err := s.ledger.Delete(r.Context(), existing); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	slog.InfoContext(r.Context(), "Entry deleted",
		"entry_id", existing.ID,
		"caller_id", authmw.UserID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}
