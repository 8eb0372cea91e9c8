package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"financas/internal/core"
)

type userResponse struct {
	ID    int64  `json:"id"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
}

type authResponse struct {
	ID    int64  `json:"id"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := s.users.Register(r.Context(), &core.User{
		Name:     req.Nome,
		Email:    req.Email,
		Password: req.Senha,
	})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		ID:    saved.ID,
		Nome:  saved.Name,
		Email: saved.Email,
	})
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.users.Authenticate(r.Context(), req.Email, req.Senha)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	resp := authResponse{
		ID:    user.ID,
		Nome:  user.Name,
		Email: user.Email,
	}
	if s.tokens != nil {
		token, err := s.tokens.Generate(user)
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to generate token",
				"user_id", user.ID, "error", err)
			writeText(w, http.StatusInternalServerError, "internal server error")
			return
		}
		resp.Token = token
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := s.users.FindByID(r.Context(), id)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	if user == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	balance, err := s.ledger.Balance(r.Context(), id)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, json.Number(balance.String()))
}
