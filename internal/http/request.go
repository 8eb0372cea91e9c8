package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// amountField accepts a monetary value as either a JSON number or a
// string, with dot or comma as the decimal separator. Only syntax errors
// are rejected at decode time; range rules stay with Entry.Validate.
type amountField struct {
	decimal.Decimal
}

func (a *amountField) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	s = strings.Trim(s, `"`)
	d, err := core.ParseAmount(s)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

type userRequest struct {
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Senha string `json:"senha"`
}

type entryRequest struct {
	Descricao string      `json:"descricao"`
	Mes       int         `json:"mes"`
	Ano       int         `json:"ano"`
	Valor     amountField `json:"valor"`
	Tipo      string      `json:"tipo"`
	Status    string      `json:"status"`
	Usuario   int64       `json:"usuario"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// decodeBody reads a JSON request body into dst. Amount parse failures
// surface as the domain's amount validation error so the caller maps
// them like any other rule violation.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
