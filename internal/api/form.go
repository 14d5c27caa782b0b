package api

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/fraudform/internal/inference"
	"github.com/gyaneshwarpardhi/fraudform/internal/transaction"
)

//go:embed templates/form.html
var templateFS embed.FS

var formTmpl = template.Must(template.ParseFS(templateFS, "templates/form.html"))

// formInput keeps the raw submitted strings so the form re-renders exactly
// what the user typed.
type formInput struct {
	Step           string
	Type           string
	Amount         string
	OldBalanceOrig string
	NewBalanceOrig string
	OldBalanceDest string
	NewBalanceDest string
	IsMerchant     string
	NameDest       string
}

var defaultInput = formInput{
	Step:           "1",
	Type:           string(transaction.TypeCashIn),
	Amount:         "1000",
	OldBalanceOrig: "5000",
	NewBalanceOrig: "4000",
	OldBalanceDest: "0",
	NewBalanceDest: "1000",
	IsMerchant:     "0",
}

type debugRow struct {
	Column string
	Value  float64
}

type formView struct {
	Input     formInput
	Types     []transaction.Type
	MaxStep   int
	Result    *inference.Result
	Error     string
	ShowDebug bool
	Columns   []string
	Rows      []debugRow
}

// GET / — the transaction form.
func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, http.StatusOK, formView{Input: defaultInput})
}

// POST /predict — score the submitted form and render the verdict.
func (h *Handler) submitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.renderForm(w, http.StatusBadRequest, formView{Input: defaultInput, Error: err.Error()})
		return
	}
	in := readFormInput(r)
	tx, err := in.transaction()
	if err != nil {
		h.renderForm(w, http.StatusBadRequest, formView{Input: in, Error: err.Error()})
		return
	}
	tx.ID = uuid.New().String()

	res, err := h.eng.Score(r.Context(), tx)
	if err != nil {
		h.renderForm(w, engineStatus(err), formView{Input: in, Error: err.Error()})
		return
	}

	view := formView{Input: in, Result: res}
	if !res.OK() {
		view.Error = res.Failure.Reason
	}
	if h.opts.ShowDebug && res.Debug != nil {
		view.ShowDebug = true
		view.Columns = res.Debug.Columns
		view.Rows = make([]debugRow, len(res.Debug.Columns))
		for i, c := range res.Debug.Columns {
			view.Rows[i] = debugRow{Column: c, Value: res.Debug.Values[i]}
		}
	}
	h.renderForm(w, http.StatusOK, view)
}

func (h *Handler) renderForm(w http.ResponseWriter, status int, view formView) {
	view.Types = transaction.Types
	view.MaxStep = transaction.MaxStep
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := formTmpl.Execute(w, view); err != nil {
		slog.Error("render form", "err", err)
	}
}

func readFormInput(r *http.Request) formInput {
	get := func(key string) string { return strings.TrimSpace(r.PostForm.Get(key)) }
	return formInput{
		Step:           get("step"),
		Type:           get("type"),
		Amount:         get("amount"),
		OldBalanceOrig: get("oldbalanceOrg"),
		NewBalanceOrig: get("newbalanceOrig"),
		OldBalanceDest: get("oldbalanceDest"),
		NewBalanceDest: get("newbalanceDest"),
		IsMerchant:     get("isMerchant"),
		NameDest:       get("nameDest"),
	}
}

// transaction converts the raw fields. Range checks are left to
// Transaction.Validate so the form and JSON API report them identically.
func (in formInput) transaction() (transaction.Transaction, error) {
	var errs []error
	num := func(field, s string) float64 {
		v, err := strconv.ParseFloat(s, 64)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %q is not a number", field, s))
		case math.IsNaN(v) || math.IsInf(v, 0):
			errs = append(errs, fmt.Errorf("%s: %w", field, transaction.ErrNonFinite))
		}
		return v
	}
	integer := func(field, s string) int {
		v, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", field, s))
		}
		return v
	}

	typ, err := transaction.ParseType(in.Type)
	if err != nil {
		errs = append(errs, err)
	}
	tx := transaction.Transaction{
		Step:           integer("step", in.Step),
		Type:           typ,
		Amount:         num("amount", in.Amount),
		OldBalanceOrig: num("oldbalanceOrg", in.OldBalanceOrig),
		NewBalanceOrig: num("newbalanceOrig", in.NewBalanceOrig),
		OldBalanceDest: num("oldbalanceDest", in.OldBalanceDest),
		NewBalanceDest: num("newbalanceDest", in.NewBalanceDest),
		IsMerchant:     integer("isMerchant", in.IsMerchant),
		NameDest:       in.NameDest,
	}
	return tx, errors.Join(errs...)
}
