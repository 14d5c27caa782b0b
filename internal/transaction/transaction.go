package transaction

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Type is the transaction category as recorded in the training data.
type Type string

const (
	TypeCashIn   Type = "CASH_IN"
	TypeCashOut  Type = "CASH_OUT"
	TypeDebit    Type = "DEBIT"
	TypePayment  Type = "PAYMENT"
	TypeTransfer Type = "TRANSFER"
)

// Types lists every accepted type in the order the form presents them.
var Types = []Type{TypeCashIn, TypeCashOut, TypeDebit, TypePayment, TypeTransfer}

const (
	MinStep = 1
	MaxStep = 744 // 31 days of hourly steps
)

var (
	ErrInvalidStep     = errors.New("step out of range")
	ErrInvalidType     = errors.New("unknown transaction type")
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrNegativeBalance = errors.New("balance must not be negative")
	ErrInvalidMerchant = errors.New("isMerchant must be 0 or 1")
	ErrNonFinite       = errors.New("value must be a finite number")
)

// Transaction is the canonical input model for a single scoring request.
type Transaction struct {
	ID             string  `json:"id,omitempty"`
	Step           int     `json:"step"`
	Type           Type    `json:"type"`
	Amount         float64 `json:"amount"`
	OldBalanceOrig float64 `json:"oldbalanceOrg"`
	NewBalanceOrig float64 `json:"newbalanceOrig"`
	OldBalanceDest float64 `json:"oldbalanceDest"`
	NewBalanceDest float64 `json:"newbalanceDest"`
	IsMerchant     int     `json:"isMerchant"`
	NameDest       string  `json:"nameDest,omitempty"` // optional; see DeriveMerchant
}

// Valid reports whether t is one of the canonical upper-case types.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// UnmarshalText upper-cases the incoming value; validity is checked by
// Transaction.Validate so a batch can report bad items individually.
func (t *Type) UnmarshalText(b []byte) error {
	*t = Type(strings.ToUpper(strings.TrimSpace(string(b))))
	return nil
}

// ParseType normalises s and checks it against the known types.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if t.Valid() {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

// Validate checks ranges. All violations are joined into one error.
func (t *Transaction) Validate() error {
	var errs []error
	if t.Step < MinStep || t.Step > MaxStep {
		errs = append(errs, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidStep, t.Step, MinStep, MaxStep))
	}
	if !t.Type.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidType, t.Type))
	}
	switch {
	case !finite(t.Amount):
		errs = append(errs, fmt.Errorf("%w: amount=%v", ErrNonFinite, t.Amount))
	case t.Amount < 0:
		errs = append(errs, fmt.Errorf("%w: %v", ErrNegativeAmount, t.Amount))
	}
	balances := []struct {
		name string
		v    float64
	}{
		{"oldbalanceOrg", t.OldBalanceOrig},
		{"newbalanceOrig", t.NewBalanceOrig},
		{"oldbalanceDest", t.OldBalanceDest},
		{"newbalanceDest", t.NewBalanceDest},
	}
	for _, b := range balances {
		switch {
		case !finite(b.v):
			errs = append(errs, fmt.Errorf("%w: %s=%v", ErrNonFinite, b.name, b.v))
		case b.v < 0:
			errs = append(errs, fmt.Errorf("%w: %s=%v", ErrNegativeBalance, b.name, b.v))
		}
	}
	if t.IsMerchant != 0 && t.IsMerchant != 1 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidMerchant, t.IsMerchant))
	}
	return errors.Join(errs...)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DeriveMerchant sets IsMerchant from NameDest when a destination name is
// present. Merchant accounts in the training data are named "M<digits>".
func (t *Transaction) DeriveMerchant() {
	name := strings.TrimSpace(t.NameDest)
	if name == "" {
		return
	}
	if strings.HasPrefix(name, "M") {
		t.IsMerchant = 1
	} else {
		t.IsMerchant = 0
	}
}
