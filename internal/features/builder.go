package features

import (
	"github.com/gyaneshwarpardhi/fraudform/internal/transaction"
)

// Feature column names as produced by the training notebook.
const (
	Step             = "step"
	Amount           = "amount"
	OldBalanceOrig   = "oldbalanceOrg"
	NewBalanceOrig   = "newbalanceOrig"
	OldBalanceDest   = "oldbalanceDest"
	NewBalanceDest   = "newbalanceDest"
	TypeTransfer     = "type_TRANSFER"
	TypeCashOut      = "type_CASH_OUT"
	TypeDebit        = "type_DEBIT"
	TypePayment      = "type_PAYMENT"
	Day              = "day"
	Hour             = "hour"
	ErrorBalanceOrig = "error_balance_orig"
	ErrorBalanceDest = "error_balance_dest"
	IsMerchant       = "isMerchant"
	HighValue        = "high_value"
)

// HighValueThreshold is the amount a transaction must strictly exceed to be
// flagged high_value.
const HighValueThreshold = 200000.0

// Names is the order in which Build emits features. It doubles as the
// fallback column order when no reference header is available.
var Names = []string{
	Step, Amount, OldBalanceOrig, NewBalanceOrig,
	OldBalanceDest, NewBalanceDest,
	TypeTransfer, TypeCashOut, TypeDebit, TypePayment,
	Day, Hour, ErrorBalanceOrig, ErrorBalanceDest,
	IsMerchant, HighValue,
}

// Build derives the engineered feature row for tx. It is pure: no I/O and no
// state, so identical inputs always yield identical vectors.
//
// CASH_IN is the dropped one-hot baseline and has no column of its own.
func Build(tx transaction.Transaction) *Vector {
	step := tx.Step
	v := newVector(len(Names))

	v.set(Step, float64(step))
	v.set(Amount, tx.Amount)
	v.set(OldBalanceOrig, tx.OldBalanceOrig)
	v.set(NewBalanceOrig, tx.NewBalanceOrig)
	v.set(OldBalanceDest, tx.OldBalanceDest)
	v.set(NewBalanceDest, tx.NewBalanceDest)

	v.set(TypeTransfer, indicator(tx.Type == transaction.TypeTransfer))
	v.set(TypeCashOut, indicator(tx.Type == transaction.TypeCashOut))
	v.set(TypeDebit, indicator(tx.Type == transaction.TypeDebit))
	v.set(TypePayment, indicator(tx.Type == transaction.TypePayment))

	v.set(Day, float64(step/24))
	v.set(Hour, float64(step%24))

	v.set(ErrorBalanceOrig, tx.OldBalanceOrig-tx.Amount-tx.NewBalanceOrig)
	v.set(ErrorBalanceDest, tx.NewBalanceDest-tx.OldBalanceDest-tx.Amount)

	v.set(IsMerchant, float64(tx.IsMerchant))
	v.set(HighValue, indicator(tx.Amount > HighValueThreshold))
	return v
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
