package inference_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/fraudform/internal/features"
	"github.com/gyaneshwarpardhi/fraudform/internal/inference"
	"github.com/gyaneshwarpardhi/fraudform/internal/model"
	"github.com/gyaneshwarpardhi/fraudform/internal/schema"
	"github.com/gyaneshwarpardhi/fraudform/internal/transaction"
)

func paymentTx() transaction.Transaction {
	return transaction.Transaction{
		ID:             "tx-1",
		Step:           1,
		Type:           transaction.TypePayment,
		Amount:         1000,
		OldBalanceOrig: 5000,
		NewBalanceOrig: 4000,
		NewBalanceDest: 1000,
	}
}

// weightOn builds a coefficient vector that is 0 everywhere except col.
func weightOn(col string, w float64) []float64 {
	coef := make([]float64, len(features.Names))
	for i, name := range features.Names {
		if name == col {
			coef[i] = w
		}
	}
	return coef
}

func identity() model.Scaler {
	s, _ := model.NewMinMaxScaler(model.Info{}, make([]float64, 16), ones(16))
	return s
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func TestScore_TransferIsFlagged(t *testing.T) {
	clf, err := model.NewLogisticRegression(model.Info{}, weightOn(features.TypeTransfer, 10), -5, 0.5)
	require.NoError(t, err)
	p := inference.New(schema.Fallback(), identity(), clf, inference.Options{})

	tx := paymentTx()
	tx.Type = transaction.TypeTransfer
	res := p.Score(tx)
	require.True(t, res.OK(), "unexpected failure: %v", res.Err())
	assert.Equal(t, 1, res.Prediction.Label)
	require.NotNil(t, res.Prediction.Probability)
	assert.Greater(t, *res.Prediction.Probability, 0.99)
	assert.Equal(t, "tx-1", res.TransactionID)

	res = p.Score(paymentTx())
	require.True(t, res.OK())
	assert.Equal(t, 0, res.Prediction.Label)
	assert.Contains(t, res.Prediction.Verdict(), "Legitimate transaction.")
	assert.Contains(t, res.Prediction.Verdict(), "(Fraud probability: 0.01)")
}

func TestScore_DebugCarriesAlignedRow(t *testing.T) {
	clf, err := model.NewLinearSVC(model.Info{}, ones(16), 0)
	require.NoError(t, err)
	p := inference.New(schema.Fallback(), identity(), clf, inference.Options{})

	res := p.Score(paymentTx())
	require.True(t, res.OK())
	assert.Nil(t, res.Prediction.Probability, "linear_svc has no probability")
	require.NotNil(t, res.Debug)
	assert.Equal(t, features.Names, res.Debug.Columns)
	assert.Equal(t, []float64{1, 1000, 5000, 4000, 0, 1000, 0, 0, 0, 1, 0, 1, 0, 0, 0, 0}, res.Debug.Values)
	assert.Equal(t, "fallback", res.Debug.Source)
}

func TestScore_ReferenceOrderZeroFillsAndDrops(t *testing.T) {
	order := schema.NewOrder([]string{"hour", "brand_new_feature", "amount"}, schema.SourceReference)
	clf, err := model.NewLinearSVC(model.Info{}, []float64{1, 1, 1}, 0)
	require.NoError(t, err)
	s, err := model.NewStandardScaler(model.Info{}, []float64{0, 0, 0}, []float64{1, 1, 1})
	require.NoError(t, err)
	p := inference.New(order, s, clf, inference.Options{})

	res := p.Score(paymentTx())
	require.True(t, res.OK(), "unexpected failure: %v", res.Err())
	assert.Equal(t, []float64{1, 0, 1000}, res.Debug.Values)
	assert.Equal(t, []string{"brand_new_feature"}, res.Debug.Missing)
	assert.Len(t, res.Debug.Dropped, 14)
}

func TestScore_InvalidInput(t *testing.T) {
	clf, _ := model.NewLinearSVC(model.Info{}, ones(16), 0)
	p := inference.New(schema.Fallback(), identity(), clf, inference.Options{})

	tx := paymentTx()
	tx.Step = 0
	res := p.Score(tx)
	require.False(t, res.OK())
	assert.Equal(t, inference.KindInvalidInput, res.Failure.Kind)
	assert.True(t, errors.Is(res.Err(), transaction.ErrInvalidStep))
}

func TestScore_DerivesMerchantWhenEnabled(t *testing.T) {
	clf, _ := model.NewLogisticRegression(model.Info{}, weightOn(features.IsMerchant, 1), 0, 0.5)
	tx := paymentTx()
	tx.NameDest = "M1979787155"

	on := inference.New(schema.Fallback(), identity(), clf, inference.Options{DeriveMerchant: true}).Score(tx)
	off := inference.New(schema.Fallback(), identity(), clf, inference.Options{}).Score(tx)
	require.True(t, on.OK())
	require.True(t, off.OK())

	merchantAt := len(features.Names) - 2
	assert.Equal(t, 1.0, on.Debug.Values[merchantAt])
	assert.Equal(t, 0.0, off.Debug.Values[merchantAt])
}

func TestPredict_WidthMismatchIsAFailureResult(t *testing.T) {
	clf, _ := model.NewLinearSVC(model.Info{}, []float64{1, 2, 3}, 0)
	p := inference.New(schema.Fallback(), identity(), clf, inference.Options{})

	res := p.Score(paymentTx())
	require.False(t, res.OK())
	assert.Equal(t, inference.KindInference, res.Failure.Kind)
	assert.ErrorIs(t, res.Err(), model.ErrDimension)
	assert.NotNil(t, res.Debug, "debug view is kept for failed inference")
}

type panickingScaler struct{ model.IdentityScaler }

func (panickingScaler) Transform([]float64) ([]float64, error) { panic("corrupt scaler state") }

func TestPredict_RecoversPanics(t *testing.T) {
	clf, _ := model.NewLinearSVC(model.Info{}, ones(16), 0)
	p := inference.New(schema.Fallback(), &panickingScaler{}, clf, inference.Options{})

	res := p.Predict(make([]float64, 16))
	require.False(t, res.OK())
	assert.Contains(t, res.Failure.Reason, "corrupt scaler state")
}

type nanClassifier struct{ *model.LogisticRegression }

func (nanClassifier) PredictProba([]float64) (float64, error) { return math.NaN(), nil }

func TestPredict_RejectsProbabilityOutsideUnitInterval(t *testing.T) {
	lr, err := model.NewLogisticRegression(model.Info{}, ones(16), 0, 0.5)
	require.NoError(t, err)
	p := inference.New(schema.Fallback(), identity(), nanClassifier{lr}, inference.Options{})

	res := p.Predict(make([]float64, 16))
	require.False(t, res.OK())
	assert.Equal(t, inference.KindInference, res.Failure.Kind)
	assert.ErrorIs(t, res.Err(), inference.ErrInvalidProbability)
}

func TestScore_NonFiniteInputIsInvalid(t *testing.T) {
	clf, err := model.NewLogisticRegression(model.Info{}, ones(16), 0, 0.5)
	require.NoError(t, err)
	p := inference.New(schema.Fallback(), identity(), clf, inference.Options{})

	for _, v := range []float64{math.NaN(), math.Inf(1)} {
		tx := paymentTx()
		tx.Amount = v
		res := p.Score(tx)
		require.False(t, res.OK())
		assert.Equal(t, inference.KindInvalidInput, res.Failure.Kind)
		assert.ErrorIs(t, res.Err(), transaction.ErrNonFinite)
	}
}

func TestScore_RecordsDuration(t *testing.T) {
	clf, err := model.NewLogisticRegression(model.Info{}, ones(16), 0, 0.5)
	require.NoError(t, err)
	res := inference.New(schema.Fallback(), identity(), clf, inference.Options{}).Score(paymentTx())
	require.True(t, res.OK())
	assert.Greater(t, res.Duration.Nanoseconds(), int64(0))
	assert.InDelta(t, float64(res.Duration.Microseconds())/1000, res.DurationMs, 1e-9)
}

func TestVerdict(t *testing.T) {
	p := 0.876
	assert.Equal(t, "Fraudulent transaction detected. (Fraud probability: 0.88)",
		(&inference.Prediction{Label: 1, Probability: &p}).Verdict())
	assert.Equal(t, "Legitimate transaction.", (&inference.Prediction{Label: 0}).Verdict())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	paths := inference.Paths{
		Model:     write("model.yaml", "kind: logistic_regression\ncoef: [1, 1]\nintercept: 0\n"),
		Scaler:    write("scaler.yaml", "kind: identity\n"),
		Reference: write("ref.csv", "amount,isFraud,hour\n"),
	}

	p, err := inference.Load(paths, inference.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"amount", "hour"}, p.Order().Columns())
	assert.True(t, p.HasProbability())

	bad := paths
	bad.Model = filepath.Join(dir, "missing.yaml")
	_, err = inference.Load(bad, inference.Options{})
	assert.Error(t, err)

	bad = paths
	bad.Scaler = write("broken.yaml", "kind: nope\n")
	_, err = inference.Load(bad, inference.Options{})
	assert.ErrorIs(t, err, model.ErrUnknownKind)
}
