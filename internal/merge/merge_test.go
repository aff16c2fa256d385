package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossburn/tally/internal/model"
)

func makeTx(id, merchant string, amount float64, analyzed bool) model.Transaction {
	return model.Transaction{
		ID:           id,
		Date:         time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		MerchantName: merchant,
		Amount:       amount,
		Analyzed:     analyzed,
	}
}

func TestTransactions_Idempotent(t *testing.T) {
	txs := []model.Transaction{
		makeTx("t1", "Coffee Co", 4.50, true),
		makeTx("t2", "Grocer", 82.10, false),
		makeTx("", "Cash Vendor", 12.00, false),
	}

	merged := Transactions(txs, txs)
	assert.Equal(t, txs, merged)

	// Repeated application stays stable too.
	assert.Equal(t, merged, Transactions(merged, merged))
}

func TestTransactions_DistinctIdentities(t *testing.T) {
	base := []model.Transaction{makeTx("t1", "Coffee Co", 4.50, false)}
	incoming := []model.Transaction{makeTx("t2", "Grocer", 82.10, false)}

	merged := Transactions(base, incoming)
	require.Len(t, merged, 2)
	assert.Equal(t, "t1", merged[0].ID)
	assert.Equal(t, "t2", merged[1].ID)
}

func TestTransactions_RatchetProperty(t *testing.T) {
	analyzed := makeTx("t1", "Coffee Co", 4.50, true)
	analyzed.UnethicalPractices = []string{"Factory Farming"}
	analyzed.PracticeWeights = map[string]float64{"Factory Farming": 40}

	unanalyzed := makeTx("t1", "Coffee Co", 4.50, false)

	t.Run("analyzed in base survives unanalyzed incoming", func(t *testing.T) {
		merged := Transactions([]model.Transaction{analyzed}, []model.Transaction{unanalyzed})
		require.Len(t, merged, 1)
		assert.True(t, merged[0].Analyzed)
		assert.Equal(t, []string{"Factory Farming"}, merged[0].UnethicalPractices)
	})

	t.Run("analyzed incoming replaces unanalyzed base", func(t *testing.T) {
		merged := Transactions([]model.Transaction{unanalyzed}, []model.Transaction{analyzed})
		require.Len(t, merged, 1)
		assert.True(t, merged[0].Analyzed)
	})

	t.Run("both analyzed, incoming wins", func(t *testing.T) {
		newer := analyzed
		newer.PracticeWeights = map[string]float64{"Factory Farming": 55}
		merged := Transactions([]model.Transaction{analyzed}, []model.Transaction{newer})
		require.Len(t, merged, 1)
		assert.InDelta(t, 55, merged[0].PracticeWeights["Factory Farming"], 0.001)
	})

	t.Run("both unanalyzed, incoming wins", func(t *testing.T) {
		newer := unanalyzed
		newer.MerchantName = "Coffee Co "
		newer.AccountID = "acct-2"
		merged := Transactions([]model.Transaction{unanalyzed}, []model.Transaction{newer})
		require.Len(t, merged, 1)
		assert.Equal(t, "acct-2", merged[0].AccountID)
	})
}

func TestTransactions_OrderPreserved(t *testing.T) {
	base := []model.Transaction{
		makeTx("a", "One", 1, false),
		makeTx("b", "Two", 2, false),
	}
	incoming := []model.Transaction{
		makeTx("b", "Two", 2, true),
		makeTx("c", "Three", 3, false),
	}

	merged := Transactions(base, incoming)
	require.Len(t, merged, 3)
	assert.Equal(t, "a", merged[0].ID)
	assert.Equal(t, "b", merged[1].ID)
	assert.True(t, merged[1].Analyzed)
	assert.Equal(t, "c", merged[2].ID)
}

func TestTransactions_FallbackIdentity(t *testing.T) {
	// No provider id: identity is the date|merchant|amount composite, so the
	// same charge observed across two fetches dedupes.
	a := makeTx("", "corner store", 9.99, false)
	b := makeTx("", " CORNER STORE ", 9.99, true)

	merged := Transactions([]model.Transaction{a}, []model.Transaction{b})
	require.Len(t, merged, 1)
	assert.True(t, merged[0].Analyzed)
}

func TestTransactions_EmptyInputs(t *testing.T) {
	txs := []model.Transaction{makeTx("t1", "Coffee Co", 4.50, false)}

	assert.Equal(t, txs, Transactions(nil, txs))
	assert.Equal(t, txs, Transactions(txs, nil))
	assert.Empty(t, Transactions(nil, nil))
}
