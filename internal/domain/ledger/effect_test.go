package ledger_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/ledger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Tabla de signos
// ──────────────────────────────────────────────────────────────────────────────

func TestRule_TablaDeSignos(t *testing.T) {
	cases := []struct {
		kind entity.DocumentKind
		typ  entity.TransactionType
		sign int64
	}{
		{entity.DocumentAccount, entity.TxInitialBalance, 1},
		{entity.DocumentPurchaseInvoice, entity.TxInvoice, 1},
		{entity.DocumentSaleInvoice, entity.TxInvoice, -1},
		{entity.DocumentPurchaseReturn, entity.TxReturn, -1},
		{entity.DocumentSaleReturn, entity.TxReturn, 1},
		{entity.DocumentPurchasePayment, entity.TxPayment, -1},
		{entity.DocumentSalePayment, entity.TxPayment, 1},
		{entity.DocumentRefund, entity.TxRefund, -1},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			typ, sign, err := ledger.Rule(tc.kind)
			require.NoError(t, err)
			assert.Equal(t, tc.typ, typ)
			assert.True(t, sign.Equal(decimal.NewFromInt(tc.sign)), "signo esperado %d, obtenido %s", tc.sign, sign)
		})
	}
}

func TestRule_DocumentoDesconocido(t *testing.T) {
	_, _, err := ledger.Rule("otro")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// ──────────────────────────────────────────────────────────────────────────────
// Plan
// ──────────────────────────────────────────────────────────────────────────────

func TestPlan_CreaConSigno(t *testing.T) {
	ref := entity.DocumentRef{Kind: entity.DocumentSaleInvoice, ID: "inv-1"}
	eff, err := ledger.Plan(ref, nil, d("150.50"), ledger.OpCreate)
	require.NoError(t, err)

	assert.Equal(t, ledger.ActionCreate, eff.Action)
	assert.Equal(t, entity.TxInvoice, eff.Type)
	assert.True(t, eff.Amount.Equal(d("150.50")))
	assert.True(t, eff.Delta.Equal(d("-150.50")), "una venta resta del saldo")
}

func TestPlan_CreateConExistente_Duplicado(t *testing.T) {
	ref := entity.DocumentRef{Kind: entity.DocumentSalePayment, ID: "p-1"}
	existing := &entity.AccountTransaction{Amount: d("10")}

	_, err := ledger.Plan(ref, existing, d("10"), ledger.OpCreate)
	var dup *domain.DuplicateTransactionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "p-1", dup.DocumentID)
}

func TestPlan_SettleAplicaSoloLaDiferencia(t *testing.T) {
	ref := entity.DocumentRef{Kind: entity.DocumentPurchasePayment, ID: "p-2"}
	existing := &entity.AccountTransaction{Amount: d("100")}

	eff, err := ledger.Plan(ref, existing, d("130"), ledger.OpSettle)
	require.NoError(t, err)
	assert.Equal(t, ledger.ActionUpdate, eff.Action)
	assert.True(t, eff.Delta.Equal(d("-30")), "pago de compra: +30 en el monto resta 30 al saldo")
	assert.True(t, eff.Amount.Equal(d("130")))
}

func TestPlan_SettleMismoMonto_NoHaceNada(t *testing.T) {
	ref := entity.DocumentRef{Kind: entity.DocumentSalePayment, ID: "p-3"}
	existing := &entity.AccountTransaction{Amount: d("75")}

	eff, err := ledger.Plan(ref, existing, d("75"), ledger.OpSettle)
	require.NoError(t, err)
	assert.Equal(t, ledger.ActionNone, eff.Action)
	assert.True(t, eff.Delta.IsZero())
}

func TestPlan_RemoveRevierteElAporte(t *testing.T) {
	ref := entity.DocumentRef{Kind: entity.DocumentSaleReturn, ID: "r-1"}
	existing := &entity.AccountTransaction{Amount: d("40")}

	eff, err := ledger.Plan(ref, existing, decimal.Zero, ledger.OpRemove)
	require.NoError(t, err)
	assert.Equal(t, ledger.ActionDelete, eff.Action)
	assert.True(t, eff.Delta.Equal(d("-40")))
}

func TestPlan_RemoveSinTransaccion(t *testing.T) {
	ref := entity.DocumentRef{Kind: entity.DocumentSaleInvoice, ID: "x"}
	eff, err := ledger.Plan(ref, nil, decimal.Zero, ledger.OpRemove)
	require.NoError(t, err)
	assert.Equal(t, ledger.ActionNone, eff.Action)
}

func TestPlan_MontoNegativo(t *testing.T) {
	ref := entity.DocumentRef{Kind: entity.DocumentSalePayment, ID: "x"}
	_, err := ledger.Plan(ref, nil, d("-1"), ledger.OpCreate)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "amount")
}

// Crear, ajustar varias veces y eliminar deja el saldo en cero.
func TestPlan_SecuenciaCompletaSaldoNeutro(t *testing.T) {
	ref := entity.DocumentRef{Kind: entity.DocumentSaleInvoice, ID: "inv-9"}
	balance := decimal.Zero
	var tx *entity.AccountTransaction

	for _, amount := range []string{"10", "25", "5", "5"} {
		eff, err := ledger.Plan(ref, tx, d(amount), ledger.OpSettle)
		require.NoError(t, err)
		balance = balance.Add(eff.Delta)
		tx = &entity.AccountTransaction{Amount: eff.Amount}
	}
	assert.True(t, balance.Equal(d("-5")), "el saldo refleja solo el último monto")

	eff, err := ledger.Plan(ref, tx, decimal.Zero, ledger.OpRemove)
	require.NoError(t, err)
	balance = balance.Add(eff.Delta)
	assert.True(t, balance.IsZero())
}
