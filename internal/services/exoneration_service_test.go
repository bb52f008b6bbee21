package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
)

func TestBuildExonerationDefaultsToFullOwed(t *testing.T) {
	inv := newInvoice("780.00")
	inv.Payments = []models.Payment{{Amount: d("130.00")}}
	RecomputeLedger(inv)

	exo, err := buildExoneration(inv, ExonerateInput{Reason: "hardship", AuthorizedByID: 1})
	require.NoError(t, err)

	assert.True(t, exo.OriginalAmount.Equal(d("650.00")))
	assert.True(t, exo.ExoneratedAmount.Equal(d("650.00")))
	assert.False(t, exo.IsPartial())
}

func TestBuildExonerationPartialAmount(t *testing.T) {
	inv := newInvoice("500.00")
	RecomputeLedger(inv)

	amount := d("200.00")
	exo, err := buildExoneration(inv, ExonerateInput{
		Reason:         "charity program",
		AuthorizedByID: 1,
		Amount:         &amount,
	})
	require.NoError(t, err)

	assert.True(t, exo.OriginalAmount.Equal(d("500.00")))
	assert.True(t, exo.ExoneratedAmount.Equal(d("200.00")))
	assert.True(t, exo.IsPartial())
}

func TestBuildExonerationRejectsAmountAboveOwed(t *testing.T) {
	inv := newInvoice("100.00")
	RecomputeLedger(inv)

	amount := d("100.01")
	_, err := buildExoneration(inv, ExonerateInput{Reason: "x", AuthorizedByID: 1, Amount: &amount})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "exonerated_amount", valErr.Field)
}

func TestBuildExonerationRejectsNonPositiveAmount(t *testing.T) {
	inv := newInvoice("100.00")
	RecomputeLedger(inv)

	zero := d("0")
	_, err := buildExoneration(inv, ExonerateInput{Reason: "x", AuthorizedByID: 1, Amount: &zero})
	assert.Error(t, err)

	negative := d("-5")
	_, err = buildExoneration(inv, ExonerateInput{Reason: "x", AuthorizedByID: 1, Amount: &negative})
	assert.Error(t, err)
}

func TestBuildExonerationRejectsSettledInvoice(t *testing.T) {
	inv := newInvoice("100.00")
	inv.Payments = []models.Payment{{Amount: d("100.00")}}
	RecomputeLedger(inv)
	require.Equal(t, models.InvoiceStatusPaid, inv.Status)

	_, err := buildExoneration(inv, ExonerateInput{Reason: "hardship", AuthorizedByID: 1})

	var invalidState *InvalidStateError
	require.ErrorAs(t, err, &invalidState)
	assert.Equal(t, models.InvoiceStatusPaid, invalidState.Status)
}

func TestBuildExonerationRejectsOverpaidInvoice(t *testing.T) {
	inv := newInvoice("100.00")
	inv.Payments = []models.Payment{{Amount: d("150.00")}}
	RecomputeLedger(inv)

	_, err := buildExoneration(inv, ExonerateInput{Reason: "hardship", AuthorizedByID: 1})

	var invalidState *InvalidStateError
	assert.ErrorAs(t, err, &invalidState)
}

func TestBuildExonerationTrimsFields(t *testing.T) {
	inv := newInvoice("50.00")
	RecomputeLedger(inv)

	exo, err := buildExoneration(inv, ExonerateInput{
		Reason:            "  social assistance  ",
		AuthorizedByID:    3,
		AuthorizationCode: " AUTH-42 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "social assistance", exo.Reason)
	assert.Equal(t, "AUTH-42", exo.AuthorizationCode)
}

func TestMarkPrintedUpdateGuardsOnPrintFlag(t *testing.T) {
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	now := time.Now()
	stmt := markPrintedUpdate(db, 7, &now).Statement

	// The WHERE clause must carry the unset-flag condition so a second
	// concurrent call matches zero rows instead of restamping PrintedAt
	assert.Contains(t, stmt.SQL.String(), "id = ? AND is_printed = ?")
	assert.Contains(t, stmt.Vars, false)
}

func TestAlreadyExoneratedUnwrapsToInvalidState(t *testing.T) {
	err := &AlreadyExoneratedError{InvoiceNumber: "INV-00000007"}

	var invalidState *InvalidStateError
	require.ErrorAs(t, err, &invalidState)
	assert.Equal(t, models.InvoiceStatusExonerated, invalidState.Status)
}
