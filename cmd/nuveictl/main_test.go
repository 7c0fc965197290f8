package main

import (
	"testing"

	"github.com/kevin07696/nuvei-gateway/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpiry(t *testing.T) {
	month, year, err := parseExpiry("0927")
	require.NoError(t, err)
	assert.Equal(t, 9, month)
	assert.Equal(t, 2027, year)

	month, year, err = parseExpiry("")
	require.NoError(t, err)
	assert.Zero(t, month)
	assert.Zero(t, year)

	_, _, err = parseExpiry("9/27")
	assert.Error(t, err)
	_, _, err = parseExpiry("092027")
	assert.Error(t, err)
}

func TestTxFlags_Instrument(t *testing.T) {
	tests := []struct {
		name string
		tx   txFlags
		want interface{}
	}{
		{name: "card", tx: txFlags{cardNumber: "4111111111111111", expiry: "1226"}, want: &models.Card{}},
		{name: "track", tx: txFlags{trackData: ";4111111111111111=2612?"}, want: &models.Card{}},
		{name: "stored card wins", tx: txFlags{cardRef: "2967531234567890", cardNumber: "4111"}, want: &models.StoredCard{}},
		{name: "bank account", tx: txFlags{accountNumber: "856667", routingNumber: "021000021"}, want: &models.BankAccount{}},
		{name: "stored ach", tx: txFlags{achRef: "SA1"}, want: &models.StoredBankAccount{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.tx.instrument()
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}

	_, err := txFlags{}.instrument()
	assert.Error(t, err)
}

func TestTxFlags_BankAccountCarriesCheckType(t *testing.T) {
	inst, err := txFlags{accountNumber: "856667", routingNumber: "021000021", checkType: "S", secCode: "PPD"}.instrument()
	require.NoError(t, err)

	acct := inst.(*models.BankAccount)
	assert.Equal(t, models.AccountTypeSavings, acct.BankDetails().AccountType)
	assert.Equal(t, models.SECCodePPD, txFlags{secCode: "PPD"}.options().SECCode)
}
