package money_test

import (
	"encoding/json"
	"testing"

	"github.com/jlzm/MoneyNotes/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    money.Amount
		wantErr bool
	}{
		{name: "integer", input: "42", want: 4200},
		{name: "two decimals", input: "42.50", want: 4250},
		{name: "one decimal", input: "42.5", want: 4250},
		{name: "leading dot", input: ".99", want: 99},
		{name: "zero", input: "0", want: 0},
		{name: "extra decimals truncated", input: "1.239", want: 123},
		{name: "negative", input: "-0.05", want: -5},
		{name: "explicit plus", input: "+3.10", want: 310},
		{name: "whitespace", input: " 7.00 ", want: 700},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := money.Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "42.50", money.Amount(4250).String())
	assert.Equal(t, "0.00", money.Amount(0).String())
	assert.Equal(t, "-0.05", money.Amount(-5).String())
	assert.Equal(t, "100.00", money.Amount(10000).String())
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Amount money.Amount `json:"amount"`
	}

	data, err := json.Marshal(payload{Amount: 4250})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":42.50}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"amount":42.5}`), &decoded))
	assert.Equal(t, money.Amount(4250), decoded.Amount)

	// Quoted strings are accepted too.
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"13.37"}`), &decoded))
	assert.Equal(t, money.Amount(1337), decoded.Amount)
}
