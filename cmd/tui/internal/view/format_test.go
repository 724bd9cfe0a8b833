package view

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1000.00", FormatAmount(decimal.NewFromInt(1000)))
	assert.Equal(t, "25.50", FormatAmount(decimal.RequireFromString("25.5")))
}

func TestFormValidators(t *testing.T) {
	tests := []struct {
		name     string
		validate func(string) error
		input    string
		wantErr  bool
	}{
		{name: "amount ok", validate: positiveAmount, input: " 12.50 "},
		{name: "amount zero", validate: positiveAmount, input: "0", wantErr: true},
		{name: "amount text", validate: positiveAmount, input: "ten", wantErr: true},
		{name: "date empty", validate: optionalDate, input: ""},
		{name: "date ok", validate: optionalDate, input: "2025-01-31"},
		{name: "date wrong layout", validate: optionalDate, input: "31/01/2025", wantErr: true},
		{name: "limit ok", validate: memberLimit, input: "5"},
		{name: "limit too small", validate: memberLimit, input: "1", wantErr: true},
		{name: "name blank", validate: required("name"), input: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestParseOptionalDate(t *testing.T) {
	assert.True(t, parseOptionalDate("").IsZero())
	assert.Equal(t, 2025, parseOptionalDate("2025-03-04").Year())
}
