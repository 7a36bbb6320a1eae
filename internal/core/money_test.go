package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"12.34", "12.34", false},
		{" 5 ", "5", false},
		{"0.01", "0.01", false},
		{".5", "0.5", false},
		{"999999999999.99", "999999999999.99", false},
		{"12,34", "", true},
		{"1,234", "", true},
		{"1e2", "", true},
		{"1E2", "", true},
		{"1e50000000", "", true},
		{"1000000000000", "", true},
		{"12.345", "", true},
		{"+5", "", true},
		{".", "", true},
		{"7.", "", true},
		{"0", "", true},
		{"0.00", "", true},
		{"-3", "", true},
		{"", "", true},
		{"   ", "", true},
		{"abc", "", true},
		{"NaN", "", true},
		{"1,234.50", "", true},
		{"Infinity", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
