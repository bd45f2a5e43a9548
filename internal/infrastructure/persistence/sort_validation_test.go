package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirection(t *testing.T) {
	tests := map[string]string{
		"asc":                                  "ASC",
		" ASC ":                                "ASC",
		"Asc":                                  "ASC",
		"desc":                                 "DESC",
		"":                                     "DESC",
		"sideways":                             "DESC",
		"ASC; DROP TABLE payment_transactions": "DESC",
	}
	for in, want := range tests {
		assert.Equal(t, want, direction(in), "input %q", in)
	}
}

func TestTransactionSortColumn(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty uses paid_at", "", "paid_at"},
		{"whitelisted", "amount", "amount"},
		{"trimmed", "  status ", "status"},
		{"case sensitive", "AMOUNT", "paid_at"},
		{"unknown column", "resident_id", "paid_at"},
		{"injection", "amount; DELETE FROM payment_transactions", "paid_at"},
		{"subquery", "(SELECT 1)", "paid_at"},
		{"comment", "amount--", "paid_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transactionSort.column(tt.input))
		})
	}
}
