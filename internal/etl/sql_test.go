package etl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSQLCell(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		in   interface{}
		want interface{}
	}{
		{nil, ""},
		{[]byte("abc"), "abc"},
		{ts, "2024-03-01T12:30:00Z"},
		{int64(7), int64(7)},
		{int64(9007199254740993), int64(9007199254740993)},
		{int32(-2), int64(-2)},
		{float32(0.5), 0.5},
		{1.25, 1.25},
		{true, true},
		{"x", "x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqlCell(tt.in))
	}
}
