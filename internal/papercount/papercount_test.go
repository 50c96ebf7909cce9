package papercount

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalc(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		want       int
	}{
		{"same book", 1120, 1150, 31},
		{"same book reversed floors to zero", 1150, 1120, 0},
		{"same number", 1120, 1120, 1},
		{"cross book", 1120, 1230, 111},
		{"book boundary", 1199, 1200, 2},
		{"full first book", 1100, 1199, 100},
		{"skipped books not counted", 1150, 1420, 71},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Calc(tt.start, tt.end))
		})
	}
}
