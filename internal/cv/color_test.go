package cv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorsMatch(t *testing.T) {
	expected := BGR(100, 100, 100)

	tests := []struct {
		name      string
		observed  Color
		tolerance int
		want      bool
	}{
		{"identical", BGR(100, 100, 100), DefaultTolerance, true},
		{"just inside default", BGR(105, 105, 101), DefaultTolerance, true},    // 25+25+1 = 51
		{"equal to tolerance is outside", BGR(106, 106, 102), 76, false},      // 36+36+4 = 76
		{"one below tolerance", BGR(105, 105, 105), 76, true},                 // 75
		{"far away", BGR(0, 0, 0), DefaultTolerance, false},
		{"zero tolerance uses default", BGR(105, 105, 105), 0, true},
		{"custom tolerance widens", BGR(110, 110, 110), 301, true},            // 300
		{"custom tolerance boundary", BGR(110, 110, 110), 300, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ColorsMatch(tt.observed, expected, tt.tolerance))
		})
	}
}

func TestColorsMatchIsSymmetric(t *testing.T) {
	a := BGR(10, 200, 30)
	b := BGR(14, 197, 31)
	assert.Equal(t, ColorsMatch(a, b, DefaultTolerance), ColorsMatch(b, a, DefaultTolerance))
	assert.Equal(t, a.SquaredDistance(b), b.SquaredDistance(a))
}

func TestColorInvert(t *testing.T) {
	assert.Equal(t, BGR(255, 0, 155), BGR(0, 255, 100).Invert())
}
