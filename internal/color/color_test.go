package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewColor(t *testing.T) {
	c := NewColor("\033[99m")
	assert.Equal(t, "\033[99mtext\033[0m", c("text"))
	assert.Equal(t, "", c(""), "empty text gets no escape sequences")
}

func TestPredefinedColors(t *testing.T) {
	tests := []struct {
		name  string
		color Color
		code  string
	}{
		{"bold", Bold, boldCode},
		{"gray", Gray, grayCode},
		{"green", Green, greenCode},
		{"yellow", Yellow, yellowCode},
		{"red", Red, redCode},
		{"cyan", Cyan, cyanCode},
		{"purple", Purple, purpleCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code+"x"+resetCode, tt.color("x"))
		})
	}
}

func TestPalette(t *testing.T) {
	assert.Equal(t, "code", Palette{}.Apply(Green, "code"))
	assert.False(t, Palette{}.Enabled())

	p := NewPalette(true)
	assert.True(t, p.Enabled())
	assert.Equal(t, greenCode+"code"+resetCode, p.Apply(Green, "code"))
	assert.Equal(t, "code", p.Apply(nil, "code"))
	assert.Equal(t, "code", p.Apply(Plain, "code"))
}
