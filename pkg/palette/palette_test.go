package palette

import (
	"fmt"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Run("packs nibbles", func(t *testing.T) {
		c, err := Encode(0x1, 0x2, 0x3)
		require.NoError(t, err)
		assert.Equal(t, ColorIndex(0x123), c)
	})

	t.Run("rejects channels outside nibble bounds", func(t *testing.T) {
		cases := [][3]int{{16, 0, 0}, {0, 16, 0}, {0, 0, 16}, {-1, 0, 0}}
		for _, tc := range cases {
			_, err := Encode(tc[0], tc[1], tc[2])
			assert.ErrorIs(t, err, ErrOutOfRange, "channels %v", tc)
		}
	})

	t.Run("names the first bad channel", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			_, err := Encode(16, 16, 16)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "red channel 16")
		}
		_, err := Encode(0, -1, 99)
		assert.Contains(t, err.Error(), "green channel -1")
	})
}

func TestDecode_AllChannelCombinations(t *testing.T) {
	for r := 0; r <= MaxChannel; r++ {
		for g := 0; g <= MaxChannel; g++ {
			for b := 0; b <= MaxChannel; b++ {
				c, err := Encode(r, g, b)
				require.NoError(t, err)

				want := fmt.Sprintf("#%x%x%x", r, g, b)
				require.Equal(t, want, Decode(c))
			}
		}
	}
}

func TestEncode_LeftInverseOfChannels(t *testing.T) {
	for i := 0; i < Count; i++ {
		c := ColorIndex(i)
		r, g, b := Channels(c)

		back, err := Encode(r, g, b)
		require.NoError(t, err)
		require.Equal(t, c, back)
	}
}

func TestDecode_KnownValues(t *testing.T) {
	assert.Equal(t, "#000", Decode(0))
	assert.Equal(t, "#fff", Decode(MaxIndex))
	assert.Equal(t, "#064", Decode(100))
	assert.Equal(t, "#028", Decode(40))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, ColorIndex(0).Validate())
	assert.NoError(t, MaxIndex.Validate())
	assert.ErrorIs(t, ColorIndex(4096).Validate(), ErrOutOfRange)
}

func TestFromInt(t *testing.T) {
	c, err := FromInt(4095)
	require.NoError(t, err)
	assert.Equal(t, MaxIndex, c)

	_, err = FromInt(4096)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = FromInt(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestRGBA(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x00, B: 0x88, A: 0xff}, RGBA(0xf08))
	assert.Equal(t, color.RGBA{A: 0xff}, RGBA(0))
}

func TestIndexAt(t *testing.T) {
	c, err := IndexAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, ColorIndex(0), c)

	c, err = IndexAt(0.999, 0.999)
	require.NoError(t, err)
	assert.Equal(t, MaxIndex, c)

	// x = floor(0.5*64) = 32, y = floor(0.25*64) = 16
	c, err = IndexAt(0.5, 0.25)
	require.NoError(t, err)
	assert.Equal(t, ColorIndex(32+16*64), c)

	x, y := CellOf(c)
	assert.Equal(t, 32, x)
	assert.Equal(t, 16, y)

	_, err = IndexAt(1.0, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestNextPrev(t *testing.T) {
	assert.Equal(t, ColorIndex(1), Next(0))
	assert.Equal(t, MaxIndex, Next(MaxIndex))
	assert.Equal(t, ColorIndex(0), Prev(0))
	assert.Equal(t, ColorIndex(41), Prev(42))
}

func TestPaintable(t *testing.T) {
	assert.False(t, Paintable(Unpainted))
	assert.True(t, Paintable(1))
	assert.True(t, Paintable(MaxIndex))
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    ColorIndex
		wantErr bool
	}{
		{"#f00", 0xf00, false},
		{"#0aF", 0x0af, false},
		{"100", 100, false},
		{"0", Unpainted, false},
		{"#ff00", 0, true},
		{"#xyz", 0, true},
		{"4096", 0, true},
		{"-1", 0, true},
		{"red", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}

	t.Run("inverse of Decode", func(t *testing.T) {
		for i := 0; i < Count; i += 97 {
			c, err := Parse(Decode(ColorIndex(i)))
			require.NoError(t, err)
			assert.Equal(t, ColorIndex(i), c)
		}
	})
}
