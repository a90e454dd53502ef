package qrcode

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNG(t *testing.T) {
	img, err := PNG("LIBOCCULUS:A1B2C3:01HZX3J0000000000000000000")
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, Size, decoded.Bounds().Dx())
	assert.Equal(t, Size, decoded.Bounds().Dy())

	uri := DataURI(img)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}
