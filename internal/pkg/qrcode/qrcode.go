// Package qrcode renders redemption payloads as scannable PNG images.
package qrcode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// Size is the rendered edge length in pixels.
const Size = 300

// PNG encodes payload as a Size x Size QR code.
func PNG(payload string) ([]byte, error) {
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	code, err = barcode.Scale(code, Size, Size)
	if err != nil {
		return nil, fmt.Errorf("qr scale: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI wraps PNG bytes for inline display.
func DataURI(img []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(img)
}
