// Package share encodes a configuration as a QR code so it can be moved to
// another device by scanning.
package share

import (
	"bytes"
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/ivlev/studio3d/internal/studio"
)

// MaxPayload is the byte capacity of a version 40 QR code at medium
// recovery level.
const MaxPayload = 2331

// Payload is the compact JSON encoding embedded in the code.
func Payload(cfg studio.UnifiedConfig) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	data := bytes.TrimRight(b.Bytes(), "\n")
	if len(data) > MaxPayload {
		return nil, fmt.Errorf("share: config is %d bytes, a QR code holds at most %d", len(data), MaxPayload)
	}
	return data, nil
}

// PNG renders the QR code image at size×size pixels.
func PNG(cfg studio.UnifiedConfig, size int) ([]byte, error) {
	data, err := Payload(cfg)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(data), qrcode.Medium, size)
}

// WriteQR writes the QR code PNG to path.
func WriteQR(cfg studio.UnifiedConfig, path string, size int) error {
	data, err := Payload(cfg)
	if err != nil {
		return err
	}
	return qrcode.WriteFile(string(data), qrcode.Medium, size, path)
}
