// Package qr renders TOTP provisioning URIs as QR code images.
package qr

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	libOTP "github.com/pquerna/otp"
)

const defaultSize = 256

// Encoder renders an otpauth:// provisioning URI into an inline image.
type Encoder interface {
	// EncodeProvisioningURI returns the QR code as a base64-encoded PNG.
	EncodeProvisioningURI(uri string) (string, error)
}

// PNG is an Encoder producing square PNG QR codes.
type PNG struct {
	size int
}

// NewPNG creates a PNG encoder. A non-positive size falls back to 256px.
func NewPNG(size int) *PNG {
	if size <= 0 {
		size = defaultSize
	}

	return &PNG{size: size}
}

// EncodeProvisioningURI renders the URI as a base64 PNG QR code.
func (p *PNG) EncodeProvisioningURI(uri string) (string, error) {
	key, err := libOTP.NewKeyFromURL(uri)
	if err != nil {
		return "", fmt.Errorf("qr: parse provisioning uri: %w", err)
	}

	img, err := key.Image(p.size, p.size)
	if err != nil {
		return "", fmt.Errorf("qr: render image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("qr: encode png: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
