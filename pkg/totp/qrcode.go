package totp

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

const defaultQRSize = 256

// QRCode renders an otpauth URI as a PNG image of size x size pixels.
// A non-positive size selects 256.
func QRCode(uri string, size int) ([]byte, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, ErrEmptyURI
	}
	if size <= 0 {
		size = defaultQRSize
	}
	png, err := skipqrcode.Encode(uri, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerateQRCode, err)
	}
	return png, nil
}

// QRCodeDataURI renders uri as a base64 PNG data URI for inline <img> tags.
func QRCodeDataURI(uri string, size int) (string, error) {
	png, err := QRCode(uri, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
