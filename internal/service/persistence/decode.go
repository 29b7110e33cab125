package persistence

import (
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
)

var dataURLPrefix = regexp.MustCompile(`^data:image/[\w.+-]+;base64,`)

var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

var errUndecodable = errors.New("payload is not valid base64")

// StripDataURL removes a leading data:image/<type>;base64, header if present.
func StripDataURL(payload string) string {
	return dataURLPrefix.ReplaceAllString(payload, "")
}

// DecodePayload turns an encoded payload into raw bytes. The data-URL header
// and any whitespace are ignored, and both base64 alphabets are accepted with
// or without padding.
func DecodePayload(payload string) ([]byte, error) {
	body := strings.Join(strings.Fields(StripDataURL(strings.TrimSpace(payload))), "")

	for _, enc := range encodings {
		if data, err := enc.DecodeString(body); err == nil {
			return data, nil
		}
	}
	return nil, errUndecodable
}
