package document

import (
	"strconv"
	"strings"
)

const frameMagic = "WM1|"
const maxFrameLength = 4096

// buildFrame wraps payload as "WM1|" || len(payload) || "|" || payload, per
// spec §4.7.
func buildFrame(payload string) string {
	return frameMagic + strconv.Itoa(len(payload)) + "|" + payload
}

// parseFrame locates the magic prefix in raw (a lenient UTF-8 decode of the
// majority-voted bitstream), reads the decimal length field, and slices out
// the payload. raw may contain trailing garbage past the frame — only
// bytes the length field claims are consumed.
func parseFrame(raw string) (payload string, err error) {
	idx := strings.Index(raw, frameMagic)
	if idx < 0 {
		return "", errNoFrame
	}
	rest := raw[idx+len(frameMagic):]

	sep := strings.IndexByte(rest, '|')
	if sep < 0 {
		return "", errBadLength
	}
	lengthField := rest[:sep]
	n, convErr := strconv.Atoi(lengthField)
	if convErr != nil || n < 1 || n > maxFrameLength {
		return "", errBadLength
	}

	body := rest[sep+1:]
	if len(body) < n {
		return "", errBadLength
	}
	return body[:n], nil
}
