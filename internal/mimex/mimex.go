// Package mimex resolves the content type of decrypted payloads and decides how
// they are presented: as text, parsed JSON, or an opaque blob.
package mimex

import (
	"bytes"
	"encoding/json"
	"mime"
	"strings"
)

// Content types the vault recognizes by name. Anything else is carried
// through as given and presented as a blob unless it is textual.
const (
	// OctetStream is the fallback when neither the caller nor Sniff can name
	// the payload.
	OctetStream = "application/octet-stream"
	// JSON payloads are parsed before they are shown.
	JSON = "application/json"
	// XML is shown as text.
	XML = "application/xml"
	// SVG is matched on a leading <svg tag, ignoring whitespace and case.
	SVG = "image/svg+xml"
	// JPEG is matched on the FF D8 start-of-image marker.
	JPEG = "image/jpeg"
	PNG  = "image/png"
	GIF  = "image/gif"
	// WEBP needs both the RIFF header and the WEBP form type.
	WEBP = "image/webp"
	PDF  = "application/pdf"
)

var aliases = map[string]string{
	"image/jpg":   JPEG,
	"image/pjpeg": JPEG,
	"text/json":   JSON,
}

var jpegMagic = []byte{0xFF, 0xD8}

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Sniff matches the start of b against a fixed signature table. ok is false
// when nothing matches.
func Sniff(b []byte) (ct string, ok bool) {
	switch {
	case bytes.HasPrefix(b, jpegMagic):
		return JPEG, true
	case bytes.HasPrefix(b, pngMagic):
		return PNG, true
	case bytes.HasPrefix(b, []byte("GIF87a")), bytes.HasPrefix(b, []byte("GIF89a")):
		return GIF, true
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return WEBP, true
	case bytes.HasPrefix(b, []byte("%PDF")):
		return PDF, true
	}

	trimmed := bytes.TrimLeft(b, " \t\r\n\f\v")
	if len(trimmed) >= 4 && strings.EqualFold(string(trimmed[:4]), "<svg") {
		return SVG, true
	}
	return "", false
}

// Normalize lowercases ct, strips parameters and maps known aliases
// (image/jpg becomes image/jpeg). Unparseable values normalize to "".
func Normalize(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	if alias, ok := aliases[mediaType]; ok {
		return alias
	}
	return mediaType
}

// Resolve picks the content type for a decrypted payload: the recorded type
// when present, then the sniffed type, then application/octet-stream.
func Resolve(recorded string, plaintext []byte) string {
	if ct := Normalize(recorded); ct != "" {
		return ct
	}
	if ct, ok := Sniff(plaintext); ok {
		return ct
	}
	return OctetStream
}

// IsTextual reports whether ct is shown as text rather than as a blob.
func IsTextual(ct string) bool {
	ct = Normalize(ct)
	switch {
	case strings.HasPrefix(ct, "text/"):
		return true
	case ct == JSON, ct == XML, ct == SVG:
		return true
	}
	return false
}

// Kind tells the caller how to show a Presentation.
type Kind string

const (
	KindText Kind = "text"
	KindJSON Kind = "json"
	KindBlob Kind = "blob"
)

// Presentation is the displayable form of a decrypted payload.
type Presentation struct {
	Kind        Kind
	ContentType string
	Text        string
	JSON        any
	Data        []byte
}

// Present builds a Presentation for plaintext of the given resolved content
// type. A JSON payload that does not parse degrades to raw text.
func Present(ct string, plaintext []byte) Presentation {
	ct = Normalize(ct)
	if ct == "" {
		ct = OctetStream
	}

	if !IsTextual(ct) {
		return Presentation{Kind: KindBlob, ContentType: ct, Data: plaintext}
	}

	p := Presentation{Kind: KindText, ContentType: ct, Text: string(plaintext)}
	if ct == JSON {
		var v any
		if err := json.Unmarshal(plaintext, &v); err == nil {
			p.Kind = KindJSON
			p.JSON = v
		}
	}
	return p
}

// Extension returns a file suffix for ct, used when materializing blobs.
func Extension(ct string) string {
	switch Normalize(ct) {
	case JPEG:
		return ".jpg"
	case PDF:
		return ".pdf"
	case OctetStream, "":
		return ".bin"
	}
	exts, err := mime.ExtensionsByType(Normalize(ct))
	if err != nil || len(exts) == 0 {
		return ".bin"
	}
	return exts[0]
}

// FromFileName guesses the content type of a local file from its extension.
func FromFileName(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return Normalize(mime.TypeByExtension(name[idx:]))
}
