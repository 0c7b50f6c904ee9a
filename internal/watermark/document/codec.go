package document

import "github.com/auroraa/watermark-engine/internal/werr"

func decodeByMime(data []byte, mimeType string) (*TextDocument, error) {
	switch mimeType {
	case MimeDocx:
		return DecodeDocx(data)
	case MimePdf:
		return DecodePdf(data)
	default:
		return nil, werr.UnsupportedMime("document.decodeByMime", mimeType)
	}
}

func encodeByMime(origData []byte, mimeType string, doc *TextDocument) ([]byte, error) {
	switch mimeType {
	case MimeDocx:
		return EncodeDocx(origData, doc)
	case MimePdf:
		return EncodePdf(origData, doc)
	default:
		return nil, werr.UnsupportedMime("document.encodeByMime", mimeType)
	}
}
