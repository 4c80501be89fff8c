package comic

import (
	"encoding/base64"
	"path"
	"strings"
)

// MIMEType infers an image MIME type from the extension of a page
// identifier. Unknown extensions are treated as PNG.
func MIMEType(pageID string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(pageID), "."))
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	case "svg":
		return "image/svg+xml"
	default:
		return "image/png"
	}
}

// DataURL encodes raw image bytes as a display-ready data URL.
func DataURL(pageID string, data []byte) string {
	return DataURLBase64(pageID, base64.StdEncoding.EncodeToString(data))
}

// DataURLBase64 wraps already base64 encoded image bytes in a data URL.
func DataURLBase64(pageID, encoded string) string {
	return "data:" + MIMEType(pageID) + ";base64," + encoded
}
