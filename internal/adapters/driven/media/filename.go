package media

import (
	"crypto/sha256"
	"encoding/hex"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// hashPrefixLen is the number of hex characters of the content hash used in file names.
const hashPrefixLen = 16

// preferredExt pins extensions where the mime table offers several (image/jpeg -> .jpe, .jpeg, .jpg).
var preferredExt = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
}

// FileName returns the content-addressed file name for a downloaded attachment.
func FileName(rawURL, contentType string, data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:hashPrefixLen] + Extension(rawURL, contentType, data)
}

// Extension picks a file extension from the URL path, then the "format" query
// parameter, then the Content-Type header, then the content itself.
func Extension(rawURL, contentType string, data []byte) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := path.Ext(u.Path); isExtension(ext) {
			return strings.ToLower(ext)
		}
		if format := u.Query().Get("format"); isExtension("." + format) {
			return "." + strings.ToLower(format)
		}
	}

	mt := baseType(contentType)
	if mt == "" || mt == "application/octet-stream" {
		mt = baseType(http.DetectContentType(data))
	}
	if ext, ok := preferredExt[mt]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mt); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func baseType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mt
}

// isExtension accepts short alphanumeric extensions such as ".jpg" or ".mp4".
func isExtension(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 || ext[0] != '.' {
		return false
	}
	for _, r := range ext[1:] {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9') {
			return false
		}
	}
	return true
}
