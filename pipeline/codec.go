package pipeline

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"

	iface "github.com/patcharaph/AI-Privacy-Guard/interface"
)

// Decode turns raw bytes into a BGR Mat. The caller owns the Mat and must
// Close it. Corrupt or unsupported bytes come back as a *DecodeError.
func Decode(data []byte, filename string) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.Mat{}, &iface.DecodeError{Filename: filename, Reason: "empty payload"}
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, &iface.DecodeError{Filename: filename, Reason: err.Error()}
	}
	if mat.Empty() {
		// IMDecode signals failure with an empty Mat.
		_ = mat.Close()
		return gocv.Mat{}, &iface.DecodeError{Filename: filename, Reason: "empty or unsupported format"}
	}
	return mat, nil
}

// Encode re-encodes a BGR Mat into an embeddable data-URL string. Format
// is "png" or "jpg"; anything else falls back to png.
func Encode(img gocv.Mat, format string) (string, error) {
	ext, mime := gocv.PNGFileExt, "png"
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		ext, mime = gocv.JPEGFileExt, "jpeg"
	}
	buf, err := gocv.IMEncode(ext, img)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", mime, err)
	}
	defer buf.Close()
	return "data:image/" + mime + ";base64," +
		base64.StdEncoding.EncodeToString(buf.GetBytes()), nil
}

// ValidateUpload rejects oversized files and unknown extensions before any
// decode attempt. Returns a human-readable reason on rejection.
func ValidateUpload(data []byte, filename string, maxSizeMB int, allowed []string) (bool, string) {
	sizeMB := float64(len(data)) / (1024 * 1024)
	if maxSizeMB > 0 && sizeMB > float64(maxSizeMB) {
		return false, fmt.Sprintf("file size (%.1fMB) exceeds maximum (%dMB)", sizeMB, maxSizeMB)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, a := range allowed {
		if ext == a {
			return true, ""
		}
	}
	return false, fmt.Sprintf("file format %q not supported, allowed: %v", ext, allowed)
}
