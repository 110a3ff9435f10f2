package validation

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/username/vatreview/src/logger"
)

// ErrValidationFailed wraps every validation rejection so callers can match on it.
var ErrValidationFailed = fmt.Errorf("validation failed")

// AllowedClientContentTypes is a map for quick lookup of allowed
// client-declared MIME types for ledger and returns uploads. Only text CSV is
// accepted; binary spreadsheet formats must be exported to CSV first.
var AllowedClientContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true, // often used for CSV by older Excel
	"text/plain":               true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": false, // .xlsx explicitly disallowed
}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	if allowed, exists := AllowedClientContentTypes[strings.ToLower(contentType)]; !exists || !allowed {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("%w: client-declared file type '%s' is not allowed for CSV upload", ErrValidationFailed, contentType)
	}
	return nil
}

// isBinaryContent checks if a buffer contains binary control characters (like
// null bytes) which indicate the file is likely not a valid text-based CSV.
func isBinaryContent(buf []byte) bool {
	if bytes.IndexByte(buf, 0) != -1 {
		return true
	}
	if !utf8.Valid(buf) {
		return true
	}
	return false
}

// ValidateFileContentByMagicBytes checks the actual file content signature and
// inspects the content to ensure it is text-based.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("%w: file is nil", ErrValidationFailed)
	}

	buffer := make([]byte, 1024)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// Reset the read pointer so the parser can read the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if n == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidationFailed)
	}

	if isBinaryContent(buffer[:n]) {
		logger.L.Warn("File rejected: binary content detected in text upload")
		return "application/octet-stream", fmt.Errorf("%w: file appears to be binary, not text/CSV", ErrValidationFailed)
	}

	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	allowedDetectedTypes := map[string]bool{
		"text/plain":      true,
		"text/csv":        true,
		"application/csv": true,
	}
	if !allowedDetectedTypes[detectedContentType] {
		logger.L.Warn("Disallowed detected file content type", "detectedContentType", detectedContentType)
		return detectedContentType, fmt.Errorf("%w: detected file content type '%s' is not allowed", ErrValidationFailed, detectedContentType)
	}

	return detectedContentType, nil
}
