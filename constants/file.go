package constants

import (
	"path/filepath"
	"strings"
)

// AllowedExtensions holds the file extensions the sync run will adopt as
// invoices. XML is included for raw CFDI documents stored next to their PDFs.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"xml":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file name is hidden (starts with '.').
func IsHidden(name string) bool {
	return strings.HasPrefix(filepath.Base(name), ".")
}

// BaseName strips the directory and the extension from a file name or path.
func BaseName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
