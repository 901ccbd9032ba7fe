// Package extract turns uploaded files into bounded, transmit-safe
// representations for the AI service.
package extract

import (
	"path/filepath"
	"strings"
)

// Category is the closed set of extraction strategies. Adding a category
// means adding a case to every switch over it.
type Category int

const (
	CategoryText Category = iota
	CategoryImage
	CategorySpreadsheet
	CategoryDocument
)

func (c Category) String() string {
	switch c {
	case CategoryText:
		return "text"
	case CategoryImage:
		return "image"
	case CategorySpreadsheet:
		return "spreadsheet"
	case CategoryDocument:
		return "document"
	}
	return "unknown"
}

// Classify picks the extraction strategy from the file name extension and the
// MIME type declared by the browser.
func Classify(name, declaredMIME string) Category {
	if strings.HasPrefix(declaredMIME, "image/") {
		return CategoryImage
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls":
		return CategorySpreadsheet
	case ".pdf":
		return CategoryDocument
	}
	if declaredMIME == "application/pdf" {
		return CategoryDocument
	}
	return CategoryText
}
