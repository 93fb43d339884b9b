package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/coverscan/internal/model"
)

// Format is an output file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// SheetName is the worksheet name used in xlsx exports
const SheetName = "Country_analysis"

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatCSV, FormatJSON:
		return f, nil
	case "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use xlsx, csv or json)", s)
	}
}

// OutputPath derives the export path from the requested countries:
// dir/Final_<country-1>-<country-2>-....<ext>
func OutputPath(dir string, countries []string, format Format) string {
	parts := make([]string, len(countries))
	for i, c := range countries {
		parts[i] = strings.ReplaceAll(strings.ToLower(c), " ", "-")
	}
	return filepath.Join(dir, fmt.Sprintf("Final_%s.%s", strings.Join(parts, "-"), format))
}

// Write exports records to path in the given format, creating parent directories
func Write(path string, format Format, records []model.CountryRecord) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	switch format {
	case FormatXLSX:
		return WriteXLSX(path, records)
	case FormatCSV:
		return WriteCSV(path, records)
	case FormatJSON:
		return WriteJSON(path, records)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
