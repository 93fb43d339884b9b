package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/coverscan/internal/model"
)

// WriteJSON writes records as a JSON array of objects keyed by column name
func WriteJSON(path string, records []model.CountryRecord) error {
	if records == nil {
		records = []model.CountryRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
