package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// NormalizeSlug lowercases a country name and joins its words with hyphens,
// e.g. "United Kingdom" -> "united-kingdom"
func NormalizeSlug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

// ReadSlugsFromFile reads country slugs from a file, one per line.
// Blank lines and lines starting with # are skipped. Duplicates are kept:
// every requested line yields a row.
func ReadSlugsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var slugs []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		slugs = append(slugs, NormalizeSlug(line))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return slugs, nil
}
