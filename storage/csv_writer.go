package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"travel-scout/models"
	"travel-scout/utils"
)

// CSVWriter writes ranked listings to a CSV file
type CSVWriter struct {
	filePath string
	logger   *utils.Logger
}

// NewCSVWriter creates a new CSVWriter
func NewCSVWriter(filePath string, logger *utils.Logger) *CSVWriter {
	return &CSVWriter{filePath: filePath, logger: logger}
}

// WriteRanked writes ranked listings in rank order
func (w *CSVWriter) WriteRanked(ranked []models.RecommendedListing) error {
	// Ensure output directory exists
	dir := filepath.Dir(w.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{
		"rank", "id", "name", "url", "price", "rating",
		"score", "sentiment_score", "keyword_matches", "error",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, r := range ranked {
		row := []string{
			strconv.Itoa(i + 1),
			r.ID,
			r.Name,
			r.URL,
			optionalFloat(r.Price),
			optionalFloat(r.Rating),
			strconv.FormatFloat(r.Score, 'f', 2, 64),
			strconv.Itoa(r.MatchReasons.SentimentScore),
			strconv.Itoa(r.MatchReasons.KeywordMatches),
			r.Error,
		}
		if err := writer.Write(row); err != nil {
			w.logger.Error("Failed to write CSV row for '%s': %v", r.ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	w.logger.Info("Ranked listings written to: %s (%d rows)", w.filePath, len(ranked))
	return nil
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
