package corpus

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"corpus-rag/internal/models"
)

// recordSource says how a file's rows become document texts. It is resolved
// once per file (per sheet for workbooks) from the header row.
type recordSource struct {
	// textColumn is the index of the designated text column, -1 when the
	// header has no such column and whole rows are concatenated instead.
	textColumn int
}

func resolveSource(header []string) recordSource {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), models.TextColumnName) {
			return recordSource{textColumn: i}
		}
	}
	return recordSource{textColumn: -1}
}

// documentsFromRows applies a resolved record source to data rows.
// rowIndex is the running 0-based data-row counter for the file.
func documentsFromRows(src recordSource, rows [][]string, file string, rowIndex int) ([]models.Document, int) {
	var docs []models.Document
	for _, row := range rows {
		var text string
		if src.textColumn >= 0 {
			if src.textColumn < len(row) {
				text = row[src.textColumn]
			}
		} else {
			text = strings.Join(row, " ")
		}
		text = strings.TrimSpace(text)
		if text != "" {
			docs = append(docs, models.Document{
				Text:       text,
				SourceFile: file,
				RowIndex:   rowIndex,
			})
		}
		rowIndex++
	}
	return docs, rowIndex
}

func parseCSV(path string, comma rune) ([]models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	src := resolveSource(records[0])
	docs, _ := documentsFromRows(src, records[1:], filepath.Base(path), 0)
	return docs, nil
}

func parseWorkbook(path string) ([]models.Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []models.Document
	rowIndex := 0
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
		}
		if len(rows) == 0 {
			continue
		}
		src := resolveSource(rows[0])
		var sheetDocs []models.Document
		sheetDocs, rowIndex = documentsFromRows(src, rows[1:], filepath.Base(path), rowIndex)
		docs = append(docs, sheetDocs...)
	}
	return docs, nil
}

func parseFile(path string) ([]models.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSV(path, ',')
	case ".tsv":
		return parseCSV(path, '\t')
	case ".xlsx", ".ods":
		return parseWorkbook(path)
	default:
		return nil, nil
	}
}

// Load scans dir for tabular files and returns one document per usable row.
// Files that cannot be parsed are skipped with a logged diagnostic; a build
// must never abort because one source is corrupt. When nothing at all is
// usable, a single sentinel document is returned so the index is never empty.
func Load(dir string) ([]models.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var docs []models.Document
	for _, name := range names {
		path := filepath.Join(dir, name)
		fileDocs, err := parseFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Skipping unreadable corpus file")
			continue
		}
		if fileDocs == nil {
			continue
		}
		log.Info().Str("file", name).Int("documents", len(fileDocs)).Msg("Loaded corpus file")
		docs = append(docs, fileDocs...)
	}

	if len(docs) == 0 {
		log.Warn().Str("dir", dir).Msg("No usable corpus documents, indexing sentinel")
		docs = []models.Document{{Text: models.SentinelText, SourceFile: "", RowIndex: 0}}
	}
	return docs, nil
}
