package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"claimcheck/internal/config"
)

// DescribeDataset builds the default dataset summary used when the
// caller supplies none: the configured name and description, enriched
// with the column list and row count peeked from the CSV header when
// the file is readable.
func DescribeDataset(cfg config.Config) string {
	base := fmt.Sprintf("%s: %s", cfg.DatasetName, cfg.DatasetDescription)
	cols, rows, err := peekCSV(cfg.DatasetPath)
	if err != nil {
		return base
	}
	return fmt.Sprintf("%s. Columns: %s. Rows: %d.", base, strings.Join(cols, ", "), rows)
}

func peekCSV(path string) (columns []string, rows int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, 0, err
	}
	for {
		if _, err := r.Read(); err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, err
		}
		rows++
	}
	return header, rows, nil
}
