package outputs

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ReK42/modem-info/utils"
)

// WriteCSV fetches fresh flattened statistics and appends one row to
// <dir>/<address>.csv. The header is written only when the file is empty,
// and the column set and order never change between calls, so a file can
// grow across restarts without its headers shifting.
func WriteCSV(modem utils.DocsisModemDriver, dir string) error {
	row, err := modem.DocsisStatisticsFlattened()
	if err != nil {
		return fmt.Errorf("failed to fetch statistics: %w", err)
	}

	path := filepath.Join(dir, modem.Address()+".csv")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(row.Headers()); err != nil {
			return err
		}
	}
	if err := w.Write(row.Strings()); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
