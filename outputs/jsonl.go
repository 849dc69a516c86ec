package outputs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ReK42/modem-info/utils"
)

// WriteJSONL appends the detailed readings to per-reading JSONL files:
// <address>_system_info.jsonl, <address>_link_status.jsonl and
// <address>_docsis_statistics.jsonl. Record-scoped decode failures do not
// block the surviving records from being written.
func WriteJSONL(modem utils.DocsisModemDriver, dir string) error {
	systemInfo, err := modem.SystemInfo()
	if err != nil && len(systemInfo.Data) == 0 {
		return err
	}
	linkStatus, err := modem.LinkStatus()
	if err != nil && len(linkStatus.Data) == 0 {
		return err
	}
	statistics, err := modem.DocsisStatistics()
	if err != nil {
		return err
	}

	documents := []struct {
		name string
		data interface{}
	}{
		{"system_info", systemInfo},
		{"link_status", linkStatus},
		{"docsis_statistics", statistics},
	}
	for _, doc := range documents {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.jsonl", modem.Address(), doc.name))
		if err := appendJSONLine(path, doc.data); err != nil {
			return err
		}
	}
	return nil
}

func appendJSONLine(path string, data interface{}) error {
	line, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal for %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}
