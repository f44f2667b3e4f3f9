package mailbox

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ListArchive returns archived messages, newest first. limit <= 0 means all.
func (m *Manager) ListArchive(limit int) ([]ArchiveEntry, error) {
	dir := filepath.Join(m.dir, ArchiveDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var archived []ArchiveEntry
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), slotExt) {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), slotExt)
		idx := strings.LastIndex(stem, keySeparator)
		if idx < 0 {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		archived = append(archived, ArchiveEntry{
			Key:       stem[:idx],
			Recipient: stem[idx+len(keySeparator):],
			Path:      filepath.Join(dir, entry.Name()),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
		})
	}

	sort.Slice(archived, func(i, j int) bool {
		if !archived[i].ModTime.Equal(archived[j].ModTime) {
			return archived[i].ModTime.After(archived[j].ModTime)
		}
		return archived[i].Key > archived[j].Key
	})

	if limit > 0 && len(archived) > limit {
		archived = archived[:limit]
	}
	return archived, nil
}

// ListRejected returns rejection records, newest first. limit <= 0 means all.
// Records that cannot be parsed are skipped.
func (m *Manager) ListRejected(limit int) ([]Rejection, error) {
	dir := filepath.Join(m.dir, RejectedDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read rejected directory: %w", err)
	}

	var records []Rejection
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var rec Rejection
		if err := yaml.Unmarshal(data, &rec); err != nil {
			m.logger.Warn("Skipping unreadable rejection record", "path", path, "error", err)
			continue
		}
		rec.Path = path
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].RejectedAt.After(records[j].RejectedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
