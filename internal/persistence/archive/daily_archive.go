package archive

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"leafgame/internal/persistence/snapshot"
)

type DailyArchiveMeta struct {
	Day       string    `json:"day"`
	Snapshot  string    `json:"snapshot"`
	SavedAt   time.Time `json:"saved_at"`
	Users     int       `json:"users"`
	Groups    int       `json:"groups"`
	CreatedAt string    `json:"created_at"`
}

// ArchiveDaily keeps the first snapshot of each UTC day under
// dataDir/archives/<day>/ so that pruning never loses a whole day.
// archived is false when the day already has its snapshot.
func ArchiveDaily(dataDir, snapshotPath string, h snapshot.Header) (day, archivedPath string, archived bool, err error) {
	day = h.SavedAt.UTC().Format("2006-01-02")
	archiveDir := filepath.Join(dataDir, "archives", day)
	metaPath := filepath.Join(archiveDir, "meta.json")
	if _, err := os.Stat(metaPath); err == nil {
		return day, "", false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return day, "", false, err
	}
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return day, "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return day, "", false, err
	}

	meta := DailyArchiveMeta{
		Day:       day,
		Snapshot:  filepath.Base(dst),
		SavedAt:   h.SavedAt,
		Users:     h.Users,
		Groups:    h.Groups,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return day, "", false, err
	}
	if err := os.WriteFile(metaPath, b, 0o644); err != nil {
		return day, "", false, err
	}
	return day, dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
