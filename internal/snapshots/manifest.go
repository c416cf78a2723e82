package snapshots

import (
	"encoding/json"
	"os"
	"time"
)

// Manifest tracks metadata for the current data files.
type Manifest struct {
	Version   string    `json:"version"`
	Teams     int       `json:"teams"`
	Fixtures  int       `json:"fixtures"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReadManifest loads the manifest from basePath.
func ReadManifest(basePath string) (Manifest, error) {
	f, err := os.Open(manifestPath(basePath))
	if err != nil {
		return Manifest{}, err
	}
	defer f.Close()
	var m Manifest
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func writeManifest(basePath string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(manifestPath(basePath), data)
}
