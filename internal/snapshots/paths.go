package snapshots

import "path/filepath"

const (
	StandingsFile = "standings.json"
	FixturesFile  = "fixtures_list.json"
	ManifestFile  = "manifest.json"
)

// StandingsPath builds the path to the standings file under basePath.
func StandingsPath(basePath string) string {
	return filepath.Join(basePath, StandingsFile)
}

// FixturesPath builds the path to the remaining-fixtures file under basePath.
func FixturesPath(basePath string) string {
	return filepath.Join(basePath, FixturesFile)
}

func manifestPath(basePath string) string {
	return filepath.Join(basePath, ManifestFile)
}
