// Package stats computes the public download counter and reports which
// copyright lookup credentials are configured.
package stats

import (
	"time"
)

const (
	baseDownloads = 125000
	dailyGrowth   = 150
)

var epoch = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// DownloadStats is the response of the download counter
type DownloadStats struct {
	Downloads int64 `json:"downloads"`
}

// Downloads returns 125000 plus 150 per whole day elapsed since
// 2023-01-01 UTC. Instants before the epoch count as day zero.
func Downloads(now time.Time) DownloadStats {
	days := int64(now.UTC().Sub(epoch) / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	return DownloadStats{Downloads: baseDownloads + days*dailyGrowth}
}

// KeyReport lists which credentials are missing
type KeyReport struct {
	KeysAvailable bool     `json:"keysAvailable"`
	MissingKeys   []string `json:"missingKeys"`
}

// CheckKeys reports every name in names whose value in values is empty,
// preserving the order of names.
func CheckKeys(names []string, values map[string]string) KeyReport {
	missing := make([]string, 0, len(names))
	for _, name := range names {
		if values[name] == "" {
			missing = append(missing, name)
		}
	}
	return KeyReport{
		KeysAvailable: len(missing) == 0,
		MissingKeys:   missing,
	}
}
