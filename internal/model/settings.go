package model

// Setting is a single persisted preference.
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// Settings are the user preferences shared by the reporting components and
// the trash purge.
type Settings struct {
	DateFormat           string
	OverdueThresholdDays int
	TrashRetentionDays   int
}

// DefaultSettings mirrors the desktop app's initial preferences.
func DefaultSettings() Settings {
	return Settings{
		DateFormat:           "YYYY-MM-DD",
		OverdueThresholdDays: 0,
		TrashRetentionDays:   30,
	}
}
