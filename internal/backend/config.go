package backend

import (
	"fmt"
	"strings"

	"igreja/internal/config"
	"igreja/internal/core"
	"igreja/internal/ledger"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s (supported: %s)",
			appConfig.DataBackend, strings.Join(GetBackendTypeStrings(), ", "))
	}

	return Config{
		Type: backendType,

		TitheFile:      appConfig.TitheFile,
		AttendanceFile: appConfig.AttendanceFile,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID:   appConfig.GoogleSpreadsheetID,
		GoogleTitheSheet:      appConfig.GoogleTitheSheet,
		GoogleAttendanceSheet: appConfig.GoogleAttendanceSheet,
	}, nil
}

// RosterFromAppConfig builds the roster used to synthesize missing ledgers.
func RosterFromAppConfig(appConfig *config.Config) ledger.Roster {
	roster := ledger.Roster{
		Leaders:    ledger.DefaultLeaders(appConfig.LeaderCount),
		Window:     core.Window(appConfig.TitheWindow),
		Disciplers: append([]string(nil), appConfig.Disciplers...),
	}
	if len(roster.Disciplers) == 0 {
		roster.Disciplers = append([]string(nil), ledger.DefaultDisciplers...)
	}
	for _, s := range appConfig.SessionTypes {
		// validated at startup
		if t, err := core.ParseSessionType(s); err == nil {
			roster.Types = append(roster.Types, t)
		}
	}
	if len(roster.Types) == 0 {
		roster.Types = core.SessionTypes()
	}
	return roster
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s (supported: %s)", c.Type, strings.Join(GetBackendTypeStrings(), ", "))
	}

	switch c.Type {
	case CSVBackend:
		if c.TitheFile == "" || c.AttendanceFile == "" {
			return fmt.Errorf("tithe and attendance file paths are required for csv backend")
		}
		if c.TitheFile == c.AttendanceFile {
			return fmt.Errorf("tithe and attendance ledgers must use different files")
		}

	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}

	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}

	case MemoryBackend:
		// Nothing to configure; ledgers live for the process lifetime
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{CSVBackend, SQLiteBackend, SheetsBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
