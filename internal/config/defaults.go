package config

const (
	defaultSiteSheet      = "_1ec01f0כרטיס מכשיר(DataSheet).csv"
	defaultDictionaries   = "dictionaries.json"
	defaultBacklog        = "missing_player_attributes.csv"
	defaultOutputDir      = "."
	defaultLogDir         = "~/.local/share/m4dsync/logs"
	defaultJournalPath    = "~/.local/share/m4dsync/journal.db"
	defaultBaseURL        = "https://m4d-srv.ctv.co.il/media4display-api"
	defaultTokenPolicy    = TokenPolicyPerRequest
	defaultTokenTimeout   = 30
	defaultRequestTimeout = 60
	defaultListTimeout    = 120
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"

	defaultSiteColumn     = "מספר אתר/תאור אתר"
	defaultCityColumn     = "עיר האתר"
	defaultResellerColumn = "תאור משווק"
	defaultISPColumn      = "ספק תקשורת"
	defaultSectorColumn   = "סוג תוכן"
)

// DefaultEncodings lists the spreadsheet encodings tried in order.
func DefaultEncodings() []string {
	return []string{"utf-8-sig", "utf-8", "windows-1255", "cp1255", "iso-8859-8", "latin1"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SiteSheet:    defaultSiteSheet,
			Dictionaries: defaultDictionaries,
			Backlog:      defaultBacklog,
			OutputDir:    defaultOutputDir,
			LogDir:       defaultLogDir,
			JournalPath:  defaultJournalPath,
		},
		API: API{
			BaseURL:        defaultBaseURL,
			TokenPolicy:    defaultTokenPolicy,
			TokenTimeout:   defaultTokenTimeout,
			RequestTimeout: defaultRequestTimeout,
			ListTimeout:    defaultListTimeout,
		},
		Sheet: Sheet{
			Encodings:      DefaultEncodings(),
			SiteColumn:     defaultSiteColumn,
			CityColumn:     defaultCityColumn,
			ResellerColumn: defaultResellerColumn,
			ISPColumn:      defaultISPColumn,
			SectorColumn:   defaultSectorColumn,
		},
		Reconcile: Reconcile{
			WriteSector: true,
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
