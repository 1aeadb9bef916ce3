package config

// Application info
const (
	AppName    = "fedstat"
	AppVersion = "1.0.0"
)

// Request layout used by the fedstat data endpoint
var (
	// DefaultColumnObjectIDs are the categories laid out as columns: year,
	// reporting period and the measure itself
	DefaultColumnObjectIDs = []string{"30611", "33560", "3"}
	// DefaultLineObjectIDs are the categories that always lead the row
	// labels: region and age
	DefaultLineObjectIDs = []string{"57831", "58335"}
)

// File name extensions understood by the exporters
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
)
