// Package fedstat retrieves demographic indicators from the fedstat.ru
// statistics service and turns them into normalized tables.
//
// An Indicator is built from an id and a Source with no I/O. The filter
// catalog is recovered lazily from the quasi-JSON configuration embedded in
// the indicator page, and the first successfully downloaded data table is
// cached for the Indicator's lifetime.
//
//	src := fedstat.NewHTTPSource(cfg.FedStat)
//	ind := fedstat.New("31548", src)
//	table, err := ind.ProcessedData(ctx, fedstat.LoadOptions{})
//
// ProcessedData runs Load, Clean, RemoveDistricts, AggregateDistricts and
// Interpolate as named steps. Combine sums two indicators, typically the
// male and female series, after reconciling their row sets.
package fedstat
