// Package runs stores completed solve runs.
//
// Manager keeps runs in memory keyed by a case-insensitive UUID and, when
// built with NewManagerWithPersistence, writes each run through to a
// RunPersistence. FilePersistence stores one "<id>.json" file per run
// holding the initial board and the search result, so runs survive a
// restart via LoadPersistedRuns.
//
// Usage:
//
//	persistence, err := runs.NewFilePersistence("runs")
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := runs.NewManagerWithPersistence(persistence)
//	if err := manager.LoadPersistedRuns(); err != nil {
//		log.Fatal(err)
//	}
//
//	run, err := manager.Create(&service.Run{Puzzle: "classic", Board: b, Result: res})
//
// Runs that are not read for a while can be pruned with CleanupExpiredRuns.
package runs
