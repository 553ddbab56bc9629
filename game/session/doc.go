// Package session stores simulation sessions in memory and, optionally, on
// disk.
//
// Manager hands out 4-character hex session IDs, keeps one engine.Simulation
// per session and lazily reloads sessions from a SessionPersistence when
// they are not in memory. FilePersistence writes one JSON document per
// session holding the config ID, seed and a full engine.SimState snapshot;
// loading rebuilds the grid from the config and seed and then restores the
// snapshot on top.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", configMgr)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Printf("Warning: %v", err)
//	}
//
//	sess, err := manager.Create("", "classic", cfg)
package session
