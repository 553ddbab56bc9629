// Package config manages the map configurations served to simulation sessions.
//
// Maps are JSON files in a config directory, one per map, validated with
// engine.ValidateMapConfig and cached after the first load. The default map
// is classic.json when present, otherwise the first valid file, otherwise
// the built-in engine.DefaultMapConfig.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	mapConfig, err := manager.LoadConfig("open")
//	infos, err := manager.ListConfigs()
package config
