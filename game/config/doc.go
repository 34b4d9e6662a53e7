// Package config manages the board presets stored in the configs directory.
//
// Each preset is one JSON file holding an engine.BoardConfig. The file name
// without its extension is the preset ID used by sessions and the API.
// Presets are parsed and geometry-checked on first load and cached after
// that; files that fail to parse are left out of ListConfigs.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	board, err := manager.LoadConfig("classic")
//	presets, err := manager.ListConfigs()
//
// Saving:
//
// SaveConfig only writes boards that build and pass engine.Validate, so every
// preset on disk was playable when it was stored.
package config
