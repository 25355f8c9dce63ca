// Package config loads voxedit settings.
//
// Values come from four layers, lowest precedence first:
//
//	defaults     built into the binary
//	file         voxedit.toml or voxedit.yaml
//	environment  VOXEDIT_SECTION_SOME_NAME, read as section.someName
//	args         values set from command-line flags with Set
//
// Typed accessors such as Jobs and History return snapshots of one
// section. Invalid values fall back to the default and are reported by
// ConfigErrors.
//
// With WithWatch the file is watched through fsnotify; handlers registered
// with OnChange receive the paths whose effective values changed:
//
//	cfg := config.New(config.WithFile("voxedit.toml"), config.WithWatch(true))
//	if err := cfg.Load(ctx); err != nil {
//		return err
//	}
//	cfg.OnChange(func(changed []string) {
//		for _, p := range changed {
//			if p == "jobs.unitsPerTick" {
//				jobs.SetUnitsPerTick(cfg.Jobs().UnitsPerTick)
//			}
//		}
//	})
package config
