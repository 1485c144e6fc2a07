package config

import "reflect"

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// InputsChanged is true when the dataset or the catalogue source moved.
	InputsChanged bool

	// RulesChanged is true when any rule override changed.
	RulesChanged bool

	// RunChanged is true when workers or timeout changed.
	RunChanged bool

	// RestartRequired lists settings that only take effect after a restart.
	RestartRequired []string
}

// NeedsRerun reports whether the latest report is stale under the new config.
func (d ConfigDiff) NeedsRerun() bool {
	return d.InputsChanged || d.RulesChanged || d.RunChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Log.Level != new.Log.Level {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Log.Level
	}
	if old.Log.Format != new.Log.Format {
		d.RestartRequired = append(d.RestartRequired, "log.format")
	}

	d.InputsChanged = old.Inputs != new.Inputs
	d.RulesChanged = !reflect.DeepEqual(old.Rules.Rules(), new.Rules.Rules())
	d.RunChanged = old.Run != new.Run

	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = append(d.RestartRequired, "server.listen_addr")
	}
	if old.Server.PollInterval != new.Server.PollInterval {
		d.RestartRequired = append(d.RestartRequired, "server.poll_interval")
	}

	return d
}
