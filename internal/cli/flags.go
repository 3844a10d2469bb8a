package cli

import (
	"time"

	"stp/internal/config"
)

// Flags holds command-line flags
type Flags struct {
	Timeout    time.Duration
	Retries    int
	FlakyDelay time.Duration
	OutDir     string
	RuntimeCmd string
	Filter     string
	Verbose    bool
	Limit      int
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Timeout:    f.Timeout,
		Retries:    f.Retries,
		FlakyDelay: f.FlakyDelay,
		OutDir:     f.OutDir,
		RuntimeCmd: f.RuntimeCmd,
		Filter:     f.Filter,
		Verbose:    f.Verbose,
		Limit:      f.Limit,
	}
}
