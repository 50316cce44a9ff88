// Package storage defines where recorded bounce runs go.
package storage

import "github.com/OCAP2/bouncemarker/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management (StartRun assigns the run ID)
	StartRun(run *core.Run) error
	EndRun() error

	// Recording; the backend fills in RunID
	RecordFrame(f *core.Frame) error
	RecordEvent(e *core.Event) error
}

// Exporter is an optional interface for backends that write the finished
// run to a file.
type Exporter interface {
	ExportedFilePath() string
}
