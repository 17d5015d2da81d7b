package pipeline

import "time"

// Progress phases, in pipeline order.
const (
	PhaseValidating = "validating"
	PhaseLinking    = "linking"
	PhaseReporting  = "reporting"
	PhaseExtracting = "extracting"
	PhasePackaging  = "packaging"
	PhaseComplete   = "complete"
)

// Progress contains information about build progress.
// Passed to ProgressCallback as each stage starts.
type Progress struct {
	// Phase describes the current stage:
	//   "validating" - Building and validating the partition map
	//   "linking"    - Running the toolchain
	//   "reporting"  - Writing size and disassembly reports
	//   "extracting" - Extracting the raw binary
	//   "packaging"  - Encoding UF2 blocks
	//   "complete"   - All artifacts written
	Phase string

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ImageSize is the raw image size in bytes, once known
	ImageSize int

	// Blocks is the number of UF2 blocks, once known
	Blocks int

	// ElapsedTime is the time elapsed since the build started
	ElapsedTime time.Duration
}

// ProgressCallback is called as the build moves between stages.
// Implementations should return quickly.
//
// Example:
//
//	b := pipeline.New(profile,
//	    pipeline.WithProgressCallback(func(p pipeline.Progress) {
//	        fmt.Printf("[%s] %.0f%%\n", p.Phase, p.Percentage)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the builder.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	b := pipeline.New(profile, pipeline.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
