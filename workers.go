package texhtml

import "runtime"

// Worker sizing constants for batch conversion.
const (
	// MinWorkers ensures at least one worker is available.
	MinWorkers = 1

	// MaxWorkers caps concurrent toolchain jobs.
	MaxWorkers = 16
)

// ResolveWorkers determines how many documents to convert in parallel.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolveWorkers(workers int) int {
	if workers > 0 {
		return min(workers, MaxWorkers)
	}

	// GOMAXPROCS is adjusted by automaxprocs in containers.
	n := runtime.GOMAXPROCS(0)
	return max(MinWorkers, min(n, MaxWorkers))
}
