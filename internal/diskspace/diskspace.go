// Package diskspace reports free space on the filesystem holding the
// results tree. EnergyPlus result sets can run into gigabytes over a
// long batch, and a full disk surfaces as silent copy failures in the
// collector, so the batch checks up front.
package diskspace

import "fmt"

// LowSpaceError indicates the results filesystem has less free space
// than the batch wants before it starts.
type LowSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *LowSpaceError) Error() string {
	const mb = 1024 * 1024
	return fmt.Sprintf("low disk space for %s: want %.0f MB free, have %.0f MB",
		e.Path, float64(e.RequiredBytes)/mb, float64(e.AvailableBytes)/mb)
}

// Check verifies that the filesystem containing dir has at least
// requiredBytes available. A filesystem the platform cannot measure
// (network mounts, virtual filesystems) passes the check; the batch
// then proceeds and copy errors surface per file.
func Check(dir string, requiredBytes int64) error {
	available := availableBytes(dir)
	if available == 0 {
		return nil
	}
	if available < requiredBytes {
		return &LowSpaceError{
			Path:           dir,
			RequiredBytes:  requiredBytes,
			AvailableBytes: available,
		}
	}
	return nil
}
