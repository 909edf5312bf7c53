//go:build unix

package claims

import (
	"os"

	"golang.org/x/sys/unix"
)

// flockExclusiveNonBlocking guards CleanupStale's sweep so two concurrent
// cleanup invocations cannot race on the same claims directory; the claim
// files themselves never rely on flock, only on O_CREAT|O_EXCL.
func flockExclusiveNonBlocking(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		return ErrCleanupInProgress
	}
	return err
}

func flockUnlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
