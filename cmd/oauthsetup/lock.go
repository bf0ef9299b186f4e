package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// lockPathFor places the run lock next to the scratch profile so two runs
// sharing an output directory cannot stage into the same copy.
func lockPathFor(scratch string) string {
	return filepath.Clean(scratch) + ".lock"
}

// acquireLock takes an exclusive, non-blocking lock on lockPath and stamps
// our PID into it for doctor to report.
func acquireLock(lockPath string) (*os.File, error) {
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("cannot open lock file: %w", err)
	}
	if err := tryLock(file, true); err != nil {
		file.Close()
		return nil, fmt.Errorf("cannot acquire lock: %w", err)
	}
	if err := stampPID(file); err != nil {
		releaseLock(file)
		return nil, fmt.Errorf("cannot record lock owner: %w", err)
	}
	return file, nil
}

func stampPID(file *os.File) error {
	if err := file.Truncate(0); err != nil {
		return err
	}
	if _, err := file.Seek(0, 0); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(file, "%d\n", os.Getpid()); err != nil {
		return err
	}
	return file.Sync()
}

// releaseLock drops the lock and closes the file. The file itself stays.
func releaseLock(file *os.File) {
	if file == nil {
		return
	}
	unlock(file)
	file.Close()
}

// lockHolder reports whether another run holds lockPath without creating or
// writing it. owner is the recorded PID when it could be read.
func lockHolder(lockPath string) (held bool, owner string, err error) {
	file, err := os.Open(lockPath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("cannot open lock file: %w", err)
	}
	defer file.Close()

	if err := tryLock(file, false); err != nil {
		if data, rerr := os.ReadFile(lockPath); rerr == nil {
			owner = strings.TrimSpace(string(data))
		}
		return true, owner, nil
	}
	unlock(file)
	return false, "", nil
}
