package service

import "os"

// Status returns the unit path and whether the unit file exists.
func Status(name string) (string, bool) {
	path := UnitPath(name)
	if _, err := os.Stat(path); err == nil {
		return path, true
	}
	return path, false
}
