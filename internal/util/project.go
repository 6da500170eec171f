package util

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
)

// GetProjectRootDir returns the absolute path to the project root, either from
// the PROJECT_ROOT_DIR environment variable or relative to this source file.
func GetProjectRootDir() string {
	if val, ok := os.LookupEnv("PROJECT_ROOT_DIR"); ok {
		return val
	}

	_, b, _, _ := runtime.Caller(0)
	d := path.Join(path.Dir(b))

	return filepath.Join(d, "../..")
}
