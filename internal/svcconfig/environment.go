package svcconfig

import (
	"strings"

	"github.com/spf13/afero"
)

// CheckEnvironment verifies that the paths in cfg are plausible on the
// given filesystem: the working directory must be an existing directory
// and the stdout/stderr files must have an existing parent directory.
//
// The check is kept out of New on purpose; callers run it explicitly
// before submitting a configuration to the live host.
func CheckEnvironment(fs afero.Fs, cfg *Config) error {
	v := &validator{}

	if dir := cfg.WorkingDirectory(); dir != "" {
		if ok, _ := afero.IsDir(fs, dir); !ok {
			v.fail("working_directory", "%q does not exist or is not a directory", dir)
		}
	}

	checkParent := func(field, path string) {
		if path == "" {
			return
		}
		dir := parentDir(path)
		if dir == "" || dir == "." {
			return
		}
		if ok, _ := afero.DirExists(fs, dir); !ok {
			v.fail(field, "directory %q for %q does not exist", dir, path)
		}
	}
	checkParent("stdout_path", cfg.StdoutPath())
	checkParent("stderr_path", cfg.StderrPath())

	return v.err()
}

// parentDir returns the directory part of a Windows or POSIX path.
func parentDir(path string) string {
	i := strings.LastIndexAny(path, `\/`)
	if i < 0 {
		return ""
	}
	if i == 0 || (i == 2 && path[1] == ':') {
		return path[:i+1]
	}
	return path[:i]
}
