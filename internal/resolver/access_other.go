//go:build !unix

package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

func (systemAccess) Readable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func (systemAccess) Executable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if runtime.GOOS == "windows" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".exe", ".bat", ".cmd", ".com":
			return nil
		}
		return fmt.Errorf("%s has no executable extension", path)
	}
	if info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%s has no execute bit", path)
	}
	return nil
}
