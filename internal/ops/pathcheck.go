package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/snip/internal/config"
	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/metadata"
	"github.com/hpungsan/snip/internal/repo"
	"github.com/hpungsan/snip/internal/session"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // for import (read file)
	PathCheckWrite                      // for export (write file)
)

// ExportsDirName is the default export directory inside the data directory.
const ExportsDirName = "exports"

// dataFiles are the files a data directory owns. Import and export never
// touch them, whatever the directory settings.
var dataFiles = []string{repo.SnippetsFile, metadata.FileName, repo.SampleFile, "config.json"}

// ValidatePath checks an import or export path:
// 1. No directory traversal (..)
// 2. .json extension
// 3. Not one of the data directory's own files
// 4. Directly in <data dir>/exports or an allowed_paths entry (no subdirectories),
// unless allow_unsafe_paths is set
// 5. Neither the parent directory nor the file is a symlink
// 6. For reads, the file exists
func ValidatePath(path string, mode PathCheckMode, dataDir string, cfg *config.Config) error {
	if strings.TrimSpace(path) == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != ".json" {
		return errors.NewInvalidRequest("path must have .json extension")
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	parentDir := filepath.Dir(absPath)

	if isDataFile(absPath, dataDir) {
		return errors.NewInvalidRequest(fmt.Sprintf("path must not be a data file (%s)", filepath.Base(absPath)))
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		allowedDirs, err := getAllowedDirs(dataDir, cfg)
		if err != nil {
			return err
		}
		if !isDirectlyInAllowedDir(parentDir, allowedDirs) {
			return errors.NewInvalidRequest(
				fmt.Sprintf("file must be directly in an allowed directory (no subdirectories); allowed: %v",
					allowedDirs))
		}
		if info, err := os.Lstat(parentDir); err == nil && info.Mode()&os.ModeSymlink != 0 {
			return errors.NewInvalidRequest("parent directory must not be a symlink")
		}
	}

	info, err := os.Lstat(absPath)
	switch {
	case err == nil:
		if info.Mode()&os.ModeSymlink != 0 {
			return errors.NewInvalidRequest("path must not be a symlink")
		}
		if info.IsDir() {
			return errors.NewInvalidRequest("path is a directory")
		}
	case os.IsNotExist(err):
		if mode == PathCheckRead {
			return errors.NewFileNotFound(path)
		}
	default:
		return errors.NewInvalidRequest(fmt.Sprintf("cannot access path: %v", err))
	}
	return nil
}

// ExportsDir returns the default export directory for dataDir.
func ExportsDir(dataDir string) string {
	return filepath.Join(dataDir, ExportsDirName)
}

// isDataFile reports whether absPath names one of dataDir's own files,
// including through a symlinked or differently spelled directory.
func isDataFile(absPath, dataDir string) bool {
	if dataDir == "" {
		return false
	}
	base := filepath.Base(absPath)
	owned := false
	for _, name := range dataFiles {
		if base == name {
			owned = true
			break
		}
	}
	if !owned {
		return false
	}

	parentDir := filepath.Dir(absPath)
	absData, err := filepath.Abs(dataDir)
	if err == nil && filepath.Clean(absData) == parentDir {
		return true
	}
	parentInfo, err := os.Stat(parentDir)
	if err != nil {
		return false
	}
	dataInfo, err := os.Stat(dataDir)
	if err != nil {
		return false
	}
	return os.SameFile(parentInfo, dataInfo)
}

// getAllowedDirs returns the allowed directories (absolute, cleaned).
func getAllowedDirs(dataDir string, cfg *config.Config) ([]string, error) {
	var dirs []string
	if dataDir != "" {
		dirs = append(dirs, ExportsDir(dataDir))
	}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				dirs = append(dirs, filepath.Clean(p))
			}
		}
	}

	result := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(filepath.Clean(d))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		// Match against the real target of a symlinked allowed directory.
		if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(abs)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
			abs = resolved
		}
		result = append(result, abs)
	}
	return result, nil
}

// isDirectlyInAllowedDir checks if parentDir exactly matches one of the allowed directories.
func isDirectlyInAllowedDir(parentDir string, allowedDirs []string) bool {
	parentDir = filepath.Clean(parentDir)
	for _, dir := range allowedDirs {
		if parentDir == filepath.Clean(dir) {
			return true
		}
	}
	return false
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	// Also check forward slashes on all platforms (e.g., user input)
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}

// dataDirOf returns the session's data directory.
func dataDirOf(s *session.Session) (string, error) {
	var dir string
	err := s.Do(func(r *repo.Repository) error {
		dir = r.Dir()
		return nil
	})
	return dir, err
}
