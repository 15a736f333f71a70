package home

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultDirName is the default name for the bookwatch home directory.
	DefaultDirName = ".bookwatch"

	// DownloadsDirName holds downloaded workflow artifacts.
	DownloadsDirName = "downloads"

	// EditsDirName holds analysis texts waiting for a human edit.
	EditsDirName = "edits"

	// UploadsDirName holds originals uploaded to the development backend.
	UploadsDirName = "uploads"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the bookwatch home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.bookwatch).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// DownloadsPath returns the downloads directory.
func (d *Dir) DownloadsPath() string {
	return filepath.Join(d.path, DownloadsDirName)
}

// EditsPath returns the edits directory.
func (d *Dir) EditsPath() string {
	return filepath.Join(d.path, EditsDirName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.DownloadsPath(), d.EditsPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// DownloadPath returns where an artifact of a book is saved, e.g.
// downloads/<book>/<book>_summary.txt.
func (d *Dir) DownloadPath(bookID, artifact string) string {
	return filepath.Join(d.DownloadsPath(), safeName(bookID), safeName(bookID)+"_"+artifact+".txt")
}

// SaveDownload writes an artifact and returns its path.
func (d *Dir) SaveDownload(bookID, artifact, text string) (string, error) {
	path := d.DownloadPath(bookID, artifact)
	if err := writeFile(path, []byte(text)); err != nil {
		return "", err
	}
	return path, nil
}

// AnalysisEditPath returns the file a paused workflow's analysis is written
// to for editing.
func (d *Dir) AnalysisEditPath(bookID string) string {
	return filepath.Join(d.EditsPath(), safeName(bookID)+".analysis.md")
}

// SaveAnalysisForEdit writes the analysis text for editing and returns its
// path. An existing file is kept so that a restarted watcher does not
// overwrite edits in progress.
func (d *Dir) SaveAnalysisForEdit(bookID, analysis string) (string, error) {
	path := d.AnalysisEditPath(bookID)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := writeFile(path, []byte(analysis)); err != nil {
		return "", err
	}
	return path, nil
}

// UploadsDir returns the directory for originals of an uploaded book.
func (d *Dir) UploadsDir(bookID string) string {
	return filepath.Join(d.path, UploadsDirName, safeName(bookID))
}

// SaveUpload keeps a copy of an uploaded original.
func (d *Dir) SaveUpload(bookID, filename string, data []byte) error {
	return writeFile(filepath.Join(d.UploadsDir(bookID), safeName(filepath.Base(filename))), data)
}

// RemoveUploads deletes the originals of a book.
func (d *Dir) RemoveUploads(bookID string) error {
	return os.RemoveAll(d.UploadsDir(bookID))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// safeName keeps ids from escaping their directory.
func safeName(s string) string {
	s = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
	if s == "" || s == "." {
		return "_"
	}
	return s
}
