package ports

// FileSystem abstracts the file operations the recorder performs: writing
// the output container, dump-directory bookkeeping, reading config files.
type FileSystem interface {
	// ReadFile returns the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, replacing any existing content.
	// Implementations create missing parent directories.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory along with any missing parents.
	MkdirAll(path string) error

	// Exists reports whether a file or directory exists at path.
	Exists(path string) (bool, error)

	// Remove deletes a file or an empty directory.
	Remove(path string) error
}
