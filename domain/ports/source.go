package ports

// SourceReader loads script source for file based compilation.
type SourceReader interface {
	// ReadSource returns the full contents of the script at path.
	ReadSource(path string) ([]byte, error)

	// Glob returns the slash separated paths under root matching a doublestar pattern,
	// relative to root and sorted.
	Glob(root, pattern string) ([]string, error)
}
