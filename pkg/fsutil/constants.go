package fsutil

// File and directory permission constants.
// These follow standard Unix permission conventions and are used consistently
// for downloaded feeds, the settings file and the credentials file.
const (
	// Default file modes.
	FileModeDefault = 0o644 // -rw-r--r--: Downloaded feeds and the settings file
	FileModePrivate = 0o600 // -rw-------: Files holding credentials

	// DirModeDefault is used for the output directory and the settings directory.
	DirModeDefault = 0o755 // drwxr-xr-x
)
