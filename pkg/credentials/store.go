// Package credentials finds the vendor id and api key for a run: from the
// environment, from a dotenv file, or by asking the user and checking the
// answer against the API.
package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/ritani-feeds/pkg/auth"
	pkgerrors "github.com/glorpus-work/ritani-feeds/pkg/errors"
	"github.com/glorpus-work/ritani-feeds/pkg/fsutil"
	"github.com/joho/godotenv"
)

// Keys the credentials are stored under, both in the env file and the
// process environment.
const (
	EnvVendorID = "ID"
	EnvAPIKey   = "API_KEY"
)

// DefaultEnvFile is the env file used when none is configured.
const DefaultEnvFile = ".env"

// Store persists credentials in a dotenv file.
type Store struct {
	path string
}

// NewStore returns a store backed by the env file at path.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultEnvFile
	}
	return &Store{path: path}
}

// Path returns the env file location.
func (s *Store) Path() string {
	return s.path
}

// Load copies the env file into the process environment. Variables that are
// already set win. A missing file is not an error.
func (s *Store) Load() error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(s.path); err != nil {
		return pkgerrors.Wrapf(err, "failed to load %s", s.path)
	}
	return nil
}

// FromEnv returns the credentials in the process environment, if both parts
// are set.
func FromEnv() (auth.Credentials, bool) {
	creds := auth.Credentials{
		VendorID: strings.TrimSpace(os.Getenv(EnvVendorID)),
		APIKey:   strings.TrimSpace(os.Getenv(EnvAPIKey)),
	}
	return creds, creds.Validate() == nil
}

// Read returns the credentials stored in the env file only, ignoring the
// process environment.
func (s *Store) Read() (auth.Credentials, error) {
	values, err := s.read()
	if err != nil {
		return auth.Credentials{}, err
	}
	creds := auth.Credentials{
		VendorID: strings.TrimSpace(values[EnvVendorID]),
		APIKey:   strings.TrimSpace(values[EnvAPIKey]),
	}
	if err := creds.Validate(); err != nil {
		return auth.Credentials{}, fmt.Errorf("%s: %w", s.path, err)
	}
	return creds, nil
}

// Save writes creds into the env file. Other keys already in the file are kept.
func (s *Store) Save(creds auth.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	values, err := s.read()
	if err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrCredentialsSave, err)
	}
	values[EnvVendorID] = creds.VendorID
	values[EnvAPIKey] = creds.APIKey
	if err := s.write(values); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrCredentialsSave, err)
	}
	return nil
}

// Remove deletes the credentials from the env file and the process
// environment. The file itself goes away once nothing else is left in it.
// It reports whether the file held credentials.
func (s *Store) Remove() (bool, error) {
	_ = os.Unsetenv(EnvVendorID)
	_ = os.Unsetenv(EnvAPIKey)

	values, err := s.read()
	if err != nil {
		return false, err
	}
	_, hadID := values[EnvVendorID]
	_, hadKey := values[EnvAPIKey]
	if !hadID && !hadKey {
		return false, nil
	}
	delete(values, EnvVendorID)
	delete(values, EnvAPIKey)

	if len(values) == 0 {
		if err := os.Remove(s.path); err != nil {
			return true, pkgerrors.Wrapf(err, "failed to remove %s", s.path)
		}
		return true, nil
	}
	return true, s.write(values)
}

func (s *Store) read() (map[string]string, error) {
	values, err := godotenv.Read(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read %s", s.path)
	}
	return values, nil
}

// write replaces the env file through a temp file in the same directory so a
// failed write leaves the old file intact.
func (s *Store) write(values map[string]string) error {
	if err := fsutil.EnsureFileDir(s.path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create temporary env file")
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := godotenv.Write(values, tmpPath); err != nil {
		return pkgerrors.Wrapf(err, "failed to write %s", tmpPath)
	}
	if err := os.Chmod(tmpPath, fsutil.FileModePrivate); err != nil {
		return pkgerrors.Wrapf(err, "failed to restrict %s", tmpPath)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return pkgerrors.Wrapf(err, "failed to replace %s", s.path)
	}
	return nil
}
