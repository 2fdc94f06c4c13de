package credentials

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/glorpus-work/ritani-feeds/pkg/auth"
	pkgerrors "github.com/glorpus-work/ritani-feeds/pkg/errors"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearCredentialEnv unsets ID and API_KEY for the duration of the test.
func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvVendorID, EnvAPIKey} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewStore_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultEnvFile, NewStore("").Path())
	assert.Equal(t, "/etc/feeds.env", NewStore("/etc/feeds.env").Path())
}

func TestStore_SaveMergesExistingKeys(t *testing.T) {
	path := writeEnvFile(t, "OTHER=keep\nID=old-id\n")
	store := NewStore(path)

	require.NoError(t, store.Save(auth.Credentials{VendorID: "v1", APIKey: "k1"}))

	values, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"OTHER": "keep", "ID": "v1", "API_KEY": "k1"}, values)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestStore_SaveCreatesFileAndDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", ".env")
	store := NewStore(path)

	require.NoError(t, store.Save(auth.Credentials{VendorID: "v1", APIKey: "k1"}))

	creds, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, auth.Credentials{VendorID: "v1", APIKey: "k1"}, creds)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should not be left behind")
}

func TestStore_SaveRejectsIncompleteCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	err := NewStore(path).Save(auth.Credentials{VendorID: "v1"})
	assert.ErrorIs(t, err, pkgerrors.ErrMissingCredentials)
	assert.NoFileExists(t, path)
}

func TestStore_Read(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    auth.Credentials
		wantErr error
	}{
		{
			name:    "both keys",
			content: "ID=v1\nAPI_KEY=k1\n",
			want:    auth.Credentials{VendorID: "v1", APIKey: "k1"},
		},
		{
			name:    "quoted values",
			content: "ID=\"v1\"\nAPI_KEY='k1'\n",
			want:    auth.Credentials{VendorID: "v1", APIKey: "k1"},
		},
		{
			name:    "missing key",
			content: "ID=v1\n",
			wantErr: pkgerrors.ErrMissingCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := NewStore(writeEnvFile(t, tt.content)).Read()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, creds)
		})
	}
}

func TestStore_ReadMissingFile(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), ".env")).Read()
	assert.ErrorIs(t, err, pkgerrors.ErrMissingCredentials)
}

func TestStore_Remove(t *testing.T) {
	t.Run("keeps other keys", func(t *testing.T) {
		clearCredentialEnv(t)
		path := writeEnvFile(t, "OTHER=keep\nID=v1\nAPI_KEY=k1\n")

		removed, err := NewStore(path).Remove()
		require.NoError(t, err)
		assert.True(t, removed)

		values, err := godotenv.Read(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"OTHER": "keep"}, values)
	})

	t.Run("deletes file left empty", func(t *testing.T) {
		clearCredentialEnv(t)
		path := writeEnvFile(t, "ID=v1\nAPI_KEY=k1\n")

		removed, err := NewStore(path).Remove()
		require.NoError(t, err)
		assert.True(t, removed)
		assert.NoFileExists(t, path)
	})

	t.Run("nothing stored", func(t *testing.T) {
		clearCredentialEnv(t)
		removed, err := NewStore(filepath.Join(t.TempDir(), ".env")).Remove()
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("clears process environment", func(t *testing.T) {
		t.Setenv(EnvVendorID, "v1")
		t.Setenv(EnvAPIKey, "k1")

		_, err := NewStore(filepath.Join(t.TempDir(), ".env")).Remove()
		require.NoError(t, err)
		_, ok := FromEnv()
		assert.False(t, ok)
	})
}

func TestStore_LoadDoesNotOverrideEnvironment(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvVendorID, "env-id")
	path := writeEnvFile(t, "ID=file-id\nAPI_KEY=file-key\n")

	require.NoError(t, NewStore(path).Load())

	creds, ok := FromEnv()
	require.True(t, ok)
	assert.Equal(t, auth.Credentials{VendorID: "env-id", APIKey: "file-key"}, creds)
}

func TestStore_LoadMissingFile(t *testing.T) {
	assert.NoError(t, NewStore(filepath.Join(t.TempDir(), "absent.env")).Load())
}

func TestFromEnv(t *testing.T) {
	clearCredentialEnv(t)
	_, ok := FromEnv()
	assert.False(t, ok)

	t.Setenv(EnvVendorID, " v1 ")
	_, ok = FromEnv()
	assert.False(t, ok, "api key still missing")

	t.Setenv(EnvAPIKey, "k1")
	creds, ok := FromEnv()
	assert.True(t, ok)
	assert.Equal(t, auth.Credentials{VendorID: "v1", APIKey: "k1"}, creds)
}
