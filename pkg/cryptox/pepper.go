package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	// pepper is loaded from pepperFile on first use, or generated and
	// written there if the file does not exist yet.
	pepper     string
	pepperFile string
	pepperOnce sync.Once
)

// SetPepperPath sets the file the password pepper is loaded from. Call it
// once at startup, before any hashing happens.
func SetPepperPath(file string) {
	pepperFile = file
}

// GetPepper returns the process-wide pepper, loading or generating it on
// first use. Concurrent first callers must agree on the value, otherwise
// hashes minted in that window become unverifiable after a restart.
// Failure here is unrecoverable: every stored hash depends on it.
func GetPepper() string {
	pepperOnce.Do(func() {
		loaded, err := loadOrGeneratePepper()
		if err != nil {
			slog.Error("failed to load or generate pepper", slog.Any("err", err))
			os.Exit(1)
		}
		pepper = loaded
	})

	return pepper
}

func loadOrGeneratePepper() (string, error) {
	pepperFile = filepath.Clean(pepperFile)
	if err := os.MkdirAll(filepath.Dir(pepperFile), 0750); err != nil {
		return "", err
	}

	data, err := os.ReadFile(pepperFile)
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	buf := make([]byte, keyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	generated := base64.RawURLEncoding.EncodeToString(buf)

	if err := os.WriteFile(pepperFile, []byte(generated), 0600); err != nil {
		return "", err
	}
	return generated, nil
}
