package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"unicode"
)

const (
	// DefaultEnvKey is the environment variable FromEnv reads by default.
	DefaultEnvKey = "TASTYWORKS_API_TOKEN"

	// SessionKey is the preferences-file key holding the session token.
	SessionKey = "sessionId"

	preferencesFile = "desktop/preferences_user.json"
)

var (
	ErrTokenMissing      = errors.New("session token is empty")
	ErrSessionKeyMissing = errors.New("preferences file has no session key")
	ErrConfigDirMissing  = errors.New("no desktop client configuration directory found")
)

// PreferencesError reports a preferences file whose session entry could not be
// read. Line is the offending line with everything but the key masked.
type PreferencesError struct {
	Path string
	Line string
}

func (e *PreferencesError) Error() string {
	return fmt.Sprintf("unreadable session entry in %s: %s", e.Path, e.Line)
}

// Session is an authenticated REST session.
type Session struct {
	token string
}

// FromToken wraps an existing session token.
func FromToken(token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenMissing
	}
	return &Session{token: token}, nil
}

// FromEnv reads the token from the environment variable key.
func FromEnv(key string) (*Session, error) {
	if key == "" {
		key = DefaultEnvKey
	}
	s, err := FromToken(os.Getenv(key))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return s, nil
}

// FromInstalled reads the token from the installed desktop client's preferences.
func FromInstalled() (*Session, error) {
	path, err := InstalledPreferencesPath()
	if err != nil {
		return nil, err
	}
	return FromPreferencesFile(path)
}

// FromPreferencesFile extracts the session token from a preferences file.
func FromPreferencesFile(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	token, err := extractToken(string(data), path)
	if err != nil {
		return nil, err
	}
	return &Session{token: token}, nil
}

// Token returns the raw session token.
func (s *Session) Token() string {
	return s.token
}

// String never reveals the token.
func (s *Session) String() string {
	return "Session(********)"
}

var sessionPattern = regexp.MustCompile(`"` + regexp.QuoteMeta(SessionKey) + `"\s*:\s*"([^"]*)`)

func extractToken(contents, path string) (string, error) {
	if m := sessionPattern.FindStringSubmatch(contents); m != nil {
		if m[1] == "" {
			return "", ErrTokenMissing
		}
		return m[1], nil
	}

	for _, line := range strings.Split(contents, "\n") {
		if strings.Contains(line, SessionKey) {
			return "", &PreferencesError{Path: path, Line: obfuscateLine(line, SessionKey)}
		}
	}
	return "", ErrSessionKeyMissing
}

// obfuscateLine masks every letter and digit outside the first occurrence of key.
func obfuscateLine(line, key string) string {
	start := strings.Index(line, key)
	end := start + len(key)

	var b strings.Builder
	for i, r := range line {
		if (unicode.IsLetter(r) || unicode.IsDigit(r)) && (i < start || i >= end) {
			b.WriteByte('*')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// InstalledPreferencesPath locates desktop/preferences_user.json under a
// "tastyworks" or ".tastyworks" directory in the home or local data directory.
func InstalledPreferencesPath() (string, error) {
	var roots []string
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, home)
	}
	if local := localDataDir(); local != "" {
		roots = append(roots, local)
	}

	for _, root := range roots {
		for _, name := range []string{"tastyworks", ".tastyworks"} {
			dir := filepath.Join(root, name)
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				return filepath.Join(dir, filepath.FromSlash(preferencesFile)), nil
			}
		}
	}
	return "", ErrConfigDirMissing
}

func localDataDir() string {
	switch runtime.GOOS {
	case "windows":
		return os.Getenv("LOCALAPPDATA")
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Application Support")
		}
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "share")
		}
	}
	return ""
}

// Resolve picks the first available token source: explicit, then the
// environment variable envKey, then the installed desktop client.
func Resolve(explicit, envKey string) (*Session, error) {
	if strings.TrimSpace(explicit) != "" {
		return FromToken(explicit)
	}
	if s, err := FromEnv(envKey); err == nil {
		return s, nil
	}
	s, err := FromInstalled()
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return s, nil
}
