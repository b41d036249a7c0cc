// Package pathutil contains path expansion and filename validation
// helpers shared by the CLI, the server, and the rename engine.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands tilde (~) to the home directory and converts the
// path to an absolute one.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}

		if path == "~" {
			path = homeDir
		} else {
			path = filepath.Join(homeDir, path[2:])
		}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	return absPath, nil
}

// ValidatePath checks that a path exists on the filesystem.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", path)
		}
		return fmt.Errorf("cannot access path: %w", err)
	}

	return nil
}

// ExpandAndValidatePath expands tilde and validates that the path exists.
func ExpandAndValidatePath(path string) (string, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return "", err
	}

	if err := ValidatePath(expanded); err != nil {
		return "", err
	}

	return expanded, nil
}

var windowsReserved = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// InvalidNameReason reports why a candidate filename cannot be used, or
// "" when the name is acceptable. The Windows rules are applied on every
// platform so renamed trees stay portable.
func InvalidNameReason(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "empty name"
	}
	if strings.ContainsAny(trimmed, `<>:"/\|?*`) {
		return "invalid characters"
	}
	stem := strings.TrimSuffix(trimmed, filepath.Ext(trimmed))
	if windowsReserved[strings.ToUpper(stem)] {
		return "reserved filename"
	}
	return ""
}

// DirCaseInsensitive probes whether the filesystem holding dir folds
// case, by statting an existing child under a case-flipped name. Returns
// false when the directory is empty or unreadable; the caller may still
// override the policy explicitly.
func DirCaseInsensitive(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}

	for _, e := range entries {
		flipped := flipCase(e.Name())
		if flipped == e.Name() {
			continue // no letters to flip
		}
		orig, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		alt, err := os.Stat(filepath.Join(dir, flipped))
		if err != nil {
			return false
		}
		return os.SameFile(orig, alt)
	}
	return false
}

func flipCase(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z':
			out[i] = r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			out[i] = r - 'A' + 'a'
		}
	}
	return string(out)
}
