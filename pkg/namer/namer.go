// Package namer builds candidate filenames from a NamingConfig.
//
// Transform is a pure function: the same inputs always produce the same
// candidate name. Auto-clean transforms run in a fixed order: accents,
// special characters, spaces, case.
package namer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/renamekit/renamekit/internal/models"
)

// EmptyStemFallback replaces a stem that the transforms reduced to
// nothing, so a candidate name is never empty.
const EmptyStemFallback = "file"

var (
	specialChars  = regexp.MustCompile(`[^\w\s.-]+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
	underscoreRun = regexp.MustCompile(`_+`)
	hyphenRun     = regexp.MustCompile(`-+`)
	dotRun        = regexp.MustCompile(`\.+`)
	wordSplit     = regexp.MustCompile(`[\s_-]+`)
)

// ValidateConfig rejects malformed naming configurations before they
// reach the planner.
func ValidateConfig(cfg models.NamingConfig) error {
	if cfg.StartNumber != nil && *cfg.StartNumber < 0 {
		return fmt.Errorf("start number must not be negative, got %d", *cfg.StartNumber)
	}
	if cfg.PadWidth < 0 {
		return fmt.Errorf("pad width must not be negative, got %d", cfg.PadWidth)
	}
	if cfg.PadWidth > 12 {
		return fmt.Errorf("pad width too large, got %d", cfg.PadWidth)
	}
	switch cfg.AutoClean.Case {
	case models.CaseNone, models.CaseLower, models.CaseUpper, models.CaseTitle, models.CaseCamel:
	default:
		return fmt.Errorf("unknown case mode %q", cfg.AutoClean.Case)
	}
	switch cfg.AutoClean.Spaces {
	case models.SpaceKeep, models.SpaceUnderscore, models.SpaceHyphen, models.SpaceDelete:
	default:
		return fmt.Errorf("unknown space mode %q", cfg.AutoClean.Spaces)
	}
	return nil
}

// Transform maps an original filename and its sequence index to a
// candidate name. The index counts included files only; callers must not
// advance it for filtered-out entries.
//
// Auto-clean runs over the fully assembled stem, prefix and suffix
// included, so a lowercase mode also lowercases the prefix. Lower and
// upper case modes normalize the extension as well; the extension lock
// guards the extension's identity, not its case.
func Transform(originalName string, index int, cfg models.NamingConfig) (string, error) {
	if err := ValidateConfig(cfg); err != nil {
		return "", err
	}

	origExt := filepath.Ext(originalName)
	stem := strings.TrimSuffix(originalName, origExt)

	if cfg.BaseName != "" {
		stem = cfg.BaseName
	}

	number := ""
	if cfg.StartNumber != nil {
		n := *cfg.StartNumber + index
		if cfg.PadWidth > 0 {
			number = fmt.Sprintf("_%0*d", cfg.PadWidth, n)
		} else {
			number = fmt.Sprintf("_%d", n)
		}
	}

	name := Clean(cfg.Prefix+stem+number+cfg.Suffix, cfg.AutoClean)
	if name == "" {
		name = EmptyStemFallback
	}

	ext := origExt
	switch cfg.AutoClean.Case {
	case models.CaseLower:
		ext = strings.ToLower(ext)
	case models.CaseUpper:
		ext = strings.ToUpper(ext)
	}
	return name + ext, nil
}

// ExtensionPreserved reports whether the extension lock suppressed a
// change auto-clean would otherwise have made to the extension's
// identity. Case changes do not count; the lock guards identity only.
func ExtensionPreserved(originalName string, cfg models.NamingConfig) bool {
	if !cfg.ExtensionLock || !cfg.AutoClean.Enabled() {
		return false
	}
	ext := filepath.Ext(originalName)
	if ext == "" {
		return false
	}
	body := ext[1:]
	return !strings.EqualFold(Clean(body, cfg.AutoClean), body)
}

// Clean applies the configured auto-clean transforms to a stem.
func Clean(stem string, cfg models.AutoCleanConfig) string {
	if !cfg.Enabled() {
		return stem
	}

	if cfg.RemoveAccents {
		stem = stripAccents(stem)
	}

	if cfg.RemoveSpecialChars {
		repl := ""
		if cfg.SpecialReplace {
			repl = "_"
		}
		stem = specialChars.ReplaceAllString(stem, repl)
	}

	switch cfg.Spaces {
	case models.SpaceUnderscore:
		stem = whitespaceRun.ReplaceAllString(stem, "_")
		stem = underscoreRun.ReplaceAllString(stem, "_")
		stem = strings.Trim(stem, "_")
	case models.SpaceHyphen:
		stem = whitespaceRun.ReplaceAllString(stem, "-")
		stem = hyphenRun.ReplaceAllString(stem, "-")
		stem = strings.Trim(stem, "-")
	case models.SpaceDelete:
		stem = whitespaceRun.ReplaceAllString(stem, "")
	}

	switch cfg.Case {
	case models.CaseLower:
		stem = strings.ToLower(stem)
	case models.CaseUpper:
		stem = strings.ToUpper(stem)
	case models.CaseTitle:
		stem = cases.Title(language.Und).String(stem)
	case models.CaseCamel:
		stem = camelCase(stem)
	}

	stem = dotRun.ReplaceAllString(stem, ".")
	return strings.Trim(stem, ". ")
}

// stripAccents transliterates accented characters to their closest ASCII
// form by decomposing to NFD and dropping combining marks.
func stripAccents(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

func camelCase(s string) string {
	words := wordSplit.Split(s, -1)
	titler := cases.Title(language.Und)
	var b strings.Builder
	for i, w := range words {
		if w == "" {
			continue
		}
		if b.Len() == 0 && i == 0 {
			b.WriteString(strings.ToLower(w))
			continue
		}
		b.WriteString(titler.String(strings.ToLower(w)))
	}
	return b.String()
}
