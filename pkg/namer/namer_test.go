package namer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renamekit/renamekit/internal/models"
)

func intPtr(n int) *int {
	return &n
}

func TestTransformPassthrough(t *testing.T) {
	name, err := Transform("report.pdf", 0, models.NamingConfig{ExtensionLock: true})
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", name)
}

func TestTransformPrefixSuffix(t *testing.T) {
	cfg := models.NamingConfig{
		Prefix:        "draft-",
		Suffix:        "-v2",
		ExtensionLock: true,
	}

	name, err := Transform("notes.txt", 0, cfg)
	require.NoError(t, err)
	assert.Equal(t, "draft-notes-v2.txt", name)
}

func TestTransformBaseNameWithSequence(t *testing.T) {
	cfg := models.NamingConfig{
		BaseName:      "vacation",
		StartNumber:   intPtr(1),
		PadWidth:      3,
		ExtensionLock: true,
	}

	first, err := Transform("IMG2041.jpg", 0, cfg)
	require.NoError(t, err)
	assert.Equal(t, "vacation_001.jpg", first)

	third, err := Transform("IMG2043.jpg", 2, cfg)
	require.NoError(t, err)
	assert.Equal(t, "vacation_003.jpg", third)
}

func TestTransformSequenceWithoutPadding(t *testing.T) {
	cfg := models.NamingConfig{
		BaseName:      "x",
		StartNumber:   intPtr(9),
		ExtensionLock: true,
	}

	name, err := Transform("a.txt", 1, cfg)
	require.NoError(t, err)
	assert.Equal(t, "x_10.txt", name)
}

func TestTransformAutoCleanScenario(t *testing.T) {
	// café Déjà Vu (final)!.JPG with every clean option on becomes
	// img_cafe_deja_vu_final.jpg, extension case included.
	cfg := models.NamingConfig{
		Prefix:        "IMG_",
		ExtensionLock: true,
		AutoClean: models.AutoCleanConfig{
			RemoveAccents:      true,
			RemoveSpecialChars: true,
			Spaces:             models.SpaceUnderscore,
			Case:               models.CaseLower,
		},
	}

	name, err := Transform("café Déjà Vu (final)!.JPG", 0, cfg)
	require.NoError(t, err)
	assert.Equal(t, "img_cafe_deja_vu_final.jpg", name)
}

func TestTransformEmptyStemFallback(t *testing.T) {
	cfg := models.NamingConfig{
		ExtensionLock: true,
		AutoClean: models.AutoCleanConfig{
			RemoveSpecialChars: true,
		},
	}

	name, err := Transform("!!!.txt", 0, cfg)
	require.NoError(t, err)
	assert.Equal(t, "file.txt", name)
}

func TestTransformRejectsInvalidConfig(t *testing.T) {
	_, err := Transform("a.txt", 0, models.NamingConfig{StartNumber: intPtr(-1)})
	assert.Error(t, err)

	_, err = Transform("a.txt", 0, models.NamingConfig{PadWidth: -2})
	assert.Error(t, err)

	_, err = Transform("a.txt", 0, models.NamingConfig{
		AutoClean: models.AutoCleanConfig{Case: models.CaseMode("snake")},
	})
	assert.Error(t, err)
}

func TestTransformDeterministic(t *testing.T) {
	cfg := models.NamingConfig{
		Prefix:        "A ",
		Suffix:        " B",
		ExtensionLock: true,
		AutoClean: models.AutoCleanConfig{
			Spaces: models.SpaceHyphen,
			Case:   models.CaseTitle,
		},
	}

	first, err := Transform("über cool.txt", 4, cfg)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Transform("über cool.txt", 4, cfg)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestTransformSequenceContiguity(t *testing.T) {
	cfg := models.NamingConfig{
		BaseName:      "doc",
		StartNumber:   intPtr(5),
		PadWidth:      2,
		ExtensionLock: true,
	}

	for i := 0; i < 4; i++ {
		name, err := Transform("whatever.md", i, cfg)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("doc_%02d.md", 5+i), name)
	}
}

func TestCleanSpaceModes(t *testing.T) {
	base := "one  two three"

	assert.Equal(t, "one_two_three", Clean(base, models.AutoCleanConfig{Spaces: models.SpaceUnderscore}))
	assert.Equal(t, "one-two-three", Clean(base, models.AutoCleanConfig{Spaces: models.SpaceHyphen}))
	assert.Equal(t, "onetwothree", Clean(base, models.AutoCleanConfig{Spaces: models.SpaceDelete}))
}

func TestCleanSpecialReplace(t *testing.T) {
	cfg := models.AutoCleanConfig{
		RemoveSpecialChars: true,
		SpecialReplace:     true,
	}
	assert.Equal(t, "a_b", Clean("a@#b", cfg))
}

func TestCleanCamelCase(t *testing.T) {
	cfg := models.AutoCleanConfig{Case: models.CaseCamel}
	assert.Equal(t, "myHolidayPhotos", Clean("my_holiday photos", cfg))
}

func TestCleanAccents(t *testing.T) {
	cfg := models.AutoCleanConfig{RemoveAccents: true}
	assert.Equal(t, "resume francais", Clean("résumé français", cfg))
}

func TestCleanCollapsesDots(t *testing.T) {
	cfg := models.AutoCleanConfig{Spaces: models.SpaceDelete}
	assert.Equal(t, "a.b", Clean("a...b..", cfg))
}

func TestExtensionPreserved(t *testing.T) {
	cfg := models.NamingConfig{
		ExtensionLock: true,
		AutoClean: models.AutoCleanConfig{
			RemoveSpecialChars: true,
			Case:               models.CaseLower,
		},
	}

	// A case change alone is not an identity change.
	assert.False(t, ExtensionPreserved("photo.JPG", cfg))
	// Special characters in the extension would have been stripped.
	assert.True(t, ExtensionPreserved("archive.t#r", cfg))
	// Lock off or clean off means nothing to report.
	assert.False(t, ExtensionPreserved("archive.t#r", models.NamingConfig{AutoClean: cfg.AutoClean}))
	assert.False(t, ExtensionPreserved("archive.t#r", models.NamingConfig{ExtensionLock: true}))
	assert.False(t, ExtensionPreserved("no-extension", cfg))
}
