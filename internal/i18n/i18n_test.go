package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefault(t *testing.T) {
	t.Parallel()

	tr, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultLanguage, tr.Language())
	assert.Equal(t, "Add Movie!", tr.T("add_button", Args{"kind": "Movie"}))
	assert.Equal(t, "Listing Searcharr users 1-5 of 12.", tr.T("listing_users", Args{"start": 1, "end": 5, "total": 12}))
}

func TestUnknownLanguageFallsBack(t *testing.T) {
	t.Parallel()

	tr, err := Load("xx-yy", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultLanguage, tr.Language())
	assert.Equal(t, "Search canceled!", tr.T("search_canceled", nil))
}

func TestMissingKeyUsesDefaultLanguage(t *testing.T) {
	t.Parallel()

	tr, err := Load("ES-ES", nil)
	require.NoError(t, err)
	assert.Equal(t, "es-es", tr.Language())
	assert.Equal(t, "¡Búsqueda cancelada!", tr.T("search_canceled", nil))
	assert.Equal(t, "Finished Tagging", tr.T("finished_tagging_button", nil))
	assert.Equal(t, NotFound, tr.T("does_not_exist", nil))
}

func TestAliases(t *testing.T) {
	t.Parallel()

	tr, err := Load(DefaultLanguage, nil)
	require.NoError(t, err)
	assert.Equal(t,
		"Use `/series <title>` OR `/s <title>` to add a series to Sonarr.",
		tr.Aliases("help_sonarr", []string{"series", "s"}, "title"))
	assert.Equal(t,
		"Please authenticate with `/start <password>` and then try again.",
		tr.Aliases("auth_required", []string{"start"}, "password"))
	assert.Equal(t, "`/help`", tr.Commands([]string{"help"}, ""))
}

func TestLanguages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"en-us", "es-es"}, Languages())
}

func TestEveryLanguageDeclaresItsCode(t *testing.T) {
	t.Parallel()

	for _, lang := range Languages() {
		values, err := readLanguage(lang)
		require.NoError(t, err, lang)
		assert.Equal(t, lang, values["language_ietf"])
	}
}
