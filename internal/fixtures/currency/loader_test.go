package currency

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTable_Embedded(t *testing.T) {
	table, err := LoadTable("")
	require.NoError(t, err)
	assert.Len(t, table, 31)
	for _, code := range currency.PriorityCodes {
		assert.True(t, table.Has(code), code)
	}
}

func TestLoadTable_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"XAU":"Gold"}`), 0o600))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, currency.Table{"XAU": "Gold"}, table)
}

func TestLoadTable_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"usd":"lowercase"}`), 0o600))
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`[`), 0o600))

	_, err := LoadTable(filepath.Join(dir, "missing.json"))
	require.Error(t, err)

	_, err = LoadTable(bad)
	assert.ErrorIs(t, err, currency.ErrInvalidCurrencyCode)

	_, err = LoadTable(broken)
	assert.Error(t, err)
}
