package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/erp/procurement/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add payments table", "add_payments_table"},
		{"Add-Payments-Table", "add_payments_table"},
		{"add__vendor__index", "add_vendor_index"},
		{"  spaces  ", "spaces"},
		{"special!@#chars", "special_chars"},
		{"_leading_and_trailing_", "leading_and_trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	first, err := CreateMigration(dir, "create purchase orders")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_purchase_orders.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_create_purchase_orders.down.sql"), first.DownPath)

	second, err := CreateMigration(dir, "Add vendor index")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	up, err := os.ReadFile(second.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add_vendor_index")
}

func TestCreateMigration_InvalidName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_add_index.up.sql",
		"000002_add_index.down.sql",
		"000001_init.up.sql",
		"000001_init.down.sql",
		"README.md",
		"000003_bad-name.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000004_dir.up.sql"), 0o755))

	list, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint(1), list[0].Version)
	assert.Equal(t, "init", list[0].Name)
	assert.Equal(t, uint(2), list[1].Version)
	assert.NotEmpty(t, list[1].DownPath)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	list, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := migrations.FS.ReadDir(".")
	require.NoError(t, err)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		match := migrationFilePattern.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}
		key := match[1] + "_" + match[2]
		if match[3] == "up" {
			ups[key] = true
		} else {
			downs[key] = true
		}
	}
	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}
