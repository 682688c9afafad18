package schemas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSchema(t *testing.T, dir, filename, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644))
}

func TestList_ReadsTitleAndSize(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "leave.md", "# Leave Request Form\n\nSome body.\n")
	writeSchema(t, dir, "expense.md", "no heading here\n")

	entries, err := New(dir).List()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "expense.md", entries[0].Filename)
	assert.Equal(t, "expense", entries[0].Title, "falls back to the file stem without a heading")

	assert.Equal(t, "leave.md", entries[1].Filename)
	assert.Equal(t, "Leave Request Form", entries[1].Title)
	assert.Equal(t, len("# Leave Request Form\n\nSome body.\n"), entries[1].Size)
}

func TestList_MissingDirectoryIsEmptyNotError(t *testing.T) {
	entries, err := New(filepath.Join(t.TempDir(), "does-not-exist")).List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGet_ReturnsContent(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "leave.md", "# Leave Request Form\n")

	content, err := New(dir).Get("leave.md")
	require.NoError(t, err)
	assert.Equal(t, "# Leave Request Form\n", content)
}

func TestGet_UnknownFileReturnsErrNotFound(t *testing.T) {
	_, err := New(t.TempDir()).Get("missing.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_RejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "leave.md", "# Leave Request Form\n")
	schemasDir := filepath.Join(dir, "schemas")
	require.NoError(t, os.Mkdir(schemasDir, 0o755))

	_, err := New(schemasDir).Get("../leave.md")
	assert.ErrorIs(t, err, ErrNotFound, "filepath.Base strips any directory component")
}

func TestSearch_RanksMatchingTitleFirst(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "leave.md", "# Leave Request Form\n\nAnnual leave, sick leave, vacation days.\n")
	writeSchema(t, dir, "expense.md", "# Expense Reimbursement\n\nReceipts, amounts, cost centers.\n")

	store := New(dir)
	idx := NewIndex()

	results, err := idx.Search(store, "vacation leave request", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "leave.md", results[0].Filename)
}
