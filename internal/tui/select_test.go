package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/abacus/internal/tablestore"
)

func testTables() []tablestore.TableInfo {
	return []tablestore.TableInfo{
		{Name: "inventory", Path: "/tables/inventory.csv", Rows: 10, Cols: 3, Modified: time.Now()},
		{Name: "budget", Path: "/tables/budget.csv", Rows: 5, Cols: 8, Modified: time.Now()},
	}
}

func stubProgram(t *testing.T, keys ...string) {
	t.Helper()

	orig := runProgram
	runProgram = func(m tea.Model) (tea.Model, error) {
		current := m
		for _, key := range keys {
			current, _ = current.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		}
		return current, nil
	}
	t.Cleanup(func() { runProgram = orig })
}

func TestSelectTableEmptyListSkips(t *testing.T) {
	result, err := SelectTable("Pick a table", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, result.Action)
	assert.Nil(t, result.Selection)
}

func TestSelectTableEnterSelectsFirst(t *testing.T) {
	orig := runProgram
	runProgram = func(m tea.Model) (tea.Model, error) {
		current, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		return current, nil
	}
	t.Cleanup(func() { runProgram = orig })

	result, err := SelectTable("Pick a table", testTables())
	require.NoError(t, err)
	assert.Equal(t, ActionSelected, result.Action)
	require.NotNil(t, result.Selection)
	assert.Equal(t, "inventory", result.Selection.Name)
}

func TestSelectTableEscSkips(t *testing.T) {
	orig := runProgram
	runProgram = func(m tea.Model) (tea.Model, error) {
		current, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		return current, nil
	}
	t.Cleanup(func() { runProgram = orig })

	result, err := SelectTable("Pick a table", testTables())
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, result.Action)
}

func TestSelectTableQuitStops(t *testing.T) {
	stubProgram(t, "q")

	result, err := SelectTable("Pick a table", testTables())
	require.NoError(t, err)
	assert.Equal(t, ActionStopped, result.Action)
}

func TestFormatDims(t *testing.T) {
	info := tablestore.TableInfo{Rows: 7, Cols: 2}
	assert.Equal(t, "7 rows x 2 cols", formatDims(info))
}

func TestFormatMetadata(t *testing.T) {
	modified := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	info := tablestore.TableInfo{Path: "/tables/a.csv", Modified: modified}
	assert.Equal(t, "/tables/a.csv | 2025-03-14 15:09:26", formatMetadata(info))

	info.Modified = time.Time{}
	assert.Equal(t, "/tables/a.csv", formatMetadata(info))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a longe...", truncate("a longer string", 10))
	assert.Equal(t, "squeezed whitespace", truncate("squeezed   whitespace", 30))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 72, clamp(72, 100, 40))
	assert.Equal(t, 60, clamp(72, 60, 40))
	assert.Equal(t, 40, clamp(72, 10, 40))
}
