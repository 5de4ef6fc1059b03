package markdown

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/abacus/internal/tablestore"
	"github.com/lepinkainen/abacus/internal/testutil"
)

func TestRenderFrontmatterSortedKeys(t *testing.T) {
	info := tablestore.TableInfo{
		Name:     "inventory",
		Path:     "/tables/inventory.csv",
		Rows:     1,
		Cols:     2,
		Modified: time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC),
	}

	out, err := Render(info, [][]string{{"widget", "4"}})
	require.NoError(t, err)
	doc := string(out)

	assert.True(t, strings.HasPrefix(doc, "---\n"))
	assert.Contains(t, doc, "name: inventory\n")
	assert.Contains(t, doc, "type: table\n")
	assert.Contains(t, doc, "rows: 1\n")
	assert.Contains(t, doc, "cols: 2\n")
	assert.Contains(t, doc, "source: /tables/inventory.csv\n")
	assert.Contains(t, doc, "2025-03-14 15:09:26")

	// Keys come out alphabetically
	assert.Less(t, strings.Index(doc, "cols:"), strings.Index(doc, "modified:"))
	assert.Less(t, strings.Index(doc, "modified:"), strings.Index(doc, "name:"))
	assert.Less(t, strings.Index(doc, "rows:"), strings.Index(doc, "source:"))
}

func TestRenderPipeTable(t *testing.T) {
	info := tablestore.TableInfo{Name: "t", Rows: 2, Cols: 3}
	out, err := Render(info, [][]string{
		{"a", "b", "c"},
		{"d", "e", "f"},
	})
	require.NoError(t, err)
	doc := string(out)

	assert.Contains(t, doc, "| c1 | c2 | c3 |\n")
	assert.Contains(t, doc, "| --- | --- | --- |\n")
	assert.Contains(t, doc, "| a | b | c |\n")
	assert.Contains(t, doc, "| d | e | f |\n")
}

func TestRenderEscapesPipes(t *testing.T) {
	info := tablestore.TableInfo{Name: "t", Rows: 1, Cols: 1}
	out, err := Render(info, [][]string{{"a|b"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `| a\|b |`)
}

func TestRenderPadsShortRows(t *testing.T) {
	info := tablestore.TableInfo{Name: "t", Rows: 1, Cols: 3}
	out, err := Render(info, [][]string{{"only"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "| only |  |  |\n")
}

func TestRenderWholeDocument(t *testing.T) {
	golden := testutil.NewGoldenHelper(t, "testdata")

	// Modified left zero so the document is byte-stable.
	info := tablestore.TableInfo{
		Name: "inventory",
		Path: "/tables/inventory.csv",
		Rows: 2,
		Cols: 3,
	}
	out, err := Render(info, [][]string{
		{"widget", "4", "blue"},
		{"gadget|x", "9", ""},
	})
	require.NoError(t, err)

	golden.AssertGolden("inventory.md", out)
}

func TestFrontmatterSetOverwrites(t *testing.T) {
	fm := NewFrontmatter()
	fm.Set("b", 1)
	fm.Set("a", 2)
	fm.Set("b", 3)

	assert.Equal(t, []string{"a", "b"}, fm.keys)
	assert.Equal(t, 3, fm.fields["b"])
}
