// Package markdown renders tables as markdown documents with YAML
// frontmatter, for export into note vaults.
package markdown

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/abacus/internal/tablestore"
)

// Frontmatter provides typed access to YAML frontmatter with sorted keys
// for deterministic output.
type Frontmatter struct {
	fields map[string]any
	keys   []string // Sorted key order for deterministic serialization
}

// NewFrontmatter creates a new empty Frontmatter.
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{
		fields: make(map[string]any),
		keys:   []string{},
	}
}

// Set sets a value in frontmatter, maintaining sorted key order.
func (f *Frontmatter) Set(key string, value any) {
	_, exists := f.fields[key]
	f.fields[key] = value

	if !exists {
		// Insert in sorted position
		f.keys = append(f.keys, key)
		sort.Strings(f.keys)
	}
}

// MarshalYAML implements custom YAML marshaling with sorted keys.
func (f *Frontmatter) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: make([]*yaml.Node, 0, len(f.keys)*2),
	}

	for _, key := range f.keys {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(f.fields[key]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, keyNode, valueNode)
	}

	return node, nil
}

// Render serializes a table as a markdown document: frontmatter carries the
// table's identity and dimensions, the body is a pipe-table of the cells.
func Render(info tablestore.TableInfo, cells [][]string) ([]byte, error) {
	fm := NewFrontmatter()
	fm.Set("type", "table")
	fm.Set("name", info.Name)
	fm.Set("rows", info.Rows)
	fm.Set("cols", info.Cols)
	if info.Path != "" {
		fm.Set("source", info.Path)
	}
	if !info.Modified.IsZero() {
		fm.Set("modified", info.Modified.Format("2006-01-02 15:04:05"))
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	frontmatterBytes, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
	}
	buf.Write(frontmatterBytes)
	buf.WriteString("---\n\n")

	writePipeTable(&buf, info.Cols, cells)
	return buf.Bytes(), nil
}

// writePipeTable renders the grid as a markdown table. Grids carry no
// header row, so the header is the c1..cN column naming used elsewhere.
func writePipeTable(buf *bytes.Buffer, cols int, cells [][]string) {
	if cols == 0 {
		return
	}

	header := make([]string, cols)
	divider := make([]string, cols)
	for i := range header {
		header[i] = fmt.Sprintf("c%d", i+1)
		divider[i] = "---"
	}
	writePipeRow(buf, header)
	writePipeRow(buf, divider)

	for _, row := range cells {
		rendered := make([]string, cols)
		for i := 0; i < cols; i++ {
			if i < len(row) {
				rendered[i] = escapeCell(row[i])
			}
		}
		writePipeRow(buf, rendered)
	}
}

func writePipeRow(buf *bytes.Buffer, fields []string) {
	buf.WriteString("| ")
	buf.WriteString(strings.Join(fields, " | "))
	buf.WriteString(" |\n")
}

func escapeCell(value string) string {
	value = strings.ReplaceAll(value, "|", `\|`)
	value = strings.ReplaceAll(value, "\n", " ")
	return value
}
