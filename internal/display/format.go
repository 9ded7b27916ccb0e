package display

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/zheng/cuml/internal/hierarchy"
	"github.com/zheng/cuml/internal/model"
	"github.com/zheng/cuml/internal/relation"
)

// TreeNode is a class together with the classes extending it
type TreeNode struct {
	Class    *model.Class
	Children []*TreeNode
}

// BuildTree returns the classes extending root, recursively, in declaration
// order. Each class appears once even if the extends chains loop.
func BuildTree(files []*model.File, root string) []*TreeNode {
	return buildTree(files, root, map[string]bool{root: true})
}

func buildTree(files []*model.File, name string, visited map[string]bool) []*TreeNode {
	var nodes []*TreeNode
	for _, d := range model.Declarations(files) {
		c, ok := d.Part.(*model.Class)
		if !ok || c.Extends == nil || c.Extends.Name != name || visited[c.Name] {
			continue
		}
		visited[c.Name] = true
		nodes = append(nodes, &TreeNode{Class: c})
	}
	for _, n := range nodes {
		n.Children = buildTree(files, n.Class.Name, visited)
	}
	return nodes
}

// CalcTreeMaxWidth calculates the maximum class name width and depth for alignment in the tree.
func CalcTreeMaxWidth(tree []*TreeNode, maxWidth *int, currentDepth int, maxDepth *int) {
	if currentDepth > *maxDepth {
		*maxDepth = currentDepth
	}
	for _, node := range tree {
		w := runewidth.StringWidth(node.Class.Name)
		if w > *maxWidth {
			*maxWidth = w
		}
		if len(node.Children) > 0 {
			CalcTreeMaxWidth(node.Children, maxWidth, currentDepth+1, maxDepth)
		}
	}
}

// FormatTree renders an inheritance tree with box-drawing characters. The
// second column lists the interfaces each class implements.
func FormatTree(tree []*TreeNode, indent string, maxWidth int, maxDepth int, currentDepth int) string {
	var sb strings.Builder
	for i, node := range tree {
		isLast := i == len(tree)-1
		prefix := "├──"
		if isLast {
			prefix = "└──"
		}

		padding := maxWidth + (maxDepth-currentDepth)*4
		line := fmt.Sprintf("%s%s %s", indent, prefix, runewidth.FillRight(node.Class.Name, padding))
		if impl := node.Class.ImplementsNames(); len(impl) > 0 {
			line += "  " + strings.Join(impl, ", ")
		}
		sb.WriteString(strings.TrimRight(line, " ") + "\n")

		if len(node.Children) > 0 {
			childIndent := indent + "│   "
			if isLast {
				childIndent = indent + "    "
			}
			sb.WriteString(FormatTree(node.Children, childIndent, maxWidth, maxDepth, currentDepth+1))
		}
	}
	return sb.String()
}

// FormatFocus renders the nodes of a focused hierarchy as an aligned table
func FormatFocus(entries []hierarchy.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{string(e.Role), string(e.Part.Kind()), e.Part.NodeName(), summary(e.Part)})
	}
	return table([]string{"ROLE", "KIND", "NAME", "DETAILS"}, rows)
}

// FormatEdges renders relationship edges as an aligned list
func FormatEdges(edges []relation.Edge) string {
	rows := make([][]string, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, []string{e.From, "--" + e.Cardinality + "-->", e.To})
	}
	return table(nil, rows)
}

// FormatDeclarations renders name/kind/location rows as an aligned table
func FormatDeclarations(rows [][]string) string {
	return table([]string{"KIND", "NAME", "FILE"}, rows)
}

func summary(p model.Part) string {
	switch n := p.(type) {
	case *model.Class:
		var parts []string
		if n.Extends != nil {
			parts = append(parts, "extends "+n.Extends.Name)
		}
		if len(n.Implements) > 0 {
			parts = append(parts, "implements "+strings.Join(n.ImplementsNames(), ", "))
		}
		parts = append(parts, fmt.Sprintf("%d members", len(n.Members)))
		return strings.Join(parts, "; ")
	case *model.Interface:
		if len(n.Extends) > 0 {
			return fmt.Sprintf("extends %s; %d members", strings.Join(n.ExtendsNames(), ", "), len(n.Members))
		}
		return fmt.Sprintf("%d members", len(n.Members))
	case *model.Enum:
		return fmt.Sprintf("%d values", len(n.Values))
	}
	return ""
}

// table pads every column to its widest cell, measured in terminal cells
func table(header []string, rows [][]string) string {
	all := rows
	if header != nil {
		all = append([][]string{header}, rows...)
	}
	var widths []int
	for _, row := range all {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	for _, row := range all {
		var line strings.Builder
		for i, cell := range row {
			if i > 0 {
				line.WriteString("  ")
			}
			line.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		sb.WriteString(strings.TrimRight(line.String(), " ") + "\n")
	}
	return sb.String()
}
