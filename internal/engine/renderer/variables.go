package renderer

import (
	"slices"
	"text/template"
	"text/template/parse"
)

// Variables returns the sorted top-level names a template reads from its data.
//
// A name counts when it is reached from the root data: ".name" outside any
// range or with block, "$.name" anywhere, and index over the root with a
// literal key. Names read through the rebound dot of range and with bodies
// belong to the element, not the root, and are not reported. A defined
// template is followed only where it is invoked with the root as its data.
func Variables(tmpl *template.Template) []string {
	w := &walker{
		tmpl:     tmpl,
		seen:     make(map[string]struct{}),
		expanded: make(map[string]struct{}),
	}
	if tmpl.Tree != nil && tmpl.Root != nil {
		w.walk(tmpl.Root, true)
	}

	names := make([]string, 0, len(w.seen))
	for name := range w.seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type walker struct {
	tmpl     *template.Template
	seen     map[string]struct{}
	expanded map[string]struct{}
}

func (w *walker) walk(node parse.Node, dotIsRoot bool) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			w.walk(child, dotIsRoot)
		}
	case *parse.ActionNode:
		w.walk(n.Pipe, dotIsRoot)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			w.walk(cmd, dotIsRoot)
		}
	case *parse.CommandNode:
		w.walkCommand(n, dotIsRoot)
	case *parse.FieldNode:
		if dotIsRoot && len(n.Ident) > 0 {
			w.seen[n.Ident[0]] = struct{}{}
		}
	case *parse.VariableNode:
		if len(n.Ident) > 1 && n.Ident[0] == "$" {
			w.seen[n.Ident[1]] = struct{}{}
		}
	case *parse.ChainNode:
		w.walk(n.Node, dotIsRoot)
	case *parse.IfNode:
		w.walk(n.Pipe, dotIsRoot)
		w.walk(n.List, dotIsRoot)
		w.walk(n.ElseList, dotIsRoot)
	case *parse.RangeNode:
		w.walk(n.Pipe, dotIsRoot)
		w.walk(n.List, false)
		w.walk(n.ElseList, dotIsRoot)
	case *parse.WithNode:
		w.walk(n.Pipe, dotIsRoot)
		w.walk(n.List, false)
		w.walk(n.ElseList, dotIsRoot)
	case *parse.TemplateNode:
		w.walk(n.Pipe, dotIsRoot)
		if passesRoot(n.Pipe, dotIsRoot) {
			w.expand(n.Name)
		}
	}
}

func (w *walker) walkCommand(n *parse.CommandNode, dotIsRoot bool) {
	if len(n.Args) >= 3 {
		if id, ok := n.Args[0].(*parse.IdentifierNode); ok && id.Ident == "index" && isRoot(n.Args[1], dotIsRoot) {
			if key, ok := n.Args[2].(*parse.StringNode); ok {
				w.seen[key.Text] = struct{}{}
			}
		}
	}
	for _, arg := range n.Args {
		w.walk(arg, dotIsRoot)
	}
}

// expand walks the body of a defined template once, with the root as its dot.
func (w *walker) expand(name string) {
	if _, ok := w.expanded[name]; ok {
		return
	}
	w.expanded[name] = struct{}{}
	t := w.tmpl.Lookup(name)
	if t == nil || t.Tree == nil || t.Root == nil {
		return
	}
	w.walk(t.Root, true)
}

// passesRoot reports whether a template invocation hands over the root data.
func passesRoot(pipe *parse.PipeNode, dotIsRoot bool) bool {
	if pipe == nil || len(pipe.Decl) > 0 || len(pipe.Cmds) != 1 || len(pipe.Cmds[0].Args) != 1 {
		return false
	}
	return isRoot(pipe.Cmds[0].Args[0], dotIsRoot)
}

func isRoot(node parse.Node, dotIsRoot bool) bool {
	switch n := node.(type) {
	case *parse.DotNode:
		return dotIsRoot
	case *parse.VariableNode:
		return len(n.Ident) == 1 && n.Ident[0] == "$"
	}
	return false
}
