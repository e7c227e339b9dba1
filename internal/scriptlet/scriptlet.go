// Package scriptlet evaluates the template dialect used by body and subject
// templates: <?= x ?> prints a binding HTML-escaped, <?!= x ?> prints it
// raw, and <? if (x) { ?> ... <? } else { ?> ... <? } ?> includes blocks
// based on binding truthiness. Variables without a binding render as the
// empty string; availability wins over strictness here so a half-filled
// record still produces a sendable email.
package scriptlet

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

const (
	openTag  = "<?"
	closeTag = "?>"
)

var (
	ifPattern   = regexp.MustCompile(`^if\s*\(?\s*([A-Za-z_][A-Za-z0-9_]*)\s*\)?\s*\{$`)
	elsePattern = regexp.MustCompile(`^\}\s*else\s*\{$`)
)

// node is one piece of a parsed template.
type node interface {
	render(sb *strings.Builder, vars map[string]string)
}

// textNode is literal template text emitted verbatim.
type textNode string

func (n textNode) render(sb *strings.Builder, vars map[string]string) {
	sb.WriteString(string(n))
}

// printNode emits a binding, escaped unless raw.
type printNode struct {
	name string
	raw  bool
}

func (n printNode) render(sb *strings.Builder, vars map[string]string) {
	value := vars[n.name]
	if n.raw {
		sb.WriteString(value)
		return
	}
	sb.WriteString(html.EscapeString(value))
}

// ifNode includes one of two branches based on a binding's truthiness.
type ifNode struct {
	name string
	then []node
	els  []node
}

func (n ifNode) render(sb *strings.Builder, vars map[string]string) {
	branch := n.els
	if truthy(vars[n.name]) {
		branch = n.then
	}
	for _, child := range branch {
		child.render(sb, vars)
	}
}

// truthy reports whether a binding value enables a conditional block.
// Absent bindings are empty strings and therefore falsy.
func truthy(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && !strings.EqualFold(value, "false") && value != "0"
}

// Render evaluates template text against vars. It returns an error only for
// malformed scriptlet structure (unclosed tag or block); unknown variables
// are rendered as empty strings.
func Render(template string, vars map[string]string) (string, error) {
	nodes, err := parse(template)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, n := range nodes {
		n.render(&sb, vars)
	}
	return sb.String(), nil
}

// frame is an if-block under construction on the parse stack.
type frame struct {
	name   string
	then   []node
	els    []node
	inElse bool
}

func (f *frame) append(n node) {
	if f.inElse {
		f.els = append(f.els, n)
	} else {
		f.then = append(f.then, n)
	}
}

func parse(template string) ([]node, error) {
	var top []node
	var stack []*frame

	emit := func(n node) {
		if len(stack) > 0 {
			stack[len(stack)-1].append(n)
		} else {
			top = append(top, n)
		}
	}

	rest := template
	for {
		open := strings.Index(rest, openTag)
		if open < 0 {
			if rest != "" {
				emit(textNode(rest))
			}
			break
		}
		if open > 0 {
			emit(textNode(rest[:open]))
		}
		rest = rest[open+len(openTag):]

		end := strings.Index(rest, closeTag)
		if end < 0 {
			return nil, fmt.Errorf("unclosed scriptlet tag")
		}
		body := rest[:end]
		rest = rest[end+len(closeTag):]

		switch {
		case strings.HasPrefix(body, "!="):
			emit(printNode{name: strings.TrimSpace(body[2:]), raw: true})

		case strings.HasPrefix(body, "="):
			emit(printNode{name: strings.TrimSpace(body[1:])})

		default:
			stmt := strings.TrimSpace(body)
			switch {
			case ifPattern.MatchString(stmt):
				name := ifPattern.FindStringSubmatch(stmt)[1]
				stack = append(stack, &frame{name: name})

			case elsePattern.MatchString(stmt):
				if len(stack) == 0 {
					return nil, fmt.Errorf("else without matching if block")
				}
				f := stack[len(stack)-1]
				if f.inElse {
					return nil, fmt.Errorf("duplicate else in if block")
				}
				f.inElse = true

			case stmt == "}":
				if len(stack) == 0 {
					return nil, fmt.Errorf("unmatched closing brace")
				}
				f := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				emit(ifNode{name: f.name, then: f.then, els: f.els})

			default:
				return nil, fmt.Errorf("unsupported scriptlet statement: %q", stmt)
			}
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed if block for variable %q", stack[len(stack)-1].name)
	}
	return top, nil
}
