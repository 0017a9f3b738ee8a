package dimension

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"promocut/internal/services"
)

// MaxDepth is the deepest level a dimension tree may have.
const MaxDepth = 3

// Node is one taxonomy entry. Weight is local; EffectiveWeight multiplies in ancestors.
type Node struct {
	ID       string
	Name     string
	Keywords []string
	Weight   float64
	Children []*Node

	parent *Node
	level  int
}

// Level returns 1 for roots, 2 for their children, 3 below that.
func (n *Node) Level() int { return n.level }

// Path returns the dotted id path from the root, e.g. "d1.s2.k1".
func (n *Node) Path() string {
	if n.parent == nil {
		return n.ID
	}
	return n.parent.Path() + "." + n.ID
}

// EffectiveWeight is the product of this node's weight and all ancestor weights.
func (n *Node) EffectiveWeight() float64 {
	w := n.Weight
	for p := n.parent; p != nil; p = p.parent {
		w *= p.Weight
	}
	return w
}

// Tree is an ordered forest of level-1 nodes.
type Tree struct {
	Roots []*Node
}

// Len returns the number of level-1 nodes.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Roots)
}

// NewNode constructs a node; attach children with Add.
func NewNode(id, name string, weight float64, keywords ...string) *Node {
	return &Node{ID: id, Name: name, Weight: weight, Keywords: keywords}
}

// Add appends children in order and returns n.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// NewTree builds a tree from level-1 nodes, linking parents and levels.
func NewTree(roots ...*Node) *Tree {
	t := &Tree{Roots: roots}
	t.link()
	return t
}

func (t *Tree) link() {
	var visit func(nodes []*Node, parent *Node, level int)
	visit = func(nodes []*Node, parent *Node, level int) {
		for _, n := range nodes {
			n.parent = parent
			n.level = level
			visit(n.Children, n, level+1)
		}
	}
	visit(t.Roots, nil, 1)
}

// Level returns all nodes at the given level in document order.
func (t *Tree) Level(level int) []*Node {
	var out []*Node
	t.Walk(func(n *Node) {
		if n.level == level {
			out = append(out, n)
		}
	})
	return out
}

// Walk visits nodes depth-first in document order.
func (t *Tree) Walk(fn func(*Node)) {
	if t == nil {
		return
	}
	var visit func(nodes []*Node)
	visit = func(nodes []*Node) {
		for _, n := range nodes {
			fn(n)
			visit(n.Children)
		}
	}
	visit(t.Roots)
}

// CategoryOrder returns level-1 names in document order.
func (t *Tree) CategoryOrder() []string {
	out := make([]string, 0, t.Len())
	for _, root := range t.Roots {
		out = append(out, root.Name)
	}
	return out
}

// Validate checks weights, depth, and id uniqueness among siblings.
func (t *Tree) Validate() error {
	if t.Len() == 0 {
		return services.Wrap(services.ErrValidation, "dimensions", "validate", "Dimension tree is empty", nil)
	}
	t.link()
	var check func(nodes []*Node, level int) error
	check = func(nodes []*Node, level int) error {
		seen := make(map[string]struct{}, len(nodes))
		for _, n := range nodes {
			if level > MaxDepth {
				return validationError(n, fmt.Sprintf("depth %d exceeds maximum of %d", level, MaxDepth))
			}
			if strings.TrimSpace(n.ID) == "" {
				return validationError(n, "empty node id")
			}
			if _, dup := seen[n.ID]; dup {
				return validationError(n, "duplicate sibling id")
			}
			seen[n.ID] = struct{}{}
			if !(n.Weight > 0 && n.Weight <= 1) {
				return validationError(n, fmt.Sprintf("weight %v outside (0,1]", n.Weight))
			}
			if err := check(n.Children, level+1); err != nil {
				return err
			}
		}
		return nil
	}
	return check(t.Roots, 1)
}

func validationError(n *Node, detail string) error {
	return services.Wrap(services.ErrValidation, "dimensions", "validate",
		fmt.Sprintf("Dimension %q: %s", n.Path(), detail), nil)
}

// FromKeywords builds a flat tree with one level-1 node per keyword.
func FromKeywords(keywords []string) *Tree {
	var roots []*Node
	for i, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		roots = append(roots, NewNode(fmt.Sprintf("keyword_%d", i+1), kw, 1, kw))
	}
	return NewTree(roots...)
}

// Parse decodes and validates a dimension document.
func Parse(data []byte) (*Tree, error) {
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, services.Wrap(services.ErrValidation, "dimensions", "parse", "Malformed dimension JSON", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadFile reads and validates a dimension file. A missing file is ErrMissingInput.
func LoadFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrMissingInput, "dimensions", "load", "Dimension file not found: "+path, err)
		}
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	return Parse(data)
}

// UnmarshalJSON decodes the keyed object form while keeping key order.
func (t *Tree) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	roots, err := decodeNodes(dec, nil, 1)
	if err != nil {
		return err
	}
	t.Roots = roots
	return nil
}

func decodeNodes(dec *json.Decoder, parent *Node, level int) ([]*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object of dimensions at level %d, got %v", level, tok)
	}
	var nodes []*Node
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		id, _ := keyTok.(string)
		node, err := decodeNode(dec, id, parent, level)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return nodes, nil
}

func decodeNode(dec *json.Decoder, id string, parent *Node, level int) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("dimension %q: expected object, got %v", id, tok)
	}
	node := &Node{ID: id, parent: parent, level: level, Weight: 1}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		switch key {
		case "name":
			err = dec.Decode(&node.Name)
		case "keywords":
			err = dec.Decode(&node.Keywords)
		case "weight":
			var num json.Number
			if err = dec.Decode(&num); err == nil {
				node.Weight, err = num.Float64()
			}
		case "sub_dimensions":
			node.Children, err = decodeNodes(dec, node, level+1)
		default:
			var skip json.RawMessage
			err = dec.Decode(&skip)
		}
		if err != nil {
			return nil, fmt.Errorf("dimension %q field %q: %w", id, key, err)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(node.Name) == "" {
		node.Name = id
	}
	return node, nil
}

// MarshalJSON encodes the tree in document order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeNodes(&buf, t.Roots); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeNodes(buf *bytes.Buffer, nodes []*Node) error {
	buf.WriteByte('{')
	for i, n := range nodes {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n.ID)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteString(`:{"name":`)
		name, err := json.Marshal(n.Name)
		if err != nil {
			return err
		}
		buf.Write(name)
		keywords := n.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		kw, err := json.Marshal(keywords)
		if err != nil {
			return err
		}
		buf.WriteString(`,"keywords":`)
		buf.Write(kw)
		weight, err := json.Marshal(n.Weight)
		if err != nil {
			return err
		}
		buf.WriteString(`,"weight":`)
		buf.Write(weight)
		if len(n.Children) > 0 {
			buf.WriteString(`,"sub_dimensions":`)
			if err := encodeNodes(buf, n.Children); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return nil
}
