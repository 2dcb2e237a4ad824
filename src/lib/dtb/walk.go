package dtb

import "strconv"

const (
	tokenBeginNode = 1
	tokenEndNode   = 2
	tokenProp      = 3
	tokenNop       = 4
	tokenEnd       = 9
)

// MaxDepth bounds how deep a walk may descend, root included.
const MaxDepth = 16

// default cell sizes for a node without #address-cells/#size-cells
const (
	defaultAddressCells = 2
	defaultSizeCells    = 1
)

type WalkOperation uint8

const (
	// StepInto descends into a child node. For a property it is StepOver.
	StepInto WalkOperation = iota
	// StepOver skips a child node's subtree, or moves past a property.
	StepOver
	// StepOut abandons everything left in the current node and resumes with
	// the current node's next sibling.
	StepOut
)

// Visitor decides, node by node and property by property, how far a walk
// goes. ctx always describes the node that owns the child or property.
type Visitor interface {
	Node(ctx *Context, name Str) WalkOperation
	Property(ctx *Context, prop Property) WalkOperation
}

type StructureError struct {
	Offset int
	Reason string
}

func (s *StructureError) Error() string {
	return "dtb structure at " + strconv.Itoa(s.Offset) + ": " + s.Reason
}

type frame struct {
	name Str
	// cells used by this node's children
	addressCells uint32
	sizeCells    uint32
}

// Context is the path from the root to the node currently being examined.
type Context struct {
	frames [MaxDepth]frame
	depth  int
}

func (c *Context) Name() Str {
	return c.frames[c.depth].name
}

func (c *Context) IsRoot() bool {
	return c.depth == 0
}

// Depth is 0 at the root.
func (c *Context) Depth() int {
	return c.depth
}

// Parent is the name of the node above the current one, empty at the root.
func (c *Context) Parent() Str {
	if c.depth == 0 {
		return Str{}
	}
	return c.frames[c.depth-1].name
}

// AddressCells is the #address-cells that applies to the current node's reg.
func (c *Context) AddressCells() uint32 {
	if c.depth == 0 {
		return defaultAddressCells
	}
	return c.frames[c.depth-1].addressCells
}

// SizeCells is the #size-cells that applies to the current node's reg.
func (c *Context) SizeCells() uint32 {
	if c.depth == 0 {
		return defaultSizeCells
	}
	return c.frames[c.depth-1].sizeCells
}

func (c *Context) push(name Str) bool {
	if c.depth+1 >= MaxDepth {
		return false
	}
	c.depth++
	c.frames[c.depth] = frame{name: name, addressCells: defaultAddressCells, sizeCells: defaultSizeCells}
	return true
}

func (c *Context) noteCells(p Property) {
	v, ok := p.U32()
	if !ok {
		return
	}
	switch {
	case p.Name.Equal(PropAddressCells):
		c.frames[c.depth].addressCells = v
	case p.Name.Equal(PropSizeCells):
		c.frames[c.depth].sizeCells = v
	}
}

type cursor struct {
	data    []byte
	strings []byte
	pos     int
}

func (c *cursor) fail(reason string) error {
	return &StructureError{Offset: c.pos, Reason: reason}
}

func (c *cursor) u32() (uint32, error) {
	if c.pos+4 > len(c.data) {
		return 0, c.fail("truncated")
	}
	v := be32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) align() {
	c.pos = (c.pos + 3) &^ 3
}

// token returns the next token that is not a NOP.
func (c *cursor) token() (uint32, error) {
	for {
		t, err := c.u32()
		if err != nil || t != tokenNop {
			return t, err
		}
	}
}

func (c *cursor) nodeName() (Str, error) {
	start := c.pos
	for i := start; i < len(c.data); i++ {
		if c.data[i] == 0 {
			c.pos = i + 1
			c.align()
			return Str{c.data[start:i]}, nil
		}
	}
	return Str{}, c.fail("unterminated node name")
}

func (c *cursor) property() (Property, error) {
	length, err := c.u32()
	if err != nil {
		return Property{}, err
	}
	nameOff, err := c.u32()
	if err != nil {
		return Property{}, err
	}
	if uint64(c.pos)+uint64(length) > uint64(len(c.data)) {
		return Property{}, c.fail("property value overruns structure block")
	}
	value := c.data[c.pos : c.pos+int(length)]
	if uint64(nameOff) >= uint64(len(c.strings)) {
		return Property{}, c.fail("property name outside strings block")
	}
	name := c.strings[nameOff:]
	end := -1
	for i, b := range name {
		if b == 0 {
			end = i
			break
		}
	}
	if end < 0 {
		return Property{}, c.fail("unterminated property name")
	}
	c.pos += int(length)
	c.align()
	return Property{Name: Str{name[:end]}, Value: value}, nil
}

// skipNode consumes tokens up to and including the END_NODE that closes the
// node whose BEGIN_NODE (and name) was already read.
func (c *cursor) skipNode() error {
	level := 1
	for {
		t, err := c.token()
		if err != nil {
			return err
		}
		switch t {
		case tokenBeginNode:
			if _, err := c.nodeName(); err != nil {
				return err
			}
			level++
		case tokenEndNode:
			level--
			if level == 0 {
				return nil
			}
		case tokenProp:
			if _, err := c.property(); err != nil {
				return err
			}
		case tokenEnd:
			return c.fail("end of tree inside a node")
		default:
			return c.fail("unknown token")
		}
	}
}

// Event is what an Iterator stopped at.
type Event uint8

const (
	EventNone Event = iota
	// EventNode is a child of the current node. Nothing about it has been
	// read beyond its name; Decide says whether to enter it.
	EventNode
	// EventProperty belongs to the current node.
	EventProperty
)

// Iterator walks the tree one node or property at a time. It holds all of
// its state, Context included, so an Iterator kept in a local variable
// walks the tree without touching the heap. Callers that want a callback
// style can use Walk instead.
type Iterator struct {
	ctx     Context
	c       cursor
	event   Event
	name    Str
	prop    Property
	op      WalkOperation
	started bool
	done    bool
	err     error
}

func (d *Dtb) Iter() Iterator {
	return Iterator{c: cursor{data: d.structs, strings: d.strings}}
}

func (it *Iterator) Kind() Event {
	return it.event
}

// Context describes the node that owns the current child or property.
func (it *Iterator) Context() *Context {
	return &it.ctx
}

// NodeName is the name of the child at an EventNode.
func (it *Iterator) NodeName() Str {
	return it.name
}

func (it *Iterator) Property() Property {
	return it.prop
}

// Decide sets what the next call to Next does with the current event. With
// no decision a node is stepped over and a property is passed.
func (it *Iterator) Decide(op WalkOperation) {
	it.op = op
}

// Err is the structural problem that ended the walk, if any.
func (it *Iterator) Err() error {
	return it.err
}

func (it *Iterator) fail(err error) bool {
	it.err = err
	it.done = true
	it.event = EventNone
	return false
}

// apply carries out the decision made for the event Next last returned.
func (it *Iterator) apply() error {
	c := &it.c
	ctx := &it.ctx
	switch it.event {
	case EventProperty:
		if it.op != StepOut {
			break
		}
		if err := c.skipNode(); err != nil {
			return err
		}
		if ctx.depth == 0 {
			it.done = true
			break
		}
		ctx.depth--
	case EventNode:
		switch it.op {
		case StepInto:
			if !ctx.push(it.name) {
				return c.fail("tree deeper than " + strconv.Itoa(MaxDepth))
			}
		case StepOut:
			if err := c.skipNode(); err != nil {
				return err
			}
			if err := c.skipNode(); err != nil {
				return err
			}
			if ctx.depth == 0 {
				it.done = true
				break
			}
			ctx.depth--
		default:
			if err := c.skipNode(); err != nil {
				return err
			}
		}
	}
	it.event = EventNone
	it.op = StepOver
	return nil
}

func (it *Iterator) start() error {
	c := &it.c
	t, err := c.token()
	if err != nil {
		return err
	}
	if t != tokenBeginNode {
		return c.fail("tree does not start with a node")
	}
	root, err := c.nodeName()
	if err != nil {
		return err
	}
	it.ctx.frames[0] = frame{name: root, addressCells: defaultAddressCells, sizeCells: defaultSizeCells}
	return nil
}

// Next moves to the next node or property the decisions so far leave in
// view. It returns false at the end of the tree or on a structural error.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	if !it.started {
		it.started = true
		if err := it.start(); err != nil {
			return it.fail(err)
		}
	}
	if err := it.apply(); err != nil {
		return it.fail(err)
	}
	if it.done {
		return false
	}
	c := &it.c
	for {
		t, err := c.token()
		if err != nil {
			return it.fail(err)
		}
		switch t {
		case tokenProp:
			p, err := c.property()
			if err != nil {
				return it.fail(err)
			}
			it.ctx.noteCells(p)
			it.prop = p
			it.event = EventProperty
			return true
		case tokenBeginNode:
			name, err := c.nodeName()
			if err != nil {
				return it.fail(err)
			}
			it.name = name
			it.event = EventNode
			return true
		case tokenEndNode:
			if it.ctx.depth > 0 {
				it.ctx.depth--
				continue
			}
			t, err := c.token()
			if err != nil {
				return it.fail(err)
			}
			if t != tokenEnd {
				return it.fail(c.fail("content after the root node"))
			}
			it.done = true
			return false
		case tokenEnd:
			return it.fail(c.fail("end of tree inside a node"))
		default:
			return it.fail(c.fail("unknown token"))
		}
	}
}

// Walk drives an Iterator with v. The Context handed to v outlives the
// calls as far as the compiler can tell, so a walk through a Visitor costs
// one allocation; boot code uses Iter directly.
func (d *Dtb) Walk(v Visitor) error {
	it := d.Iter()
	for it.Next() {
		switch it.Kind() {
		case EventNode:
			it.Decide(v.Node(it.Context(), it.NodeName()))
		case EventProperty:
			it.Decide(v.Property(it.Context(), it.Property()))
		}
	}
	return it.Err()
}
