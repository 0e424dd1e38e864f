package protocol

// MaxNodeIdentifierLen is the longest name a module accepts.
const MaxNodeIdentifierLen = 20

// NodeDiscover asks every module in the network to identify itself.
// Each module answers with its own response carrying a NodeInfo record.
type NodeDiscover struct {
	BaseCommand

	node *NodeInfo
}

// NewNodeDiscover creates a discovery request.
func NewNodeDiscover(opts ...CommandOption) *NodeDiscover {
	return &NodeDiscover{BaseCommand: newOutbound(NameNodeDiscover, opts)}
}

// Node returns the record of the answering module.
func (c *NodeDiscover) Node() (NodeInfo, bool) {
	if c.node == nil {
		return NodeInfo{}, false
	}
	return *c.node, true
}

// String implements Frame.
func (c *NodeDiscover) String() string {
	var v namedValues
	if c.node != nil {
		c.node.describe(&v)
	}
	return c.format(&v)
}

func decodeNodeDiscover(base BaseCommand) (Command, error) {
	c := &NodeDiscover{BaseCommand: base}
	if len(c.parameter) == 0 {
		return c, nil
	}
	info, err := ParseNodeInfo(c.parameter)
	if err != nil {
		return nil, &InvalidFieldError{Field: KeyParameter, Err: err}
	}
	c.node = info
	return c, nil
}

// NodeIdentifier sets or reads the human readable module name.
type NodeIdentifier struct {
	BaseCommand
}

// NewNodeIdentifier creates a request setting the module name.
func NewNodeIdentifier(name string, opts ...CommandOption) (*NodeIdentifier, error) {
	if len(name) > MaxNodeIdentifierLen {
		return nil, parameterErrorf(NameNodeIdentifier, "name %q longer than %d characters", name, MaxNodeIdentifierLen)
	}
	for _, ch := range []byte(name) {
		if ch < 0x20 || ch > 0x7e {
			return nil, parameterErrorf(NameNodeIdentifier, "name %q is not printable ASCII", name)
		}
	}
	c := &NodeIdentifier{BaseCommand: newOutbound(NameNodeIdentifier, opts)}
	c.setParameter([]byte(name))
	return c, nil
}

// Identifier returns the module name.
func (c *NodeIdentifier) Identifier() (string, bool) {
	return string(c.parameter), c.hasParameter
}

// String implements Frame.
func (c *NodeIdentifier) String() string {
	var v namedValues
	if c.hasParameter {
		v.add("NI", string(c.parameter))
	}
	return c.format(&v)
}

func decodeNodeIdentifier(base BaseCommand) (Command, error) {
	return &NodeIdentifier{BaseCommand: base}, nil
}

func init() {
	Commands.MustPut(NameNodeDiscover, decodeNodeDiscover)
	Commands.MustPut(NameNodeIdentifier, decodeNodeIdentifier)
}
