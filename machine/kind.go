package machine

// Kind is a validated directed graph of nodes: exactly one entry node, at
// least one terminal node, and a failure_prefix prepended to every failure
// message a node in this machine produces. Its topology is immutable once
// NewKind returns successfully — validation runs exactly once, at
// construction, never at run time.
type Kind[F any, M any] struct {
	name          string
	overview      string
	failurePrefix string
	nodes         map[string]*NodeDescriptor[F, M]
	order         []string
	entry         string
}

// NewKind registers nodes under name and validates the resulting graph.
// reg may be nil if no node declares InvokesMachine; otherwise
// it is consulted to confirm any InvokesMachine reference names a kind
// that was itself already validated and registered.
func NewKind[F any, M any](name, overview, failurePrefix string, nodes []*NodeDescriptor[F, M], reg *Registry) (*Kind[F, M], error) {
	k := &Kind[F, M]{
		name:          name,
		overview:      overview,
		failurePrefix: failurePrefix,
		nodes:         make(map[string]*NodeDescriptor[F, M], len(nodes)),
	}

	for _, n := range nodes {
		if _, exists := k.nodes[n.Name]; exists {
			return nil, &DefinitionError{Machine: name, Node: n.Name, Kind: DuplicateNode, Message: "node registered twice"}
		}
		k.nodes[n.Name] = n
		k.order = append(k.order, n.Name)
	}

	if err := validate(k, reg); err != nil {
		return nil, err
	}
	// validate() has already established exactly one entry; record it.
	for _, name := range k.order {
		if k.nodes[name].IsEntry {
			k.entry = name
			break
		}
	}
	return k, nil
}

// Name returns the machine kind's name, satisfying ValidatedKind.
func (k *Kind[F, M]) Name() string { return k.name }

// Overview returns the machine-level overview.
func (k *Kind[F, M]) Overview() string { return k.overview }

// FailurePrefix returns the string prepended to every failure message a
// node in this machine produces.
func (k *Kind[F, M]) FailurePrefix() string { return k.failurePrefix }

// Entry returns the name of the single entry node.
func (k *Kind[F, M]) Entry() string { return k.entry }

// Node returns the descriptor registered under name.
func (k *Kind[F, M]) Node(name string) (*NodeDescriptor[F, M], bool) {
	n, ok := k.nodes[name]
	return n, ok
}

// Nodes returns every registered node name, in registration order.
func (k *Kind[F, M]) Nodes() []string {
	out := make([]string, len(k.order))
	copy(out, k.order)
	return out
}

// qualify returns the node's fully-qualified identity "<Machine>.<step>".
func (k *Kind[F, M]) qualify(node string) string {
	return k.name + "." + node
}
