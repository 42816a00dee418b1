package machine

// Diagram is the canonical, side-effect-free projection of a validated
// Kind's topology: every node and edge, with
// edges tagged by the kind of result that traverses them, so an external
// renderer can draw happy paths and unhappy paths in distinct colors
// without re-deriving graph structure from NodeDescriptor itself.
type Diagram struct {
	Machine string
	Nodes   []DiagramNode
	Edges   []DiagramEdge
}

// DiagramNode is one node's projected metadata.
type DiagramNode struct {
	Name           string
	Overview       string
	IsEntry        bool
	IsTerminal     bool
	InvokesMachine string
}

// EdgeKind distinguishes a happy-path edge, an unhappy-path edge, and the
// on_exception edge a may-throw node declares.
type EdgeKind int

const (
	HappyEdge EdgeKind = iota
	UnhappyEdge
	ExceptionEdge
)

// String renders the EdgeKind the way a renderer would choose a color:
// "happy" (conventionally green), "unhappy" (red), "exception" (red).
func (k EdgeKind) String() string {
	switch k {
	case HappyEdge:
		return "happy"
	case UnhappyEdge:
		return "unhappy"
	case ExceptionEdge:
		return "exception"
	default:
		return "unknown"
	}
}

// DiagramEdge is one directed edge between two nodes.
type DiagramEdge struct {
	From string
	To   string
	Kind EdgeKind
}

// NewDiagram projects k's topology. It performs no validation of its own —
// k is already a validated Kind, so every edge it reports is known-sound.
func NewDiagram[F any, M any](k *Kind[F, M]) Diagram {
	d := Diagram{Machine: k.name}

	for _, name := range k.order {
		n := k.nodes[name]
		d.Nodes = append(d.Nodes, DiagramNode{
			Name:           name,
			Overview:       n.Overview,
			IsEntry:        n.IsEntry,
			IsTerminal:     n.IsTerminal,
			InvokesMachine: n.InvokesMachine,
		})
		for _, succ := range n.HappyPaths {
			d.Edges = append(d.Edges, DiagramEdge{From: name, To: succ, Kind: HappyEdge})
		}
		for _, succ := range n.UnhappyPaths {
			d.Edges = append(d.Edges, DiagramEdge{From: name, To: succ, Kind: UnhappyEdge})
		}
		if n.Exception.MayThrow {
			d.Edges = append(d.Edges, DiagramEdge{From: name, To: n.Exception.OnException, Kind: ExceptionEdge})
		}
	}
	return d
}
