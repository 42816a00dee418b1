package machine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightvault/archivist/machine"
)

func TestNewDiagramProjectsNodesAndColoredEdges(t *testing.T) {
	nodes := []*machine.NodeDescriptor[frozen, scratch]{
		node("acquire", func(n *machine.NodeDescriptor[frozen, scratch]) {
			n.IsEntry = true
			n.HappyPaths = []string{"report_results"}
			n.UnhappyPaths = []string{"release"}
			n.Exception = machine.MayThrowTo("release")
		}),
		node("release", func(n *machine.NodeDescriptor[frozen, scratch]) {
			n.HappyPaths = []string{"report_results"}
		}),
		node("report_results", func(n *machine.NodeDescriptor[frozen, scratch]) {
			n.IsTerminal = true
		}),
	}
	k, err := machine.NewKind("Paired", "acquire/release pairing", "[test]", nodes, nil)
	require.NoError(t, err)

	d := machine.NewDiagram(k)

	assert.Equal(t, "Paired", d.Machine)
	require.Len(t, d.Nodes, 3)
	assert.True(t, d.Nodes[0].IsEntry)
	assert.True(t, d.Nodes[2].IsTerminal)

	assert.Contains(t, d.Edges, machine.DiagramEdge{From: "acquire", To: "report_results", Kind: machine.HappyEdge})
	assert.Contains(t, d.Edges, machine.DiagramEdge{From: "acquire", To: "release", Kind: machine.UnhappyEdge})
	assert.Contains(t, d.Edges, machine.DiagramEdge{From: "acquire", To: "release", Kind: machine.ExceptionEdge})
	assert.Contains(t, d.Edges, machine.DiagramEdge{From: "release", To: "report_results", Kind: machine.HappyEdge})
}

func TestEdgeKindStringMatchesRendererColors(t *testing.T) {
	assert.Equal(t, "happy", machine.HappyEdge.String())
	assert.Equal(t, "unhappy", machine.UnhappyEdge.String())
	assert.Equal(t, "exception", machine.ExceptionEdge.String())
}
