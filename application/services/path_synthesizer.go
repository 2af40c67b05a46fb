package services

import (
	"context"
	"sort"

	"agentmesh/application/ports"
	"agentmesh/domain/core/entities"
	"agentmesh/domain/core/valueobjects"
	apperrors "agentmesh/pkg/errors"

	"go.uber.org/zap"
)

// PathSynthesizer turns the capability-scoped edge set into the candidate
// execution paths a planner can pick from. Synthesis is a pure function of
// the current edge set: no side effects, safe for unbounded concurrency.
type PathSynthesizer struct {
	graphStore ports.GraphStore
	logger     *zap.Logger
}

// NewPathSynthesizer creates a new path synthesizer
func NewPathSynthesizer(graphStore ports.GraphStore, logger *zap.Logger) *PathSynthesizer {
	return &PathSynthesizer{
		graphStore: graphStore,
		logger:     logger,
	}
}

// Synthesize enumerates every candidate path for the capability.
//
// Chains are simple paths from a source (out-degree >= 1, in-degree 0) to a
// reachable sink (in-degree >= 1, out-degree 0). The traversal abandons any
// branch that revisits a tool already on the current path, so a cyclic
// subgraph bounds the work instead of hanging it. Tools tagged with the
// capability but touching no edge become single-tool candidates.
//
// Output ordering is deterministic: chains longest first with ties broken by
// the lexicographic tool-id sequence, then single tools by tool id.
func (s *PathSynthesizer) Synthesize(ctx context.Context, capability string) ([]entities.CandidatePath, error) {
	capVO, err := valueobjects.NewCapability(capability)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	edges, err := s.graphStore.QueryEdges(ctx, capVO)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to query edges for capability %q", capVO.String())
	}

	isolated, err := s.graphStore.QueryIsolatedTools(ctx, capVO)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to query isolated tools for capability %q", capVO.String())
	}

	graph := buildCapabilityGraph(edges)
	chains := graph.enumerateChains()
	singles := graph.singleToolCandidates(isolated)

	s.logger.Debug("Synthesized candidate paths",
		zap.String("capability", capVO.String()),
		zap.Int("edges", len(edges)),
		zap.Int("chains", len(chains)),
		zap.Int("singleTools", len(singles)),
	)

	result := make([]entities.CandidatePath, 0, len(chains)+len(singles))
	result = append(result, chains...)
	result = append(result, singles...)
	return result, nil
}

// capabilityGraph is the directed graph restricted to one capability's edges
type capabilityGraph struct {
	// outgoing edges per tool id, sorted by target id for stable traversal
	adjacency map[string][]entities.ToolEdge
	inDegree  map[string]int
	tools     map[string]entities.ToolDescriptor
}

func buildCapabilityGraph(edges []entities.ToolEdge) *capabilityGraph {
	g := &capabilityGraph{
		adjacency: make(map[string][]entities.ToolEdge),
		inDegree:  make(map[string]int),
		tools:     make(map[string]entities.ToolDescriptor),
	}
	for _, edge := range edges {
		fromID := edge.From.ID.String()
		toID := edge.To.ID.String()
		g.adjacency[fromID] = append(g.adjacency[fromID], edge)
		g.inDegree[toID]++
		g.tools[fromID] = edge.From
		g.tools[toID] = edge.To
	}
	for id := range g.adjacency {
		out := g.adjacency[id]
		sort.Slice(out, func(i, j int) bool {
			return out[i].To.ID.Less(out[j].To.ID)
		})
	}
	return g
}

// sources returns tool ids with outgoing edges and no incoming ones,
// sorted for deterministic traversal order
func (g *capabilityGraph) sources() []string {
	var ids []string
	for id := range g.adjacency {
		if g.inDegree[id] == 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// enumerateChains walks every simple source-to-sink path
func (g *capabilityGraph) enumerateChains() []entities.CandidatePath {
	var chains []entities.CandidatePath
	seen := make(map[string]bool)

	for _, sourceID := range g.sources() {
		walk := &chainWalk{graph: g, onPath: make(map[string]bool)}
		walk.visit(sourceID, func(tools []entities.ToolDescriptor, pathEdges []entities.ToolEdge) {
			chain, err := entities.NewChainPath(tools, agreedIntent(pathEdges))
			if err != nil {
				return
			}
			key := chain.SequenceKey()
			if seen[key] {
				return
			}
			seen[key] = true
			chains = append(chains, chain)
		})
	}

	// Longest first; equal lengths fall back to the tool-id sequence
	sort.Slice(chains, func(i, j int) bool {
		if chains[i].Len() != chains[j].Len() {
			return chains[i].Len() > chains[j].Len()
		}
		return chains[i].SequenceKey() < chains[j].SequenceKey()
	})
	return chains
}

// chainWalk carries the DFS state for one source
type chainWalk struct {
	graph     *capabilityGraph
	pathTools []entities.ToolDescriptor
	pathEdges []entities.ToolEdge
	onPath    map[string]bool
}

func (w *chainWalk) visit(toolID string, emit func([]entities.ToolDescriptor, []entities.ToolEdge)) {
	w.onPath[toolID] = true
	w.pathTools = append(w.pathTools, w.graph.tools[toolID])

	outgoing := w.graph.adjacency[toolID]
	if len(outgoing) == 0 {
		// Reached a sink; a path of one tool is not a chain
		if len(w.pathTools) >= 2 {
			emit(append([]entities.ToolDescriptor(nil), w.pathTools...),
				append([]entities.ToolEdge(nil), w.pathEdges...))
		}
	} else {
		for _, edge := range outgoing {
			next := edge.To.ID.String()
			if w.onPath[next] {
				// Revisiting a tool already on the path: abandon the branch
				continue
			}
			w.pathEdges = append(w.pathEdges, edge)
			w.visit(next, emit)
			w.pathEdges = w.pathEdges[:len(w.pathEdges)-1]
		}
	}

	w.pathTools = w.pathTools[:len(w.pathTools)-1]
	delete(w.onPath, toolID)
}

// agreedIntent returns the shared composite intent across all edges of a
// chain, or nil when any edge lacks one or the edges disagree. A disputed
// intent is left unset rather than picked arbitrarily.
func agreedIntent(pathEdges []entities.ToolEdge) *string {
	var intent *string
	for _, edge := range pathEdges {
		if edge.CompositeIntent == nil {
			return nil
		}
		if intent == nil {
			intent = edge.CompositeIntent
			continue
		}
		if *intent != *edge.CompositeIntent {
			return nil
		}
	}
	return intent
}

// singleToolCandidates turns capability-tagged tools that touch no edge
// into single_tool candidates, sorted by tool id
func (g *capabilityGraph) singleToolCandidates(isolated []entities.ToolDescriptor) []entities.CandidatePath {
	var singles []entities.CandidatePath
	seen := make(map[string]bool)
	for _, tool := range isolated {
		id := tool.ID.String()
		if seen[id] {
			continue
		}
		// A tool that participates in any edge for this capability can
		// never be a single-tool candidate, whatever the index says
		if _, onGraph := g.tools[id]; onGraph {
			continue
		}
		seen[id] = true
		single, err := entities.NewSingleToolPath(tool)
		if err != nil {
			continue
		}
		singles = append(singles, single)
	}
	sort.Slice(singles, func(i, j int) bool {
		return singles[i].Tools[0].ID.Less(singles[j].Tools[0].ID)
	})
	return singles
}
