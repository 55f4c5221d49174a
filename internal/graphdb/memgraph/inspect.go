package memgraph

import "github.com/yungbote/archgraph/internal/graphdb"

// Pair is one edge reduced to its endpoint ids.
type Pair struct {
	From string
	To   string
}

// Edges returns the edges of typ in creation order; an empty typ returns all.
func (g *Graph) Edges(typ string) []Pair {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Pair
	for _, e := range g.edges {
		if typ == "" || e.typ == typ {
			out = append(out, Pair{From: e.from.id(), To: e.to.id()})
		}
	}
	return out
}

// EdgesFrom returns the targets of typ edges leaving id.
func (g *Graph) EdgesFrom(id, typ string) []string {
	var out []string
	for _, p := range g.Edges(typ) {
		if p.From == id {
			out = append(out, p.To)
		}
	}
	return out
}

func (g *Graph) NodeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

func (g *Graph) HasNode(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.find(id, "")) > 0
}

func (g *Graph) Constraints() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.constraints))
	for name := range g.constraints {
		out = append(out, name)
	}
	return out
}

// Executed returns every statement seen so far, in order.
func (g *Graph) Executed() []graphdb.Statement {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]graphdb.Statement(nil), g.executed...)
}
