package query

import "slices"

type NodeKind byte

const (
	FilterNode NodeKind = iota + 1
	SortNode
	GroupNode
	ProjectNode
	LimitNode
)

// Node is one step of a plan; only the field matching Kind is set.
type Node struct {
	Kind NodeKind

	Filter    FilterCondition
	Sort      []SortKey
	Aggregate AggregateSelector
	Project   []string
	Limit     int
}

// Plan is an immutable chain of nodes. Every builder call returns a new plan
// sharing its parent, so partially built plans can be reused freely.
type Plan struct {
	parent *Plan
	node   *Node
	depth  int
}

// New returns an empty plan selecting every live row.
func New() *Plan {
	return &Plan{}
}

func (p *Plan) with(node Node) *Plan {
	if p == nil {
		p = New()
	}
	return &Plan{parent: p, node: &node, depth: p.depth + 1}
}

func (p *Plan) Filter(column string, cmp Comparator, value any) *Plan {
	return p.with(Node{Kind: FilterNode, Filter: FilterCondition{Column: column, Comparator: cmp, Value: value}})
}

// Sort orders by columns, all in one direction. Later calls add lower priority keys.
func (p *Plan) Sort(direction Direction, columns ...string) *Plan {
	keys := make([]SortKey, len(columns))
	for i, c := range columns {
		keys[i] = SortKey{Column: c, Direction: direction}
	}
	return p.with(Node{Kind: SortNode, Sort: keys})
}

// SortBy adds keys with individual directions.
func (p *Plan) SortBy(keys ...SortKey) *Plan {
	return p.with(Node{Kind: SortNode, Sort: slices.Clone(keys)})
}

func (p *Plan) GroupByAggregate(groupColumn, valueColumn string, agg Aggregation, outputName string) *Plan {
	return p.with(Node{Kind: GroupNode, Aggregate: AggregateSelector{
		GroupColumn: groupColumn,
		ValueColumn: valueColumn,
		Aggregation: agg,
		Alias:       outputName,
	}})
}

func (p *Plan) Project(columns ...string) *Plan {
	return p.with(Node{Kind: ProjectNode, Project: slices.Clone(columns)})
}

func (p *Plan) Limit(n int) *Plan {
	return p.with(Node{Kind: LimitNode, Limit: n})
}

func (p *Plan) Head(n int) *Plan {
	return p.Limit(n)
}

// Nodes returns the chain in call order.
func (p *Plan) Nodes() []Node {
	if p == nil {
		return nil
	}

	out := make([]Node, p.depth)
	for cur := p; cur != nil && cur.node != nil; cur = cur.parent {
		out[cur.depth-1] = *cur.node
	}
	return out
}

func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return p.depth
}
