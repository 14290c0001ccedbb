package catalog

// Predicate is one AND-combined filter fragment of a compiled plan.
// Expr uses gorm placeholder syntax; Args supplies the bound values.
type Predicate struct {
	Expr string
	Args []any
}

// Computed is a derived column selected alongside product rows so that
// sort keys can reference values the schema does not store.
type Computed struct {
	Alias string
	Expr  string
}

// SortKey orders results by one column or computed alias.
type SortKey struct {
	Column string
	Desc   bool
}

// Plan is the concrete predicate/sort/limit derived from a smart rule for
// one execution. It carries no references back to the rule that produced
// it; executing the same plan twice yields the same rows.
type Plan struct {
	Predicates []Predicate
	Computed   []Computed
	Sort       []SortKey
	Limit      int

	// IDOrder, when non-empty, reorders the result to match the listed IDs.
	// Used by manual selection, which preserves input order instead of sorting.
	IDOrder []string
}

// Where appends an AND predicate to the plan.
func (p *Plan) Where(expr string, args ...any) {
	p.Predicates = append(p.Predicates, Predicate{Expr: expr, Args: args})
}

// Select appends a computed column to the plan.
func (p *Plan) Select(alias, expr string) {
	p.Computed = append(p.Computed, Computed{Alias: alias, Expr: expr})
}

// OrderBy replaces the plan's sort keys.
func (p *Plan) OrderBy(keys ...SortKey) {
	p.Sort = keys
}
