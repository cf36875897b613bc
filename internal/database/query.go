package database

// FilterOperator represents a SQL comparison operator.
type FilterOperator int

// FilterOperator values.
const (
	OpEqual FilterOperator = iota
	OpNotEqual
	OpIn
	OpGreaterThan
	OpLessThan
	OpLike
)

// Filter is a single WHERE condition.
type Filter struct {
	Field    string
	Operator FilterOperator
	Value    any
}

// SortDirection is ascending or descending.
type SortDirection int

// SortDirection values.
const (
	SortAsc SortDirection = iota
	SortDesc
)

// OrderBy is a single sort specification.
type OrderBy struct {
	Field     string
	Direction SortDirection
}

// Query is a composable filter/order/pagination builder applied to a GORM
// session by ApplyQuery. Each method returns a copy so callers can branch
// off a shared base query.
type Query struct {
	filters []Filter
	orderBy []OrderBy
	limit   int
	offset  int
}

// NewQuery creates an empty Query.
func NewQuery() Query { return Query{} }

// Equal adds an equality filter.
func (q Query) Equal(field string, value any) Query {
	q.filters = append(q.filters, Filter{Field: field, Operator: OpEqual, Value: value})
	return q
}

// In adds an IN filter.
func (q Query) In(field string, values any) Query {
	q.filters = append(q.filters, Filter{Field: field, Operator: OpIn, Value: values})
	return q
}

// LessThan adds a "<" filter.
func (q Query) LessThan(field string, value any) Query {
	q.filters = append(q.filters, Filter{Field: field, Operator: OpLessThan, Value: value})
	return q
}

// Like adds a LIKE filter.
func (q Query) Like(field, pattern string) Query {
	q.filters = append(q.filters, Filter{Field: field, Operator: OpLike, Value: pattern})
	return q
}

// OrderAsc adds an ascending sort.
func (q Query) OrderAsc(field string) Query {
	q.orderBy = append(q.orderBy, OrderBy{Field: field, Direction: SortAsc})
	return q
}

// OrderDesc adds a descending sort.
func (q Query) OrderDesc(field string) Query {
	q.orderBy = append(q.orderBy, OrderBy{Field: field, Direction: SortDesc})
	return q
}

// Limit sets the result limit.
func (q Query) Limit(n int) Query {
	q.limit = n
	return q
}

// Offset sets the result offset.
func (q Query) Offset(n int) Query {
	q.offset = n
	return q
}

// Paginate sets limit/offset from a 1-based page number and page size.
func (q Query) Paginate(page, pageSize int) Query {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	q.limit = pageSize
	q.offset = (page - 1) * pageSize
	return q
}
