package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FilterOp 列表筛选操作
type FilterOp string

const (
	OpEqual    FilterOp = "eq"
	OpNotEqual FilterOp = "ne"
	OpLike     FilterOp = "like"
	OpNotLike  FilterOp = "not_like"
	OpGreater  FilterOp = "gt"
	OpSmaller  FilterOp = "lt"
	OpBetween  FilterOp = "between"
	OpEmpty    FilterOp = "empty"
)

// Filter 单个筛选条件，Values 已按列类型转换
//   - eq / ne / like / not_like / gt / lt: 1 个值
//   - between: 2 个值（含端点）
//   - empty: 1 个 bool，true 表示为空
type Filter struct {
	Column string
	Kind   FieldKind
	Op     FilterOp
	Values []interface{}
}

// ListQuery 列表查询条件
type ListQuery struct {
	// 每个搜索词至少匹配 SearchColumns 中的一列（词与词之间为 AND）
	SearchColumns []string
	SearchTerms   []string
	Filters       []Filter
	SortColumn    string
	SortDesc      bool
	Offset        int
	Limit         int // <= 0 表示不分页
}

// likeExpr 忽略大小写的子串匹配，对列做文本转换以兼容时间列
// 取反时 NULL 视为不包含
func likeExpr(column, term string, negate bool) clause.Expression {
	sql := "LOWER(CAST(? AS TEXT)) LIKE ? ESCAPE '\\'"
	if negate {
		sql = "COALESCE(NOT (" + sql + "), TRUE)"
	}
	return clause.Expr{
		SQL:  sql,
		Vars: []interface{}{clause.Column{Name: column}, "%" + escapeLike(strings.ToLower(term)) + "%"},
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// applySearch 每个搜索词构成一组 OR 条件
func applySearch(tx *gorm.DB, q *ListQuery) *gorm.DB {
	if len(q.SearchColumns) == 0 {
		return tx
	}
	for _, term := range q.SearchTerms {
		if term == "" {
			continue
		}
		exprs := make([]clause.Expression, 0, len(q.SearchColumns))
		for _, col := range q.SearchColumns {
			exprs = append(exprs, likeExpr(col, term, false))
		}
		tx = tx.Where(clause.Or(exprs...))
	}
	return tx
}

func applyFilters(tx *gorm.DB, q *ListQuery) *gorm.DB {
	for _, f := range q.Filters {
		if expr := filterExpr(f); expr != nil {
			tx = tx.Where(expr)
		}
	}
	return tx
}

func filterExpr(f Filter) clause.Expression {
	col := clause.Column{Name: f.Column}
	if len(f.Values) == 0 {
		return nil
	}
	v := f.Values[0]

	// 时间列的 eq / ne 按区间 [Values[0], Values[1]] 比较（同一天）
	ranged := f.Kind == KindTime && len(f.Values) == 2

	switch f.Op {
	case OpEqual:
		if ranged {
			return between(col, f.Values[0], f.Values[1])
		}
		return clause.Eq{Column: col, Value: v}
	case OpNotEqual:
		if ranged {
			return clause.Expr{SQL: "(? IS NULL OR ? < ? OR ? > ?)", Vars: []interface{}{col, col, f.Values[0], col, f.Values[1]}}
		}
		return clause.Expr{SQL: "(? IS NULL OR ? <> ?)", Vars: []interface{}{col, col, v}}
	case OpLike:
		s, _ := v.(string)
		return likeExpr(f.Column, s, false)
	case OpNotLike:
		s, _ := v.(string)
		return likeExpr(f.Column, s, true)
	case OpGreater:
		return clause.Gt{Column: col, Value: v}
	case OpSmaller:
		return clause.Lt{Column: col, Value: v}
	case OpBetween:
		if len(f.Values) < 2 {
			return nil
		}
		return between(col, f.Values[0], f.Values[1])
	case OpEmpty:
		empty, _ := v.(bool)
		isEmpty := clause.Expression(clause.Eq{Column: col, Value: nil})
		if f.Kind == KindText {
			isEmpty = clause.Expr{SQL: "(? IS NULL OR ? = '')", Vars: []interface{}{col, col}}
		}
		if empty {
			return isEmpty
		}
		return clause.Not(isEmpty)
	}
	return nil
}

func between(col clause.Column, lo, hi interface{}) clause.Expression {
	return clause.And(
		clause.Gte{Column: col, Value: lo},
		clause.Lte{Column: col, Value: hi},
	)
}

func applyOrder(tx *gorm.DB, q *ListQuery, pk string) *gorm.DB {
	if q.SortColumn != "" {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.SortColumn}, Desc: q.SortDesc})
	}
	return tx.Order(clause.OrderByColumn{Column: clause.Column{Name: pk}})
}
