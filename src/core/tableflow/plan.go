package tableflow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkumv1/AgenticAI-1/src/core/artifact"
)

const DefaultRowLimit = 10

// QueryPlan is the structured query the model emits instead of free
// form code: optional projection, row filters, one aggregate, and a
// row limit for rendered output.
type QueryPlan struct {
	Columns   []string   `json:"columns,omitempty"`
	Filters   []Filter   `json:"filters,omitempty"`
	Aggregate *Aggregate `json:"aggregate,omitempty"`
	Limit     int        `json:"limit,omitempty"`
}

type Filter struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Value  string `json:"value"`
}

type Aggregate struct {
	Func   string `json:"func"`
	Column string `json:"column"`
}

// ExecutePlan evaluates a plan against a table and renders the result
// as text. Plans referencing unknown columns or operators fail with a
// descriptive error; the flow turns that into an explanation rather
// than a pipeline failure.
func ExecutePlan(table *artifact.Table, plan *QueryPlan) (string, error) {
	rows, err := filterRows(table, plan.Filters)
	if err != nil {
		return "", err
	}

	if plan.Aggregate != nil {
		return aggregate(table, rows, plan.Aggregate)
	}

	limit := plan.Limit
	if limit <= 0 {
		limit = DefaultRowLimit
	}
	return renderRows(table, rows, plan.Columns, limit)
}

func filterRows(table *artifact.Table, filters []Filter) ([][]string, error) {
	rows := table.Rows
	for _, f := range filters {
		col, ok := table.ColumnIndex(f.Column)
		if !ok {
			return nil, fmt.Errorf("column %q does not exist", f.Column)
		}

		var kept [][]string
		for _, row := range rows {
			match, err := matches(row[col], f.Op, f.Value)
			if err != nil {
				return nil, err
			}
			if match {
				kept = append(kept, row)
			}
		}
		rows = kept
	}
	return rows, nil
}

// Comparisons are numeric when both sides parse as numbers, otherwise
// case-insensitive string comparisons.
func matches(cell, op, value string) (bool, error) {
	cellTrim := strings.TrimSpace(cell)
	valueTrim := strings.TrimSpace(value)

	switch op {
	case "eq", "ne":
		equal := strings.EqualFold(cellTrim, valueTrim)
		if cellNum, valueNum, ok := bothNumeric(cellTrim, valueTrim); ok {
			equal = cellNum == valueNum
		}
		if op == "eq" {
			return equal, nil
		}
		return !equal, nil
	case "contains":
		return strings.Contains(strings.ToLower(cell), strings.ToLower(value)), nil
	case "gt", "lt", "ge", "le":
		var cmp int
		if cellNum, valueNum, ok := bothNumeric(cellTrim, valueTrim); ok {
			switch {
			case cellNum < valueNum:
				cmp = -1
			case cellNum > valueNum:
				cmp = 1
			}
		} else {
			cmp = strings.Compare(strings.ToLower(cellTrim), strings.ToLower(valueTrim))
		}
		switch op {
		case "gt":
			return cmp > 0, nil
		case "lt":
			return cmp < 0, nil
		case "ge":
			return cmp >= 0, nil
		default:
			return cmp <= 0, nil
		}
	default:
		return false, fmt.Errorf("unsupported filter operator %q", op)
	}
}

func bothNumeric(a, b string) (float64, float64, bool) {
	aNum, errA := strconv.ParseFloat(a, 64)
	bNum, errB := strconv.ParseFloat(b, 64)
	return aNum, bNum, errA == nil && errB == nil
}

func aggregate(table *artifact.Table, rows [][]string, agg *Aggregate) (string, error) {
	if agg.Func == "count" {
		return fmt.Sprintf("count: %d", len(rows)), nil
	}

	col, ok := table.ColumnIndex(agg.Column)
	if !ok {
		return "", fmt.Errorf("column %q does not exist", agg.Column)
	}
	if len(rows) == 0 {
		return "No rows match the query.", nil
	}

	var values []float64
	for _, row := range rows {
		if v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64); err == nil {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return "", fmt.Errorf("column %q has no numeric values", agg.Column)
	}

	switch agg.Func {
	case "sum", "avg":
		var sum float64
		for _, v := range values {
			sum += v
		}
		if agg.Func == "sum" {
			return fmt.Sprintf("sum of %s: %s", agg.Column, formatNumber(sum)), nil
		}
		return fmt.Sprintf("average of %s: %s", agg.Column, formatNumber(sum/float64(len(values)))), nil
	case "min", "max":
		best := values[0]
		for _, v := range values[1:] {
			if (agg.Func == "min" && v < best) || (agg.Func == "max" && v > best) {
				best = v
			}
		}
		return fmt.Sprintf("%s of %s: %s", agg.Func, agg.Column, formatNumber(best)), nil
	default:
		return "", fmt.Errorf("unsupported aggregate function %q", agg.Func)
	}
}

func renderRows(table *artifact.Table, rows [][]string, columns []string, limit int) (string, error) {
	indices := make([]int, 0, len(table.Columns))
	names := make([]string, 0, len(table.Columns))
	if len(columns) == 0 {
		for i, name := range table.Columns {
			indices = append(indices, i)
			names = append(names, name)
		}
	} else {
		for _, name := range columns {
			i, ok := table.ColumnIndex(name)
			if !ok {
				return "", fmt.Errorf("column %q does not exist", name)
			}
			indices = append(indices, i)
			names = append(names, table.Columns[i])
		}
	}

	if len(rows) == 0 {
		return "No rows match the query.", nil
	}

	var b strings.Builder
	b.WriteString(strings.Join(names, " | "))
	shown := rows
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, row := range shown {
		cells := make([]string, 0, len(indices))
		for _, i := range indices {
			cells = append(cells, row[i])
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(cells, " | "))
	}
	if len(rows) > limit {
		b.WriteString(fmt.Sprintf("\n(showing %d of %d matching rows)", limit, len(rows)))
	}
	return b.String(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
