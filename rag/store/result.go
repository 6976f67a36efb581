package store

import (
	"fmt"
	"sort"
	"strings"
)

// QueryResult represents the results of a query.
type QueryResult struct {
	Header     []string
	Rows       [][]any
	Statistics []string
}

// Empty reports whether the query returned no rows.
func (qr *QueryResult) Empty() bool {
	return len(qr.Rows) == 0
}

// Records returns each row keyed by column name.
func (qr *QueryResult) Records() []map[string]any {
	records := make([]map[string]any, 0, len(qr.Rows))
	for _, row := range qr.Rows {
		rec := make(map[string]any, len(row))
		for i, v := range row {
			key := fmt.Sprintf("col%d", i)
			if i < len(qr.Header) {
				key = qr.Header[i]
			}
			rec[key] = normalize(v)
		}
		records = append(records, rec)
	}
	return records
}

// Text renders the rows as a pipe-separated table, one row per line.
func (qr *QueryResult) Text() string {
	if qr.Empty() {
		return ""
	}
	var sb strings.Builder
	if len(qr.Header) > 0 {
		sb.WriteString(strings.Join(qr.Header, " | "))
		sb.WriteByte('\n')
	}
	for _, row := range qr.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		sb.WriteString(strings.Join(cells, " | "))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// parseQueryResult decodes a verbose GRAPH.RO_QUERY reply: [header, rows, stats]
// for queries that return data, [stats] or [rows, stats] otherwise.
func parseQueryResult(res any) (*QueryResult, error) {
	r, ok := res.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", res)
	}

	qr := &QueryResult{}
	switch len(r) {
	case 3:
		qr.Header = toStrings(r[0])
		qr.Rows = toRows(r[1])
		qr.Statistics = toStrings(r[2])
	case 2:
		qr.Rows = toRows(r[0])
		qr.Statistics = toStrings(r[1])
	case 1:
		qr.Statistics = toStrings(r[0])
	default:
		return nil, fmt.Errorf("unexpected response length: %d", len(r))
	}
	return qr, nil
}

func toStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = asString(item)
	}
	return out
}

func toRows(v any) [][]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		if row, ok := item.([]any); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// pairs decodes [[key, value], ...] into a map, reporting false for any other shape.
func pairs(v any) (map[string]any, bool) {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil, false
	}
	m := make(map[string]any, len(items))
	for _, item := range items {
		kv, ok := item.([]any)
		if !ok || len(kv) != 2 {
			return nil, false
		}
		key, ok := kv[0].(string)
		if !ok {
			return nil, false
		}
		m[key] = kv[1]
	}
	return m, true
}

// entity recognises verbose node and edge values.
func entity(v any) (kind string, labels []string, props map[string]any, ok bool) {
	m, ok := pairs(v)
	if !ok {
		return "", nil, nil, false
	}
	if _, hasID := m["id"]; !hasID {
		return "", nil, nil, false
	}
	rawProps, hasProps := m["properties"]
	if !hasProps {
		return "", nil, nil, false
	}
	props, _ = pairs(rawProps)
	if props == nil {
		props = map[string]any{}
	}
	if l, isNode := m["labels"]; isNode {
		return "node", toStrings(l), props, true
	}
	if t, isEdge := m["type"]; isEdge {
		return "edge", []string{asString(t)}, props, true
	}
	return "", nil, nil, false
}

func normalize(v any) any {
	if kind, labels, props, ok := entity(v); ok {
		out := make(map[string]any, len(props)+1)
		for k, p := range props {
			out[k] = normalize(p)
		}
		if kind == "node" {
			out["_labels"] = labels
		} else {
			out["_type"] = labels[0]
		}
		return out
	}
	switch x := v.(type) {
	case []byte:
		return string(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	default:
		return x
	}
}

func formatValue(v any) string {
	if kind, labels, props, ok := entity(v); ok {
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + formatValue(props[k])
		}
		body := ""
		if len(parts) > 0 {
			body = " {" + strings.Join(parts, ", ") + "}"
		}
		if kind == "node" {
			return "(:" + strings.Join(labels, ":") + body + ")"
		}
		return "[:" + labels[0] + body + "]"
	}
	switch x := v.(type) {
	case nil:
		return "null"
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = formatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return asString(x)
	}
}
