package store

import (
	"context"
	"fmt"
	"strings"
)

// Schema lists the labels, relationship types and property keys of a graph.
type Schema struct {
	NodeLabels        []string
	RelationshipTypes []string
	PropertyKeys      []string
}

// String renders the schema for an LLM prompt.
func (s *Schema) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Node labels: %s\n", strings.Join(s.NodeLabels, ", "))
	fmt.Fprintf(&sb, "Relationship types: %s\n", strings.Join(s.RelationshipTypes, ", "))
	fmt.Fprintf(&sb, "Property keys: %s\n", strings.Join(s.PropertyKeys, ", "))
	return sb.String()
}

// Schema reads the graph schema with the db.* procedures.
func (f *FalkorDB) Schema(ctx context.Context) (*Schema, error) {
	labels, err := f.column(ctx, "CALL db.labels()")
	if err != nil {
		return nil, err
	}
	relTypes, err := f.column(ctx, "CALL db.relationshipTypes()")
	if err != nil {
		return nil, err
	}
	keys, err := f.column(ctx, "CALL db.propertyKeys()")
	if err != nil {
		return nil, err
	}
	return &Schema{NodeLabels: labels, RelationshipTypes: relTypes, PropertyKeys: keys}, nil
}

func (f *FalkorDB) column(ctx context.Context, cypher string) ([]string, error) {
	qr, err := f.ROQuery(ctx, cypher)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(qr.Rows))
	for _, row := range qr.Rows {
		if len(row) > 0 {
			out = append(out, formatValue(row[0]))
		}
	}
	return out, nil
}
