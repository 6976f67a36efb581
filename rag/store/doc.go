// Package store is a thin FalkorDB client over go-redis. It runs read-only Cypher
// through GRAPH.RO_QUERY, decodes the verbose reply format and reads the
// graph schema that Cypher generation needs.
package store
