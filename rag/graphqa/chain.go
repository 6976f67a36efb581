// Package graphqa answers questions over a FalkorDB knowledge graph: the LLM
// writes a read-only Cypher query from the graph schema, the query runs, and
// the LLM phrases the rows as an answer.
package graphqa

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/lakegraph/kgqa/log"
	"github.com/lakegraph/kgqa/oracle"
	"github.com/lakegraph/kgqa/rag/store"
)

// NoAnswer is returned when the query matched nothing.
const NoAnswer = "I don't know the answer."

// DefaultTopK caps the rows passed to the answer prompt.
const DefaultTopK = 10

var (
	// ErrNoCypher is returned when the LLM reply holds no statement.
	ErrNoCypher = errors.New("no cypher statement generated")

	// ErrUnsafeCypher is returned for statements that would modify the graph.
	ErrUnsafeCypher = errors.New("cypher statement is not read-only")
)

// Graph is the subset of the FalkorDB client the chain needs.
type Graph interface {
	Schema(ctx context.Context) (*store.Schema, error)
	ROQuery(ctx context.Context, cypher string) (*store.QueryResult, error)
}

var _ Graph = (*store.FalkorDB)(nil)

// CypherChain implements question answering over a graph.
type CypherChain struct {
	llm   oracle.LLM
	graph Graph
	topK  int

	mu     sync.Mutex
	schema *store.Schema
}

// Option configures a CypherChain.
type Option func(*CypherChain)

// WithTopK sets how many rows reach the answer prompt.
func WithTopK(k int) Option {
	return func(c *CypherChain) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithSchema fixes the schema instead of reading it from the graph.
func WithSchema(schema *store.Schema) Option {
	return func(c *CypherChain) {
		c.schema = schema
	}
}

// NewCypherChain creates a chain.
func NewCypherChain(llm oracle.LLM, graph Graph, opts ...Option) *CypherChain {
	c := &CypherChain{llm: llm, graph: graph, topK: DefaultTopK}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CypherChain) getSchema(ctx context.Context) (*store.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.schema != nil {
		return c.schema, nil
	}
	schema, err := c.graph.Schema(ctx)
	if err != nil {
		return nil, err
	}
	c.schema = schema
	return schema, nil
}

// GenerateCypher asks the LLM for a read-only statement answering question.
func (c *CypherChain) GenerateCypher(ctx context.Context, question string) (string, error) {
	schema, err := c.getSchema(ctx)
	if err != nil {
		return "", fmt.Errorf("load schema: %w", err)
	}
	reply, err := c.llm.Complete(ctx, fmt.Sprintf(cypherGenerationPrompt, c.topK, schema, question))
	if err != nil {
		return "", err
	}
	cypher := ExtractCypher(reply)
	if cypher == "" {
		return "", ErrNoCypher
	}
	if !IsReadOnly(cypher) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeCypher, cypher)
	}
	return cypher, nil
}

// Ask answers question from the graph.
func (c *CypherChain) Ask(ctx context.Context, question string) (string, error) {
	cypher, err := c.GenerateCypher(ctx, question)
	if err != nil {
		return "", err
	}
	log.Debug("generated cypher: %s", cypher)

	qr, err := c.graph.ROQuery(ctx, cypher)
	if err != nil {
		return "", err
	}
	if qr.Empty() {
		log.Info("cypher returned no rows: %s", cypher)
		return NoAnswer, nil
	}
	if len(qr.Rows) > c.topK {
		qr.Rows = qr.Rows[:c.topK]
	}

	return c.llm.Complete(ctx, fmt.Sprintf(answerPrompt, qr.Text(), question))
}

var fencedCypher = regexp.MustCompile("(?s)```(?:cypher|Cypher|CYPHER)?\\s*(.*?)```")

// ExtractCypher pulls the statement out of a reply, with or without code fences.
func ExtractCypher(reply string) string {
	if m := fencedCypher.FindStringSubmatch(reply); m != nil {
		reply = m[1]
	}
	reply = strings.TrimSpace(reply)
	return strings.TrimSpace(strings.TrimSuffix(reply, ";"))
}

var (
	stringLiteral = regexp.MustCompile(`'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"`)
	writeClause   = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP|FOREACH|LOAD\s+CSV)\b`)
)

// IsReadOnly reports whether cypher contains no write clause outside string literals.
func IsReadOnly(cypher string) bool {
	return !writeClause.MatchString(stringLiteral.ReplaceAllString(cypher, "''"))
}
