package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultGraphName is used when the connection string carries no path.
const DefaultGraphName = "kgqa"

// ErrGraphQuery wraps failures reported by FalkorDB or the connection.
var ErrGraphQuery = errors.New("graph query failed")

// FalkorDB runs Cypher against one named graph.
type FalkorDB struct {
	client    redis.UniversalClient
	graphName string
}

// NewFalkorDB connects using a connection string of the form
// falkordb://[:password@]host:port/graph_name.
func NewFalkorDB(connectionString string) (*FalkorDB, error) {
	u, err := url.Parse(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}
	if u.Scheme != "falkordb" && u.Scheme != "redis" {
		return nil, fmt.Errorf("invalid connection string: unsupported scheme %q", u.Scheme)
	}

	addr := u.Host
	if addr == "" {
		return nil, fmt.Errorf("invalid connection string: missing host")
	}
	graphName := strings.TrimPrefix(u.Path, "/")
	if graphName == "" {
		graphName = DefaultGraphName
	}

	opts := &redis.Options{Addr: addr}
	if u.User != nil {
		opts.Username = u.User.Username()
		opts.Password, _ = u.User.Password()
	}

	return NewFalkorDBWithClient(redis.NewClient(opts), graphName), nil
}

// NewFalkorDBWithClient uses an existing go-redis client.
func NewFalkorDBWithClient(client redis.UniversalClient, graphName string) *FalkorDB {
	if graphName == "" {
		graphName = DefaultGraphName
	}
	return &FalkorDB{client: client, graphName: graphName}
}

// GraphName returns the graph this client queries.
func (f *FalkorDB) GraphName() string {
	return f.graphName
}

// ROQuery executes a read-only Cypher query. FalkorDB rejects writes.
func (f *FalkorDB) ROQuery(ctx context.Context, cypher string) (*QueryResult, error) {
	return f.do(ctx, "GRAPH.RO_QUERY", cypher)
}

func (f *FalkorDB) do(ctx context.Context, command, cypher string) (*QueryResult, error) {
	res, err := f.client.Do(ctx, command, f.graphName, cypher).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphQuery, err)
	}
	qr, err := parseQueryResult(res)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphQuery, err)
	}
	return qr, nil
}

// Ping checks the connection.
func (f *FalkorDB) Ping(ctx context.Context) error {
	return f.client.Ping(ctx).Err()
}

// Close closes the driver
func (f *FalkorDB) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
