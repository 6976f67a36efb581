package store

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/alicebob/miniredis/v2/server"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStrings writes a flat array of bulk strings.
func writeStrings(c *server.Peer, items ...string) {
	c.WriteLen(len(items))
	for _, s := range items {
		c.WriteBulk(s)
	}
}

// fakeFalkorDB serves a tiny lake graph through GRAPH.RO_QUERY and
// rejects writes the way FalkorDB does.
func fakeFalkorDB(t *testing.T) (*miniredis.Miniredis, *FalkorDB) {
	t.Helper()
	mr := miniredis.RunT(t)

	err := mr.Server().Register("GRAPH.RO_QUERY", func(c *server.Peer, cmd string, args []string) {
		if len(args) != 2 {
			c.WriteError("ERR wrong number of arguments for 'graph.RO_QUERY' command")
			return
		}
		if args[0] != "lakes" {
			c.WriteError("ERR Invalid graph operation on empty key")
			return
		}
		q := args[1]
		switch {
		case q == "CALL db.labels()":
			c.WriteLen(3)
			writeStrings(c, "label")
			c.WriteLen(2)
			writeStrings(c, "Lake")
			writeStrings(c, "Province")
			writeStrings(c, "Query internal execution time: 0.1 milliseconds")
		case q == "CALL db.relationshipTypes()":
			c.WriteLen(3)
			writeStrings(c, "relationshipType")
			c.WriteLen(1)
			writeStrings(c, "LOCATED_IN")
			writeStrings(c)
		case q == "CALL db.propertyKeys()":
			c.WriteLen(3)
			writeStrings(c, "propertyKey")
			c.WriteLen(2)
			writeStrings(c, "name")
			writeStrings(c, "area")
			writeStrings(c)
		case strings.HasPrefix(q, "MATCH (l:Lake)"):
			c.WriteLen(3)
			writeStrings(c, "l.name", "l.area")
			c.WriteLen(1)
			c.WriteLen(2)
			c.WriteBulk("鄱阳湖")
			c.WriteInt(3150)
			writeStrings(c, "Cached execution: 1")
		case strings.HasPrefix(q, "MATCH (n)"):
			// one verbose node
			c.WriteLen(3)
			writeStrings(c, "n")
			c.WriteLen(1)
			c.WriteLen(1)
			c.WriteLen(3)
			c.WriteLen(2)
			c.WriteBulk("id")
			c.WriteInt(0)
			c.WriteLen(2)
			c.WriteBulk("labels")
			writeStrings(c, "Lake")
			c.WriteLen(2)
			c.WriteBulk("properties")
			c.WriteLen(1)
			c.WriteLen(2)
			c.WriteBulk("name")
			c.WriteBulk("洞庭湖")
			writeStrings(c)
		case strings.Contains(q, "CREATE"):
			c.WriteError("graph.RO_QUERY is to be executed only on read-only queries")
		default:
			c.WriteLen(3)
			writeStrings(c, "x")
			c.WriteLen(0)
			writeStrings(c)
		}
	})
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewFalkorDBWithClient(client, "lakes")
}

func TestNewFalkorDB(t *testing.T) {
	t.Run("Invalid URL", func(t *testing.T) {
		g, err := NewFalkorDB("invalid://")
		assert.Error(t, err)
		assert.Nil(t, g)
	})

	t.Run("Missing host", func(t *testing.T) {
		_, err := NewFalkorDB("falkordb:///lakes")
		assert.Error(t, err)
	})

	t.Run("Defaults", func(t *testing.T) {
		g, err := NewFalkorDB("falkordb://:secret@localhost:6379")
		require.NoError(t, err)
		defer g.Close()
		assert.Equal(t, DefaultGraphName, g.GraphName())
	})

	t.Run("Graph name from path", func(t *testing.T) {
		g, err := NewFalkorDB("falkordb://localhost:6379/gazetteer")
		require.NoError(t, err)
		defer g.Close()
		assert.Equal(t, "gazetteer", g.GraphName())
	})
}

func TestFalkorDB_ROQuery(t *testing.T) {
	_, db := fakeFalkorDB(t)
	ctx := context.Background()

	require.NoError(t, db.Ping(ctx))

	qr, err := db.ROQuery(ctx, "MATCH (l:Lake) RETURN l.name, l.area")
	require.NoError(t, err)
	assert.Equal(t, []string{"l.name", "l.area"}, qr.Header)
	require.Len(t, qr.Rows, 1)
	assert.Equal(t, "l.name | l.area\n鄱阳湖 | 3150\n", qr.Text())
	assert.Equal(t, []map[string]any{{"l.name": "鄱阳湖", "l.area": int64(3150)}}, qr.Records())
	assert.Equal(t, []string{"Cached execution: 1"}, qr.Statistics)

	empty, err := db.ROQuery(ctx, "MATCH (x:Nothing) RETURN x")
	require.NoError(t, err)
	assert.True(t, empty.Empty())
	assert.Equal(t, "", empty.Text())
}

func TestFalkorDB_VerboseNode(t *testing.T) {
	_, db := fakeFalkorDB(t)

	qr, err := db.ROQuery(context.Background(), "MATCH (n) RETURN n")
	require.NoError(t, err)
	assert.Equal(t, "n\n(:Lake {name: 洞庭湖})\n", qr.Text())

	rec := qr.Records()[0]["n"].(map[string]any)
	assert.Equal(t, "洞庭湖", rec["name"])
	assert.Equal(t, []string{"Lake"}, rec["_labels"])
}

func TestFalkorDB_Errors(t *testing.T) {
	_, db := fakeFalkorDB(t)
	ctx := context.Background()

	_, err := db.ROQuery(ctx, "CREATE (:Lake {name: 'x'})")
	assert.ErrorIs(t, err, ErrGraphQuery)
	assert.Contains(t, err.Error(), "read-only")

	other := NewFalkorDBWithClient(db.client, "missing")
	_, err = other.ROQuery(ctx, "MATCH (n) RETURN n")
	assert.ErrorIs(t, err, ErrGraphQuery)
}

func TestFalkorDB_Schema(t *testing.T) {
	_, db := fakeFalkorDB(t)

	schema, err := db.Schema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Lake", "Province"}, schema.NodeLabels)
	assert.Equal(t, []string{"LOCATED_IN"}, schema.RelationshipTypes)
	assert.Equal(t, []string{"name", "area"}, schema.PropertyKeys)
	assert.Contains(t, schema.String(), "Node labels: Lake, Province")
}

func TestParseQueryResult(t *testing.T) {
	_, err := parseQueryResult("OK")
	assert.Error(t, err)

	_, err = parseQueryResult([]any{1, 2, 3, 4})
	assert.Error(t, err)

	qr, err := parseQueryResult([]any{[]any{"Nodes created: 1"}})
	require.NoError(t, err)
	assert.True(t, qr.Empty())
	assert.Equal(t, []string{"Nodes created: 1"}, qr.Statistics)

	assert.Equal(t, "[1, null, a]", formatValue([]any{int64(1), nil, []byte("a")}))
}
