package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTextLoader(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes BOM and line endings", func(t *testing.T) {
		path := writeFile(t, "鄱阳湖志.txt", "\xEF\xBB\xBF彭蠡湖\r\n在州东南\r五十二里")
		doc, err := NewTextLoader(path).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "鄱阳湖志", doc.ID)
		assert.Equal(t, path, doc.Source)
		assert.Equal(t, "彭蠡湖\n在州东南\n五十二里", doc.Content)
	})

	t.Run("stdin and explicit id", func(t *testing.T) {
		doc, err := NewTextLoader("-", WithStdin(strings.NewReader("太湖")), WithDocumentID("taihu")).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "taihu", doc.ID)
		assert.Equal(t, "太湖", doc.Content)

		doc, err = NewTextLoader("-", WithStdin(strings.NewReader("x"))).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "stdin", doc.ID)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewTextLoader(filepath.Join(t.TempDir(), "nope.txt")).Load(ctx)
		assert.Error(t, err)
	})
}

func TestChapterLoader(t *testing.T) {
	content := "江西通志\n\n卷一 山川\n彭蠡湖，在州东南。\n\n卷二 艺文\n《过彭蠡湖》 唐 孟浩然\n  \n卷三\n"
	path := writeFile(t, "jiangxi.txt", content)

	l, err := NewChapterLoader(path, `^卷[一二三四五六七八九十百]+`)
	require.NoError(t, err)
	docs, err := l.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, docs, 4)
	assert.Equal(t, "jiangxi#1", docs[0].ID)
	assert.Equal(t, "江西通志", docs[0].Content)
	assert.Equal(t, "卷一 山川\n彭蠡湖，在州东南。", docs[1].Content)
	assert.Equal(t, "jiangxi#3", docs[2].ID)
	assert.Equal(t, "卷二 艺文\n《过彭蠡湖》 唐 孟浩然", docs[2].Content)
	assert.Equal(t, "卷三", docs[3].Content)

	_, err = NewChapterLoader(path, "(")
	assert.Error(t, err)
}
