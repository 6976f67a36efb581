package splitter

import (
	"context"
	"fmt"
	"strings"

	"github.com/lakegraph/kgqa/log"
	"github.com/lakegraph/kgqa/oracle"
)

// StructuralChunk is one structurally complete piece, e.g. a prose passage or
// a whole poem with its title and author.
type StructuralChunk struct {
	Content string `json:"content" description:"一个完整的文本块，例如一段完整的散文描述，或一首完整的诗歌及其标题与作者。"`
}

// DocumentChunks is the structured reply shape requested from the LLM.
type DocumentChunks struct {
	Chunks []StructuralChunk `json:"chunks"`
}

const structuralSchemaName = "document_chunks"

const structuralPrompt = `你是一位资深的古籍整理专家，熟悉各类古典中文文体。
请通读下面的整段文本，依据其文体结构切分成若干文本块。
切分规则：
1. 一段连续的散文叙述（如方志记载、人物小传）单独成块。
2. 一首完整的诗词单独成块。诗题、作者与正文必须放在同一块中，不得拆开。
3. 每个块在文体上保持完整统一。
4. 文本同时包含散文与诗词时，按文体分开成块。
5. 只输出原文内容，不要改写、增补或省略，输出内容须符合安全准则。
待处理文本：` + "```%s```"

// StructuralSplitter asks an LLM to split text along literary boundaries.
type StructuralSplitter struct {
	llm oracle.LLM
}

var _ FineSplitter = (*StructuralSplitter)(nil)

// NewStructuralSplitter creates a StructuralSplitter.
func NewStructuralSplitter(llm oracle.LLM) *StructuralSplitter {
	return &StructuralSplitter{llm: llm}
}

// TrySplit makes exactly one structured LLM call and returns the trimmed chunk
// contents in reply order.
func (s *StructuralSplitter) TrySplit(ctx context.Context, text string) ([]string, error) {
	var reply DocumentChunks
	if err := s.llm.CompleteStructured(ctx, fmt.Sprintf(structuralPrompt, text), structuralSchemaName, &reply); err != nil {
		return nil, err
	}
	if reply.Chunks == nil {
		return nil, fmt.Errorf("%w: reply has no chunks", oracle.ErrStructuredOutput)
	}
	out := make([]string, len(reply.Chunks))
	for i, c := range reply.Chunks {
		out[i] = strings.TrimSpace(c.Content)
	}
	return out, nil
}

// SplitText never fails: on any error the input comes back as a single chunk.
func (s *StructuralSplitter) SplitText(ctx context.Context, text string) []string {
	chunks, err := s.TrySplit(ctx, text)
	if err != nil {
		log.Warn("structural split failed, keeping text whole: %v", err)
		return []string{text}
	}
	return chunks
}
