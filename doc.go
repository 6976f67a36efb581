// Package kgqa is a knowledge-graph question answering service.
//
// A question flows through a three-step workflow built on package graph:
// a web search, a Cypher query against a FalkorDB knowledge graph (rewritten
// and retried once when the first answer is empty), and a final synthesis by
// the LLM. The workflow runs either to completion or as a stream of
// server-sent events.
//
// The knowledge graph is fed from long documents cut by the hierarchical
// splitter in rag/splitter: a coarse overlapping window pass followed by a
// bounded-concurrency LLM pass that cuts each window on structural
// boundaries, merged and deduplicated in order.
//
// # Packages
//
//   - agent: the question-answering workflow and its event stream
//   - graph: the generic state graph the workflow is compiled from
//   - oracle: LLM access through go-openai or langchaingo
//   - rag/store: FalkorDB graph access
//   - rag/graphqa: question to Cypher to answer
//   - rag/splitter: coarse, structural and hierarchical splitters
//   - rag/loader: text and chapter loaders
//   - store: session history and chunk persistence backends
//   - tool: web search tools
//   - server: the fiber HTTP API
//   - config: environment configuration
//   - log: the package-level logger
//
// Binaries live under cmd/kgqa (the API server) and cmd/chunker (the
// document splitter).
package kgqa
