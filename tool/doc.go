// Package tool provides the web search tools used by the agent workflow.
//
// Every tool satisfies langchaingo's tools.Tool interface, so it can be handed
// to the agent directly or to any langchaingo agent:
//
//	search := tool.NewDuckDuckGoSearch(tool.WithDuckDuckGoMaxResults(5))
//	text, err := search.Call(ctx, "鄱阳湖 地方志")
//
// Brave search needs an API key, either passed to NewBraveSearch or taken from
// the BRAVE_API_KEY environment variable.
package tool
