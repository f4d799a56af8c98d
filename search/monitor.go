package search

import (
	"github.com/hoardhq/hoard/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterVectorSearch(matches []*core.ChunkMatch)
	AfterItemRetrieval(items []*core.ContentItem)
	ItemSkipped(item *core.ContentItem, reason string)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.ChunkMatch)    {}
func (n *noopMonitor) AfterItemRetrieval(_ []*core.ContentItem)  {}
func (n *noopMonitor) ItemSkipped(_ *core.ContentItem, _ string) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)             {}
