package sms

import "sort"

// Entry pairs an extractor with its evaluation priority; lower runs first.
type Entry struct {
	Priority  int
	Extractor Extractor
}

// Registry evaluates extractors in priority order and stops at the first one that
// both claims the message and extracts a result.
type Registry struct {
	entries []Entry
}

func NewRegistry(entries ...Entry) *Registry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return &Registry{entries: sorted}
}

// Extract returns the first successful extraction, or false if nothing matched.
func (r *Registry) Extract(sender, body string) (ParseResult, bool) {
	for _, e := range r.entries {
		if !e.Extractor.Matches(sender, body) {
			continue
		}
		if res, ok := e.Extractor.Extract(body); ok {
			return res, true
		}
	}
	return ParseResult{}, false
}

// Names lists extractor names in evaluation order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Extractor.Name()
	}
	return names
}
