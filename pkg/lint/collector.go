package lint

// Collector accumulates diagnostics during one traversal. Diagnostics are
// kept in the order they were recorded and never deduplicated.
//
// A Collector is not safe for concurrent use; use one per file.
type Collector struct {
	diags []Diagnostic
}

// Record appends d.
func (c *Collector) Record(d Diagnostic) {
	c.diags = append(c.diags, d)
}

// Drain returns every recorded diagnostic and empties the collector.
func (c *Collector) Drain() []Diagnostic {
	out := c.diags
	c.diags = nil
	return out
}

// Len returns the number of diagnostics currently held.
func (c *Collector) Len() int {
	return len(c.diags)
}
