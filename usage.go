package psagent

// Usage tracks token consumption.
//
// InputTokens excludes tokens served from the provider's cache; those are
// reported in CacheReadTokens. Providers clamp derived values to zero.
type Usage struct {
	InputTokens     int
	OutputTokens    int
	CacheReadTokens int
}

// Add returns the sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:     u.InputTokens + o.InputTokens,
		OutputTokens:    u.OutputTokens + o.OutputTokens,
		CacheReadTokens: u.CacheReadTokens + o.CacheReadTokens,
	}
}
