package editor

// Config holds the screen-space affordances of the editor. Distances are in
// screen pixels and converted to image units through the current zoom, so a
// handle is equally easy to hit at every magnification.
type Config struct {
	HoverThreshold float64 `json:"hoverThreshold"` // edge highlight distance
	VertexRadius   float64 `json:"vertexRadius"`   // vertex hit radius
	HistoryLimit   int     `json:"historyLimit"`   // undo depth
}

// DefaultConfig returns the stock editor settings.
func DefaultConfig() Config {
	return Config{
		HoverThreshold: 8,
		VertexRadius:   10,
		HistoryLimit:   100,
	}
}

// normalized replaces non-positive fields with their defaults.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.HoverThreshold <= 0 {
		c.HoverThreshold = def.HoverThreshold
	}
	if c.VertexRadius <= 0 {
		c.VertexRadius = def.VertexRadius
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = def.HistoryLimit
	}
	return c
}
