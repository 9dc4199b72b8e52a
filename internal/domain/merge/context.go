package merge

import "strings"

// Context maps token names to display strings for one render call
type Context map[string]string

// NewContext returns an empty context
func NewContext() Context {
	return make(Context)
}

// Set stores value under name, replacing any earlier value
func (c Context) Set(name, value string) Context {
	c[name] = value
	return c
}

// SetOptional stores *value, or the empty string when value is nil. The token is still
// known to the context, so its placeholder renders blank instead of being reported.
func (c Context) SetOptional(name string, value *string) Context {
	if value == nil {
		c[name] = ""
		return c
	}
	c[name] = *value
	return c
}

// SetList flattens values with JoinValues and stores the result under name
func (c Context) SetList(name string, values []string) Context {
	c[name] = JoinValues(values)
	return c
}

// With returns a new context holding c's entries overlaid with overrides.
// Overrides win when both define the same token; neither input is modified.
func (c Context) With(overrides map[string]string) Context {
	merged := make(Context, len(c)+len(overrides))
	for k, v := range c {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// JoinValues flattens a multi-valued field into one display string: entries keep their
// order, blanks and repeats are dropped, and the rest are joined with ", ".
func JoinValues(values []string) string {
	kept := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		kept = append(kept, v)
	}
	return strings.Join(kept, ", ")
}
