package splist

// FieldCount pairs a thread with the number of fields its query requests.
type FieldCount struct {
	ThreadID int `json:"thread_id"`
	Count    int `json:"count"`
}

// Findings accumulates the three categories over one run. Entries keep thread
// encounter order; each thread is classified at most once per run.
type Findings struct {
	LargeQueries     []FieldCount `json:"large_queries"`
	WildcardQueries  []int        `json:"wildcard_queries"`
	UnboundedQueries []int        `json:"unbounded_queries"`
}

// Classification records which categories a single thread landed in.
type Classification struct {
	LargeFieldCount bool
	Wildcard        bool
	Unbounded       bool
}

func (c Classification) Any() bool {
	return c.LargeFieldCount || c.Wildcard || c.Unbounded
}

// Classify evaluates all three heuristics for one descriptor and records the
// thread in every category that applies.
func (f *Findings) Classify(threadID int, d *Descriptor, maxViewFields int) Classification {
	var c Classification

	if d.HasViewFields {
		if d.FieldCount > maxViewFields {
			f.LargeQueries = append(f.LargeQueries, FieldCount{ThreadID: threadID, Count: d.FieldCount})
			c.LargeFieldCount = true
		}
	} else {
		f.WildcardQueries = append(f.WildcardQueries, threadID)
		c.Wildcard = true
	}

	if !d.HasRowLimit {
		f.UnboundedQueries = append(f.UnboundedQueries, threadID)
		c.Unbounded = true
	}

	return c
}

// Empty reports whether no thread landed in any category.
func (f *Findings) Empty() bool {
	return len(f.LargeQueries) == 0 && len(f.WildcardQueries) == 0 && len(f.UnboundedQueries) == 0
}

// FieldCountOf returns the recorded field count of a thread in the
// large-field-count category.
func (f *Findings) FieldCountOf(threadID int) (int, bool) {
	for _, fc := range f.LargeQueries {
		if fc.ThreadID == threadID {
			return fc.Count, true
		}
	}
	return 0, false
}
