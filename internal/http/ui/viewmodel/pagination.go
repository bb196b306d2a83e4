package viewmodel

// Pagination contains pagination metadata for list views.
type Pagination struct {
	Page       int
	PageSize   int
	HasPrev    bool
	HasNext    bool
	StartIndex int
	EndIndex   int
	TotalCount int
	PrevURL    string
	NextURL    string
}

// Empty reports whether the current page holds no items.
func (p Pagination) Empty() bool { return p.TotalCount == 0 || p.StartIndex == 0 }
