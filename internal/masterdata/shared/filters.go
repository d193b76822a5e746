package shared

// ListFilters captures common listing parameters for masterdata screens.
type ListFilters struct {
	Page   int
	Limit  int
	Search string
}

// Normalize applies defaults and bounds.
func (f *ListFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
}

// Offset returns the SQL offset for the current page.
func (f ListFilters) Offset() int {
	return (f.Page - 1) * f.Limit
}
