package orders

import "sync"

// ViewState is the dashboard's search, sort and page selection.
type ViewState struct {
	mutex     sync.RWMutex
	search    string
	page      int
	field     SortField
	direction SortDirection
	pageSize  int
}

func NewViewState(pageSize int) *ViewState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ViewState{
		page:      1,
		field:     SortByID,
		direction: Ascending,
		pageSize:  pageSize,
	}
}

// SetSearch changes the term. The current page is kept, so a narrower search
// can leave the view on an empty page.
func (v *ViewState) SetSearch(term string) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.search = term
}

func (v *ViewState) SetPage(page int) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if page < 1 {
		page = 1
	}
	v.page = page
}

// ToggleSort flips the direction when field is already selected, otherwise
// selects field ascending.
func (v *ViewState) ToggleSort(field SortField) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if field == v.field {
		if v.direction == Ascending {
			v.direction = Descending
		} else {
			v.direction = Ascending
		}
		return
	}
	v.field = field
	v.direction = Ascending
}

func (v *ViewState) Query() Query {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return Query{
		SearchTerm:    v.search,
		SortField:     v.field,
		SortDirection: v.direction,
		Page:          v.page,
		PageSize:      v.pageSize,
	}
}
