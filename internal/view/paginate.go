package view

// PageSizes are the sizes offered by the grid. The first is the default.
var PageSizes = []int{10, 50, 100}

// Page is one window of grid rows.
type Page struct {
	Rows   []GridRow
	Number int
	Size   int
	Total  int
	Pages  int
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.Pages }
func (p Page) Prev() int     { return p.Number - 1 }
func (p Page) Next() int     { return p.Number + 1 }

// First is the 1-based position of the first row on the page, 0 when empty.
func (p Page) First() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Number-1)*p.Size + 1
}

// Last is the 1-based position of the last row on the page.
func (p Page) Last() int {
	return p.First() + len(p.Rows) - 1
}

// NormalizePageSize returns size if offered, otherwise the default.
func NormalizePageSize(size int) int {
	for _, s := range PageSizes {
		if s == size {
			return size
		}
	}
	return PageSizes[0]
}

// Paginate returns page number page (1-based, clamped) of rows.
func Paginate(rows []GridRow, page, size int) Page {
	size = NormalizePageSize(size)
	total := len(rows)
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	return Page{
		Rows:   rows[start:end],
		Number: page,
		Size:   size,
		Total:  total,
		Pages:  pages,
	}
}
