package post

// Paginate returns at most limit posts starting at offset skip. A
// non-positive limit or a skip past the end yields an empty slice. Negative
// skip is treated as zero.
func Paginate(posts []Post, limit, skip int) []Post {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || skip >= len(posts) {
		return []Post{}
	}
	end := skip + limit
	if end > len(posts) || end < skip {
		end = len(posts)
	}
	out := make([]Post, end-skip)
	copy(out, posts[skip:end])
	return out
}

// PageInfo describes one page of a paginated listing. Page is 1-based.
type PageInfo struct {
	Page    int
	PerPage int
	Pages   int
	Total   int
}

// PageOf clamps page into range for total items at perPage per page.
func PageOf(total, perPage, page int) PageInfo {
	if perPage <= 0 {
		perPage = 1
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	return PageInfo{Page: page, PerPage: perPage, Pages: pages, Total: total}
}

// Offset is the zero-based index of the first item on the page.
func (pi PageInfo) Offset() int {
	return (pi.Page - 1) * pi.PerPage
}

// HasPrev reports whether a previous page exists.
func (pi PageInfo) HasPrev() bool { return pi.Page > 1 }

// HasNext reports whether a following page exists.
func (pi PageInfo) HasNext() bool { return pi.Page < pi.Pages }
