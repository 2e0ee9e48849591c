package post

// Query is one listing request: filters, ordering and the page to show.
// Zero values mean "no constraint".
type Query struct {
	Search   string
	Category string
	Tag      string
	Sort     SortKey
	Page     int
	PerPage  int
}

// Listing is the result of running a Query over a snapshot.
type Listing struct {
	Query      Query
	Posts      []Post
	Page       PageInfo
	Categories []string
	Tags       []string
}

// Run applies q to posts: filters, then sort, then the requested page.
// Categories and tags are aggregated over the unfiltered input so the UI can
// offer every option.
func (q Query) Run(posts []Post) Listing {
	var preds []Predicate
	if q.Search != "" {
		preds = append(preds, Search(q.Search))
	}
	if q.Category != "" {
		preds = append(preds, InCategory(q.Category))
	}
	if q.Tag != "" {
		preds = append(preds, Tagged(q.Tag))
	}
	if q.Sort == "" {
		q.Sort = DateDesc
	}
	matched := Sort(Filter(posts, preds...), q.Sort)

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = len(matched)
	}
	info := PageOf(len(matched), perPage, q.Page)
	q.Page = info.Page

	return Listing{
		Query:      q,
		Posts:      Paginate(matched, info.PerPage, info.Offset()),
		Page:       info,
		Categories: UniqueCategories(posts),
		Tags:       UniqueTags(posts),
	}
}
