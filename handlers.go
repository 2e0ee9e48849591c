package blogcontent

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/eringen/blogcontent/content"
	"github.com/eringen/blogcontent/post"
)

const relatedLimit = 3

func handleHome(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/blog/")
}

// listingQuery reads the index filters from the request. Unknown sort keys
// fall back to newest first; bad page numbers to the first page.
func (a *App) listingQuery(c echo.Context) post.Query {
	return post.Query{
		Search:   c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Tag:      c.QueryParam("tag"),
		Sort:     post.ParseSortKey(c.QueryParam("sort"), post.DateDesc),
		Page:     cast.ToInt(c.QueryParam("page")),
		PerPage:  a.Config.PostsPerPage,
	}
}

func (a *App) handleIndex(c echo.Context) error {
	a.metrics.Query("index")
	posts, err := a.Cache.Published(c.Request().Context(), BlogCollection)
	if err != nil {
		return err
	}
	site := a.Config.Info()
	page := IndexPage{
		Site:    site,
		Listing: a.listingQuery(c).Run(posts),
		Meta: PageMeta{
			Title:       "Blog - Latest Articles",
			Description: site.Description,
			URL:         BuildURL(site.URL, "blog"),
			OGType:      "website",
			Image:       AbsURL(site.URL, "og/"+defaultCard),
			JSONLD:      WebsiteJsonLD(site),
		},
	}
	if c.QueryParam("partial") == "list" || c.Request().Header.Get("HX-Request") == "true" {
		return a.render(c, "blog_list", a.Views.BlogList(page))
	}
	return a.render(c, "blog_index", a.Views.BlogIndex(page))
}

// lookupPost finds slug in collection. Drafts are only visible to an admin
// session; to everyone else they do not exist.
func (a *App) lookupPost(c echo.Context, collection string) (post.Post, []post.Post, error) {
	posts, err := a.Cache.Posts(c.Request().Context(), collection)
	if err != nil {
		return post.Post{}, nil, err
	}
	p, err := post.FindBySlug(posts, c.Param("slug"))
	if err != nil {
		return post.Post{}, nil, err
	}
	if p.Draft && !IsAdmin(c) {
		return post.Post{}, nil, ErrNotFound
	}
	return p, post.Filter(posts, post.Published), nil
}

func (a *App) handlePost(c echo.Context) error {
	a.metrics.Query("post")
	p, published, err := a.lookupPost(c, BlogCollection)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	if err != nil {
		return err
	}

	site := a.Config.Info()
	image := a.coverURL(p)
	page := PostPage{
		Site:        site,
		Post:        p,
		ReadingTime: post.ReadingTime(p),
		Related:     post.Paginate(post.Related(p, published), relatedLimit, 0),
		Preview:     p.Draft,
		Meta: PageMeta{
			Title:       p.Title,
			Description: p.Description,
			URL:         PostURL(site.URL, p),
			OGType:      "article",
			Image:       image,
			JSONLD:      BlogPostingJsonLD(p, site, image),
		},
	}
	// Previous is the older post, next the newer one.
	page.Prev, page.Next, _ = post.Neighbors(post.Sort(published, post.DateAsc), p.Slug)
	if page.Preview {
		c.Response().Header().Set("Cache-Control", "no-store")
	}
	return a.render(c, "post", a.Views.Post(page))
}

func (a *App) handlePage(c echo.Context) error {
	a.metrics.Query("page")
	p, _, err := a.lookupPost(c, PageCollection)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	if err != nil {
		return err
	}
	site := a.Config.Info()
	page := PostPage{
		Site:    site,
		Post:    p,
		Preview: p.Draft,
		Meta: PageMeta{
			Title:       p.Title,
			Description: p.Description,
			URL:         BuildURL(site.URL, "pages", p.Slug),
			OGType:      "website",
			Image:       AbsURL(site.URL, "og/"+defaultCard),
		},
	}
	if page.Preview {
		c.Response().Header().Set("Cache-Control", "no-store")
	}
	return a.render(c, "page", a.Views.Page(page))
}

type apiError struct {
	Error string `json:"error"`
}

// handleContentQuery evaluates the _params DSL against a collection and
// returns the matching documents as normalized posts.
func (a *App) handleContentQuery(c echo.Context) error {
	a.metrics.Query("content_query")
	ctx := c.Request().Context()

	params, err := content.ParseParams(c.QueryParam("_params"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
	}
	collection := c.QueryParam("collection")
	if collection == "" {
		collection = BlogCollection
	}
	if !a.knownCollection(collection) {
		return c.JSON(http.StatusBadRequest, apiError{Error: "unknown collection " + collection})
	}

	key := ResponseKey("content_query", collection, params.Key())
	if body, ok := a.responses.Get(ctx, key); ok {
		return c.JSONBlob(http.StatusOK, body)
	}

	recs, err := a.Cache.Records(ctx, collection)
	if err != nil {
		return err
	}
	posts := post.NormalizeAll(params.Apply(recs))
	for i := range posts {
		posts[i].Path = documentPath(collection, posts[i].Slug)
	}
	body, err := json.Marshal(posts)
	if err != nil {
		return err
	}
	a.responses.Set(ctx, key, body)
	return c.JSONBlob(http.StatusOK, body)
}

// documentPath is the site path a document of collection is served under.
func documentPath(collection, slug string) string {
	if collection == BlogCollection {
		return "/blog/" + slug
	}
	return "/" + collection + "/" + slug
}

func (a *App) knownCollection(name string) bool {
	for _, coll := range a.Config.Collections {
		if coll.Name == name {
			return true
		}
	}
	return false
}

type facets struct {
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}

func (a *App) handleFacets(c echo.Context) error {
	a.metrics.Query("facets")
	posts, err := a.Cache.Published(c.Request().Context(), BlogCollection)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, facets{
		Categories: post.UniqueCategories(posts),
		Tags:       post.UniqueTags(posts),
	})
}

func (a *App) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, "User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: "+AbsURL(a.Config.URL, "sitemap.xml")+"\n")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	site := a.Config.Info()
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(site))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError(site))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
