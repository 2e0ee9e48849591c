package blogcontent

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/eringen/blogcontent/content"
	"github.com/eringen/blogcontent/post"
)

// Sync loads the content directory into the store, one transaction per
// collection, then regenerates cover images and drops every cache. Documents
// with malformed frontmatter are still stored; their problems are reported
// as warnings on the returned run. The run is recorded even when it fails.
func (a *App) Sync(ctx context.Context) (SyncRun, error) {
	run := SyncRun{StartedAt: time.Now(), Collections: make(map[string]int)}
	err := a.sync(ctx, &run)
	run.Duration = time.Since(run.StartedAt)
	if err != nil {
		run.Err = err.Error()
	}
	if rerr := a.Store.RecordSync(ctx, run); rerr != nil && err == nil {
		err = fmt.Errorf("blogcontent: record sync: %w", rerr)
	}
	a.metrics.Sync(err)
	for _, w := range run.Warnings {
		a.Echo.Logger.Warnf("sync: %s", w)
	}
	return run, err
}

func (a *App) sync(ctx context.Context, run *SyncRun) error {
	res, err := content.Load(os.DirFS(a.Config.ContentDir), a.Config.Collections)
	if err != nil {
		return fmt.Errorf("blogcontent: load content: %w", err)
	}
	for _, w := range res.Warnings {
		run.Warnings = append(run.Warnings, w.String())
	}
	if err := a.storeCollections(ctx, res, run); err != nil {
		return err
	}
	for _, rec := range res.Records[BlogCollection] {
		for _, p := range post.Validate(rec) {
			run.Warnings = append(run.Warnings, fmt.Sprintf("%v: %s", rec["id"], p))
		}
	}

	run.Warnings = append(run.Warnings, a.prepareCovers(post.NormalizeAll(res.Records[BlogCollection]))...)
	return nil
}

// storeCollections replaces every configured collection in the store. The
// caches are dropped even when a write fails, since the collections written
// before it are already live.
func (a *App) storeCollections(ctx context.Context, res content.LoadResult, run *SyncRun) error {
	defer func() {
		a.Cache.Invalidate()
		a.responses.Purge(ctx)
	}()
	for _, coll := range a.Config.Collections {
		recs := res.Records[coll.Name]
		if err := a.Store.ReplaceCollection(ctx, coll.Name, recs); err != nil {
			return fmt.Errorf("blogcontent: store %s: %w", coll.Name, err)
		}
		run.Collections[coll.Name] = len(recs)
		run.Documents += len(recs)
		a.metrics.Documents(coll.Name, len(recs))
	}
	return nil
}

// problemsByID re-validates the stored blog documents for the dashboard.
func (a *App) problemsByID(ctx context.Context) (map[string][]string, error) {
	recs, err := a.Cache.Records(ctx, BlogCollection)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string)
	for _, rec := range recs {
		id, _ := rec["id"].(string)
		for _, p := range post.Validate(rec) {
			out[id] = append(out[id], p.String())
		}
	}
	return out, nil
}
