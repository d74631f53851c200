package manifest

import (
	"context"

	"github.com/handiism/manifest-downloader/internal/model"
	"golang.org/x/sync/errgroup"
)

// LoadAll parses the manifests at paths with up to workers files in
// flight and returns all entries, ordered by path and then by position
// within each manifest.
func LoadAll(ctx context.Context, p *Parser, paths []string, workers int) ([]*model.Entry, error) {
	results := make([][]*model.Entry, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries, err := p.ParseFile(path)
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []*model.Entry
	for _, entries := range results {
		all = append(all, entries...)
	}
	return all, nil
}
