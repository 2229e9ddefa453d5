package catalog

import (
	"context"
	"strings"

	"github.com/fjod/go_crafts/internal/logger"
	"github.com/sirupsen/logrus"
)

// BlobResolver turns an opaque storage reference into a public URL.
type BlobResolver interface {
	ResolveURL(ctx context.Context, ref string) (url string, found bool, err error)
}

func isAbsoluteURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// imageResolver resolves storage references in batches. A failing blob service degrades to
// unresolved references rather than failing the read.
type imageResolver struct {
	enricher *Enricher[string, string]
}

func newImageResolver(blobs BlobResolver, limit int, log logrus.FieldLogger) *imageResolver {
	fetch := func(ctx context.Context, ref string) (string, bool, error) {
		if blobs == nil {
			return "", false, nil
		}
		url, ok, err := blobs.ResolveURL(ctx, ref)
		if err != nil {
			logger.WithContext(ctx, log).WithError(err).WithField("ref", ref).Warn("image reference not resolved")
			return "", false, nil
		}
		return url, ok && url != "", nil
	}
	return &imageResolver{enricher: NewEnricher(fetch, limit)}
}

// resolve looks up every distinct storage reference among refs. Absolute URLs are not fetched.
func (r *imageResolver) resolve(ctx context.Context, refs []string) (imageURLs, error) {
	pending := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref != "" && !isAbsoluteURL(ref) {
			pending = append(pending, ref)
		}
	}
	urls, err := r.enricher.Lookup(ctx, pending)
	if err != nil {
		return nil, err
	}
	return imageURLs(urls), nil
}

type imageURLs map[string]string

// url returns the public URL of a single reference.
func (u imageURLs) url(ref string) string {
	if ref == "" {
		return ""
	}
	if isAbsoluteURL(ref) {
		return ref
	}
	return u[ref]
}

// list maps an ordered image list to URLs, dropping references that did not resolve.
func (u imageURLs) list(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if url := u.url(ref); url != "" {
			out = append(out, url)
		}
	}
	return out
}
