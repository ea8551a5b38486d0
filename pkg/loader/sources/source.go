// Package sources provides input Source implementations: local files,
// glob patterns, and S3 objects. The pipeline assigns one worker per
// source; the declared source order defines the output merge order.
package sources

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"
)

// Source is one input the pipeline can open. Open must resolve to a
// reader or an error within the caller's context deadline; it never
// hangs the pipeline.
type Source interface {
	// Name identifies the source in provenance, reports, and failures.
	Name() string

	// Open returns the content reader.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Resolve expands a list of path arguments into sources, preserving
// argument order. Glob patterns expand in-place (sorted), s3:// URIs
// become S3 sources, everything else is a local file.
func Resolve(ctx context.Context, args []string, opts ResolveOptions) ([]Source, error) {
	var out []Source
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "s3://"):
			src, err := NewS3Source(ctx, arg, opts.S3)
			if err != nil {
				return nil, err
			}
			out = append(out, src)
		case strings.ContainsAny(arg, "*?["):
			expanded, err := Glob(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		default:
			out = append(out, NewFileSource(arg, opts.OpenTimeout))
		}
	}
	return out, nil
}

// ResolveOptions configures source resolution.
type ResolveOptions struct {
	// OpenTimeout bounds each file open. Zero means no bound beyond
	// the caller's context.
	OpenTimeout time.Duration

	S3 S3Options
}

// sortSources orders sources by name for deterministic glob expansion.
func sortSources(srcs []Source) {
	sort.Slice(srcs, func(i, j int) bool { return srcs[i].Name() < srcs[j].Name() })
}
