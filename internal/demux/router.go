package demux

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shenwei356/xopen"

	"github.com/maddygriz/demultiplex/internal/fastq"
)

// Reject bucket names.
const (
	RejectBucketR1 = "rejects_R1"
	RejectBucketR2 = "rejects_R2"
)

// Router appends classified read groups to their per-barcode bucket files.
// Buckets are opened lazily in append mode and cached for the rest of the
// run, so record order within a bucket follows input order. With gzip output
// enabled, appends form concatenated gzip members, which decompress as one
// stream.
type Router struct {
	dir     string
	gzipOut bool
	writers map[string]*xopen.Writer
	buf     []byte
}

// NewRouter creates a Router writing bucket files under dir.
func NewRouter(dir string, gzipOut bool) *Router {
	return &Router{
		dir:     dir,
		gzipOut: gzipOut,
		writers: make(map[string]*xopen.Writer),
	}
}

// BucketPath returns the file path for a bucket name.
func (rt *Router) BucketPath(bucket string) string {
	name := bucket + ".fastq"
	if rt.gzipOut {
		name += ".gz"
	}
	return filepath.Join(rt.dir, name)
}

// Accept appends the primary records verbatim to the matched barcode's
// bucket pair.
func (rt *Router) Accept(g *ReadGroup, barcode string) error {
	if err := rt.append(barcode+"_R1", g.Read1); err != nil {
		return err
	}
	return rt.append(barcode+"_R2", g.Read2)
}

// Reject tags both primary records' separator lines with the failure reasons,
// independently, and appends them to the shared reject pair.
func (rt *Router) Reject(g *ReadGroup, r Reason) error {
	for _, tag := range r.Tags() {
		g.Read1.AnnotatePlus(tag)
		g.Read2.AnnotatePlus(tag)
	}
	if err := rt.append(RejectBucketR1, g.Read1); err != nil {
		return err
	}
	return rt.append(RejectBucketR2, g.Read2)
}

func (rt *Router) append(bucket string, rec *fastq.Record) error {
	w, err := rt.writer(bucket)
	if err != nil {
		return err
	}
	rt.buf = rec.AppendTo(rt.buf[:0])
	if _, err := w.Write(rt.buf); err != nil {
		return fmt.Errorf("writing %s: %w", rt.BucketPath(bucket), err)
	}
	return nil
}

func (rt *Router) writer(bucket string) (*xopen.Writer, error) {
	if w, ok := rt.writers[bucket]; ok {
		return w, nil
	}
	path := rt.BucketPath(bucket)
	w, err := xopen.WopenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	rt.writers[bucket] = w
	return w, nil
}

// Close flushes and closes every open bucket, in deterministic order. The
// first error is returned, but all writers are closed regardless.
func (rt *Router) Close() error {
	buckets := make([]string, 0, len(rt.writers))
	for bucket := range rt.writers {
		buckets = append(buckets, bucket)
	}
	sort.Strings(buckets)

	var firstErr error
	for _, bucket := range buckets {
		if err := rt.writers[bucket].Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing %s: %w", rt.BucketPath(bucket), err)
		}
	}
	rt.writers = make(map[string]*xopen.Writer)
	return firstErr
}
