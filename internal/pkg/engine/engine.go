package engine

import (
	"github.com/tributary-io/tributary/internal/pkg/lakefs"
)

// Engine is the relational-processing capability the pipeline runs
// against: read a location into a Relation, reshape it, write it back.
// The pipeline depends only on this interface, so the backend can be
// substituted without touching the transforms.
type Engine interface {
	ReadJSON(pathGlob string) (*Relation, error)
	ReadParquet(location string, schema Schema) (*Relation, error)
	Write(rel *Relation, location string, mode WriteMode, partitionBy ...string) error
}

// WriteMode selects what happens when the destination already holds data.
type WriteMode int

const (
	// Overwrite fully replaces any existing content at the destination.
	Overwrite WriteMode = iota
	// ErrorIfExists refuses to write over a non-empty destination.
	ErrorIfExists
)

// LakeEngine executes relational operations in-process and persists
// relations as directory-partitioned Parquet on a lakefs.FileSystem.
type LakeEngine struct {
	fs             lakefs.FileSystem
	maxConcurrency int
}

// Option allows configuration of a LakeEngine.
type Option func(*LakeEngine)

// WithMaxConcurrency bounds the number of partition files written in
// parallel.
func WithMaxConcurrency(n int) Option {
	return func(e *LakeEngine) {
		if n > 0 {
			e.maxConcurrency = n
		}
	}
}

// New creates an engine over the given filesystem.
func New(fs lakefs.FileSystem, options ...Option) *LakeEngine {
	e := &LakeEngine{
		fs:             fs,
		maxConcurrency: 8,
	}
	for _, f := range options {
		f(e)
	}
	return e
}
