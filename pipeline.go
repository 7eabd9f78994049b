package tributary

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	pb "gopkg.in/cheggaaa/pb.v1"

	"github.com/tributary-io/tributary/internal/pkg/engine"
)

// relationCount is the number of relations a full run writes.
const relationCount = 5

// Pipeline runs the two transform stages against an engine handle.
type Pipeline struct {
	engine engine.Engine
	config *config

	// ShowProgress draws a progress bar over relation writes.
	ShowProgress bool

	bar *pb.ProgressBar
}

// NewPipeline creates a pipeline bound to an engine and configuration.
func NewPipeline(eng engine.Engine, c *config) *Pipeline {
	return &Pipeline{
		engine: eng,
		config: c,
	}
}

// Run executes the catalog stage to completion, then the event stage.
// The event stage re-reads catalog output from durable storage, so the
// ordering is a hard data dependency, not a convenience. There is no
// retry and no partial re-run: a failed run is re-triggered from scratch.
func (p *Pipeline) Run() error {
	p.bar = pb.New(relationCount).Prefix("Relations")
	p.bar.NotPrint = !p.ShowProgress
	p.bar.Start()
	defer p.bar.Finish()

	if err := p.processCatalog(); err != nil {
		return fmt.Errorf("catalog stage: %w", err)
	}
	if err := p.processEvents(); err != nil {
		return fmt.Errorf("event stage: %w", err)
	}

	log.Info("Run complete")
	return nil
}

func (p *Pipeline) writeRelation(rel *engine.Relation, name string, partitionBy ...string) error {
	if err := p.engine.Write(rel, p.outputPath(name), engine.Overwrite, partitionBy...); err != nil {
		return err
	}
	p.bar.Increment()
	return nil
}

func (p *Pipeline) outputPath(relation string) string {
	return joinLocation(p.config.OutputLocation, relation)
}

// joinLocation joins location segments with "/" so the result stays
// valid for both local paths and s3 URIs.
func joinLocation(base string, elem ...string) string {
	parts := append([]string{strings.TrimSuffix(base, "/")}, elem...)
	return strings.Join(parts, "/")
}
