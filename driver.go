package tributary

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/tributary-io/tributary/internal/pkg/engine"
	"github.com/tributary-io/tributary/internal/pkg/lakefs"
)

// Driver controls the execution of an ETL run
type Driver struct {
	config *config
	engine engine.Engine
}

// config configures a Driver's execution of runs
type config struct {
	CatalogLocation string
	EventLocation   string
	OutputLocation  string
	MaxConcurrency  int
	Credentials     lakefs.Credentials
	Verbose         bool
}

func newConfig() *config {
	loadConfig() // Load viper config from settings file(s) and environment
	return &config{
		CatalogLocation: viper.GetString("catalog_location"),
		EventLocation:   viper.GetString("event_location"),
		OutputLocation:  viper.GetString("output_location"),
		MaxConcurrency:  viper.GetInt("max_concurrency"),
		Credentials: lakefs.Credentials{
			AccessKeyID:     viper.GetString("aws.access_key_id"),
			SecretAccessKey: viper.GetString("aws.secret_access_key"),
		},
		Verbose: viper.GetBool("verbose"),
	}
}

func (c *config) locations() []string {
	return []string{c.CatalogLocation, c.EventLocation, c.OutputLocation}
}

// validate surfaces configuration errors before any data is read.
func (c *config) validate() error {
	remote := 0
	for _, location := range c.locations() {
		if strings.HasPrefix(location, "s3://") {
			remote++
		}
	}
	if remote > 0 && remote < len(c.locations()) {
		return fmt.Errorf("catalog, event and output locations must share a storage backend")
	}
	// Credentials are not required here. With none configured the S3
	// filesystem falls back to the SDK's default chain, and resolution
	// failures surface from its Init before any read.
	return nil
}

// Option allows configuration of a Driver
type Option func(*config)

// NewDriver creates a Driver with settings-file configuration overridden
// by the provided options. The storage backend is initialized here, so a
// bad configuration fails before any read is attempted.
func NewDriver(options ...Option) (*Driver, error) {
	c := newConfig()
	for _, f := range options {
		f(c)
	}

	if c.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	fs, err := lakefs.InferFilesystem(c.OutputLocation, c.Credentials)
	if err != nil {
		return nil, fmt.Errorf("storage bootstrap: %w", err)
	}

	log.Debugf("Loaded config: catalog=%s events=%s output=%s concurrency=%d",
		c.CatalogLocation, c.EventLocation, c.OutputLocation, c.MaxConcurrency)

	return &Driver{
		config: c,
		engine: engine.New(fs, engine.WithMaxConcurrency(c.MaxConcurrency)),
	}, nil
}

// WithCatalogLocation sets the base location of raw catalog records
func WithCatalogLocation(location string) Option {
	return func(c *config) {
		c.CatalogLocation = location
	}
}

// WithEventLocation sets the base location of raw event records
func WithEventLocation(location string) Option {
	return func(c *config) {
		c.EventLocation = location
	}
}

// WithOutputLocation sets the base location the derived relations are
// written under
func WithOutputLocation(location string) Option {
	return func(c *config) {
		c.OutputLocation = location
	}
}

// WithMaxConcurrency bounds the engine's parallelism across partition
// files
func WithMaxConcurrency(n int) Option {
	return func(c *config) {
		c.MaxConcurrency = n
	}
}

// WithVerbose enables debug logging
func WithVerbose(verbose bool) Option {
	return func(c *config) {
		c.Verbose = verbose
	}
}

func (d *Driver) run() error {
	if runningInLambda() {
		currentDriver = d
		startLambda()
	}

	pipeline := NewPipeline(d.engine, d.config)
	pipeline.ShowProgress = true
	return pipeline.Run()
}

// Main executes a full run and terminates the process on failure.
func (d *Driver) Main() {
	runID := uuid.NewString()
	log.Infof("Starting run %s", runID)

	start := time.Now()
	if err := d.run(); err != nil {
		log.Fatalf("Run %s failed: %s", runID, err)
	}
	fmt.Printf("Job Execution Time: %s\n", time.Since(start))
}
