package tributary

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
)

var currentDriver *Driver

// runningInLambda infers if the program is running in AWS lambda via inspection of the environment
func runningInLambda() bool {
	expectedEnvVars := []string{"LAMBDA_TASK_ROOT", "AWS_EXECUTION_ENV", "LAMBDA_RUNTIME_DIR"}
	for _, envVar := range expectedEnvVars {
		if os.Getenv(envVar) == "" {
			return false
		}
	}
	return true
}

func startLambda() {
	lambda.Start(handleRequest)
}

// runRequest optionally overrides the configured locations for a single
// Lambda-invoked run.
type runRequest struct {
	CatalogLocation string `json:"catalog_location"`
	EventLocation   string `json:"event_location"`
	OutputLocation  string `json:"output_location"`
}

func handleRequest(ctx context.Context, req runRequest) (string, error) {
	c := *currentDriver.config
	if req.CatalogLocation != "" {
		c.CatalogLocation = req.CatalogLocation
	}
	if req.EventLocation != "" {
		c.EventLocation = req.EventLocation
	}
	if req.OutputLocation != "" {
		c.OutputLocation = req.OutputLocation
	}

	pipeline := NewPipeline(currentDriver.engine, &c)
	if err := pipeline.Run(); err != nil {
		return "", err
	}
	return "ok", nil
}
