package etl

import (
	"context"

	"github.com/google-marketing-solutions/ga-mp-uploader/internal/payload"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/source"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"
)

// TableReader produces the tabular input of a staging run.
type TableReader interface {
	Read(ctx context.Context) (*source.Table, error)
}

// Staging is the durable list of generated payloads and their statuses.
type Staging interface {
	// Restart clears the list and records the stream it is staged for.
	Restart(ctx context.Context, streamURL string) error
	StreamURL(ctx context.Context) (string, error)
	Append(ctx context.Context, payloads []*payload.Payload) error
	Records(ctx context.Context) ([]models.StagedRecord, error)
	// SetValidation and SetStatus take one status per record, in order.
	SetValidation(ctx context.Context, statuses []string) error
	SetStatus(ctx context.Context, statuses []string) error
}

// Deliverer posts payloads to the Measurement Protocol.
type Deliverer interface {
	Send(ctx context.Context, p *payload.Payload) (Response, error)
	Validate(ctx context.Context, p *payload.Payload) (Response, error)
}

// Response is the status code and body returned for a request.
type Response struct {
	Code int
	Text string
}
