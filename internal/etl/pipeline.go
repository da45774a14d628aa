package etl

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google-marketing-solutions/ga-mp-uploader/internal/payload"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/logger"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"
)

// Destination is a Measurement Protocol stream payloads are staged for.
type Destination interface {
	Deliverer
	URL() string
	IsAppStream() bool
}

// StagePipeline reads the input table, transforms it and stages the payloads.
type StagePipeline struct {
	Reader      TableReader
	Transformer *Transformer
	Destination Destination
	Staging     Staging
	EventName   string
	DryRun      bool
}

// Run executes the stage step and returns the generated payloads.
func (p *StagePipeline) Run(ctx context.Context) ([]*payload.Payload, error) {
	logger.Infof("Starting stage run. Stream: %s, DryRun: %v", p.Destination.URL(), p.DryRun)
	startTime := time.Now()

	table, err := p.Reader.Read(ctx)
	if err != nil {
		logger.Errorf("Reading input failed: %v", err)
		return nil, err
	}

	payloads := p.Transformer.Transform(table, p.EventName)
	if p.Destination.IsAppStream() {
		for _, pl := range payloads {
			pl.ConvertToAppPayload()
		}
	}
	logger.Infof("Transformed %d rows into %d payloads in %v", table.Len(), len(payloads), time.Since(startTime))

	if p.DryRun {
		for i, pl := range payloads {
			body, err := pl.ToJSON(true)
			if err != nil {
				return nil, fmt.Errorf("payload %d: %w", i, err)
			}
			logger.Infof("[DRY RUN] Payload %d:\n%s", i, body)
		}
		return payloads, nil
	}

	if err := p.Staging.Restart(ctx, p.Destination.URL()); err != nil {
		return nil, err
	}
	if err := p.Staging.Append(ctx, payloads); err != nil {
		return nil, err
	}
	logger.Info("Stage run finished successfully.")
	return payloads, nil
}

// ValidatePipeline checks every staged payload against the validation
// endpoint and records the outcome per payload.
type ValidatePipeline struct {
	Destination Destination
	Staging     Staging
}

func (p *ValidatePipeline) Run(ctx context.Context) error {
	records, err := p.Staging.Records(ctx)
	if err != nil {
		return err
	}
	warnOnStreamMismatch(ctx, p.Staging, p.Destination)

	statuses := make([]string, len(records))
	valid := 0
	for i, rec := range records {
		pl, err := payload.FromJSON([]byte(rec.Payload))
		if err != nil {
			statuses[i] = errorResult(fmt.Sprintf("Could not parse staged payload: %v", err)).Status()
			continue
		}
		resp, err := p.Destination.Validate(ctx, pl)
		if err != nil {
			statuses[i] = errorResult(fmt.Sprintf("Could not validate payload (%v)", err)).Status()
			continue
		}
		result := ValidationResultFromResponse(resp)
		if result.IsValid() {
			valid++
		}
		statuses[i] = result.Status()
	}
	logger.Infof("Validated %d payloads, %d valid.", len(records), valid)
	return p.Staging.SetValidation(ctx, statuses)
}

// SendPipeline sends the staged payloads whose validation status allows it.
// Failures are recorded per payload and never stop the batch.
type SendPipeline struct {
	Destination Destination
	Staging     Staging
}

func (p *SendPipeline) Run(ctx context.Context) error {
	records, err := p.Staging.Records(ctx)
	if err != nil {
		return err
	}
	warnOnStreamMismatch(ctx, p.Staging, p.Destination)

	statuses := make([]string, len(records))
	sent := 0
	for i, rec := range records {
		statuses[i] = p.send(ctx, rec.Payload, rec.Validation)
		if statuses[i] == models.StatusSent {
			sent++
		}
	}
	logger.Infof("Sent %d of %d staged payloads.", sent, len(records))
	return p.Staging.SetStatus(ctx, statuses)
}

func (p *SendPipeline) send(ctx context.Context, body, validation string) string {
	if !sendable(validation) {
		return models.StatusUnsent
	}
	pl, err := payload.FromJSON([]byte(body))
	if err != nil {
		return fmt.Sprintf("ERROR: could not parse staged payload: %v", err)
	}
	resp, err := p.Destination.Send(ctx, pl)
	if err != nil {
		return fmt.Sprintf("ERROR: %v", err)
	}
	if resp.Code == http.StatusNoContent {
		return models.StatusSent
	}
	return fmt.Sprintf("HTTP %d ERROR: %s", resp.Code, resp.Text)
}

func warnOnStreamMismatch(ctx context.Context, s Staging, d Destination) {
	staged, err := s.StreamURL(ctx)
	if err != nil {
		logger.Warnf("Could not read staged stream: %v", err)
		return
	}
	if staged != d.URL() {
		logger.Warnf("Payloads were staged for a different stream than the configured one")
	}
}
