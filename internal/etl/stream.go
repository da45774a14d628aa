package etl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google-marketing-solutions/ga-mp-uploader/internal/payload"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/logger"
)

const (
	CollectURL      = "https://www.google-analytics.com/mp/collect"
	DebugCollectURL = "https://www.google-analytics.com/debug/mp/collect"
)

// Stream is a Measurement Protocol destination: a web stream (measurement
// ids starting with "G-") or an app stream (Firebase app id).
type Stream struct {
	Client *http.Client

	web       bool
	streamURL string
	debugURL  string
}

func NewStream(measurementID, apiSecret string) *Stream {
	web := strings.HasPrefix(measurementID, "G-")
	idParam := "firebase_app_id"
	if web {
		idParam = "measurement_id"
	}
	query := idParam + "=" + url.QueryEscape(measurementID) + "&api_secret=" + url.QueryEscape(apiSecret)
	return &Stream{
		Client:    &http.Client{Timeout: 30 * time.Second},
		web:       web,
		streamURL: CollectURL + "?" + query,
		debugURL:  DebugCollectURL + "?" + query,
	}
}

func (s *Stream) IsWebStream() bool { return s.web }
func (s *Stream) IsAppStream() bool { return !s.web }

// URL returns the collect URL of the stream.
func (s *Stream) URL() string { return s.streamURL }

// DebugURL returns the validation URL of the stream.
func (s *Stream) DebugURL() string { return s.debugURL }

// Send posts p to the collect endpoint.
func (s *Stream) Send(ctx context.Context, p *payload.Payload) (Response, error) {
	return s.post(ctx, s.streamURL, p)
}

// Validate posts p to the validation endpoint.
func (s *Stream) Validate(ctx context.Context, p *payload.Payload) (Response, error) {
	return s.post(ctx, s.debugURL, p)
}

func (s *Stream) post(ctx context.Context, target string, p *payload.Payload) (Response, error) {
	body, err := p.ToJSON(false)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	logger.Debugf("POST %s%s (%d bytes)", req.URL.Host, req.URL.Path, len(body))

	resp, err := s.Client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("request to %s failed: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response: %w", err)
	}
	return Response{Code: resp.StatusCode, Text: string(text)}, nil
}
