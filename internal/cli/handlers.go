package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/google-marketing-solutions/ga-mp-uploader/internal/api"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/config"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/etl"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/database"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/logger"
)

// session holds the connections a command needs and how to release them.
type session struct {
	cfg     *config.Config
	stream  *etl.Stream
	staging etl.Staging
	closers []func()
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openSession loads the configuration and connects to MongoDB staging. When
// MongoDB is not configured, dry runs fall back to in-memory staging.
func openSession(ctx context.Context, dryRun bool) (*session, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	s := &session{
		cfg:    cfg,
		stream: etl.NewStream(cfg.MeasurementID, cfg.APISecret),
	}

	switch {
	case cfg.MongoConnString != "":
		client, err := database.ConnectMongo(ctx, cfg.MongoConnString)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { database.Disconnect(client) })
		s.staging = etl.NewMongoStaging(client, cfg.MongoDatabase, cfg.StagingCollection)
	case dryRun:
		s.staging = &etl.MemoryStaging{}
	default:
		return nil, errors.New("MONGO_CONNECTION_STRING environment variable not set")
	}
	return s, nil
}

func runStage(ctx context.Context, opts *Options) error {
	s, err := openSession(ctx, opts.DryRun)
	if err != nil {
		return err
	}
	defer s.Close()

	columnMapping, err := config.LoadMapping(opts.MappingFile)
	if err != nil {
		return err
	}
	registry, err := config.LoadSchema(opts.SchemaFile)
	if err != nil {
		return err
	}

	var reader etl.TableReader
	if opts.InputFile != "" {
		reader = &etl.CSVTableReader{Path: opts.InputFile}
	} else {
		if s.cfg.SQLConnString == "" {
			return errors.New("SQL_CONNECTION_STRING environment variable not set")
		}
		db, err := database.ConnectSQL(ctx, s.cfg.SQLConnString)
		if err != nil {
			return err
		}
		defer db.Close()
		reader = &etl.SQLTableReader{DB: db, Query: opts.SQLQuery}
	}

	eventName := opts.EventName
	if eventName == "" {
		eventName = s.cfg.EventName
	}

	pipeline := &etl.StagePipeline{
		Reader:      reader,
		Transformer: etl.NewTransformer(columnMapping, registry),
		Destination: s.stream,
		Staging:     s.staging,
		EventName:   eventName,
		DryRun:      opts.DryRun,
	}
	payloads, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("stage failed: %w", err)
	}
	fmt.Printf("Staged %d payloads.\n", len(payloads))
	return nil
}

func runValidate(ctx context.Context, opts *Options) error {
	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	pipeline := &etl.ValidatePipeline{Destination: s.stream, Staging: s.staging}
	if err := pipeline.Run(ctx); err != nil {
		return fmt.Errorf("validate failed: %w", err)
	}
	return nil
}

func runSend(ctx context.Context, opts *Options) error {
	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	pipeline := &etl.SendPipeline{Destination: s.stream, Staging: s.staging}
	if err := pipeline.Run(ctx); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	return nil
}

func runServe(ctx context.Context, opts *Options) error {
	var staging etl.Staging
	if s, err := openSession(ctx, false); err != nil {
		logger.Warnf("Staging unavailable, serving transform only: %v", err)
	} else {
		defer s.Close()
		staging = s.staging
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	h := api.NewHandler(staging)
	h.RegisterRoutes(e)

	go func() {
		<-ctx.Done()
		e.Close()
	}()

	logger.Infof("Serving on %s", opts.Addr)
	if err := e.Start(opts.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
