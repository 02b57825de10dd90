// Package api exposes the comparison engine over HTTP for callers that
// keep their datasets next to a long-running service.
package api

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/TFMV/tablediff/metrics"
	"github.com/TFMV/tablediff/pkg/core"
	"github.com/TFMV/tablediff/pkg/diff"
	"github.com/TFMV/tablediff/pkg/readers"
	"github.com/TFMV/tablediff/version"
)

// defaultDiffSample bounds how many diffs a compare response carries.
const defaultDiffSample = 100

// ServerOptions configures the API server.
type ServerOptions struct {
	Port    string
	Prefork bool
}

// Server holds the Fiber app instance.
type Server struct {
	app  *fiber.App
	port string
}

// CompareRequest is the body of POST /compare. Paths are resolved on the
// server's filesystem.
type CompareRequest struct {
	FileA             string `json:"file_a"`
	FileB             string `json:"file_b"`
	StrictColumnOrder bool   `json:"strict_column_order"`
	ColumnGroupWidth  int    `json:"column_group_width"`
	SortBudgetRows    int    `json:"sort_budget_rows"`
	MaxDiffs          int    `json:"max_diffs"`
}

// CompareResponse carries the run summary and a bounded sample of diffs.
type CompareResponse struct {
	Summary *metrics.CompareSummary `json:"summary"`
	Diffs   []core.Diff             `json:"diffs"`
}

// NewServer initializes a new Fiber instance.
func NewServer(opts ServerOptions) *Server {
	app := fiber.New(fiber.Config{
		IdleTimeout:  10 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Prefork:      opts.Prefork,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "tablediff API",
			"version": version.Version,
			"build":   version.BuildDate,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Post("/compare", handleCompare)

	port := opts.Port
	if port == "" {
		port = "3000"
	}

	return &Server{app: app, port: port}
}

// handleCompare runs one comparison and returns its summary plus a sample
// of the diff stream.
func handleCompare(c *fiber.Ctx) error {
	var req CompareRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.FileA == "" || req.FileB == "" {
		return fiber.NewError(fiber.StatusBadRequest, "file_a and file_b are required")
	}

	maxDiffs := req.MaxDiffs
	if maxDiffs <= 0 {
		maxDiffs = defaultDiffSample
	}

	sourceA, err := readers.DefaultFactory.Create(core.SourceConfig{
		Type: readers.DetectType(req.FileA),
		Path: req.FileA,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	sourceB, err := readers.DefaultFactory.Create(core.SourceConfig{
		Type: readers.DetectType(req.FileB),
		Path: req.FileB,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	differ, err := diff.NewDiffer(core.CompareOptions{
		StrictColumnOrder: req.StrictColumnOrder,
		ColumnGroupWidth:  req.ColumnGroupWidth,
		SortBudgetRows:    req.SortBudgetRows,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ctx := context.Background()
	stream, err := differ.Compare(ctx, sourceA, sourceB)
	if err != nil {
		return compareError(err)
	}
	defer stream.Close()

	diffs := make([]core.Diff, 0, maxDiffs)
	for len(diffs) < maxDiffs {
		d, err := stream.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return compareError(err)
		}
		diffs = append(diffs, d)
	}

	// Settle the summary before it is serialized.
	if err := stream.Close(); err != nil {
		return compareError(err)
	}

	return c.JSON(CompareResponse{
		Summary: stream.Summary(),
		Diffs:   diffs,
	})
}

func compareError(err error) error {
	var schemaErr *core.SchemaError
	var configErr *core.ConfigError
	var malformedErr *core.MalformedInputError
	switch {
	case errors.As(err, &schemaErr), errors.As(err, &configErr):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &malformedErr):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

// GetApp exposes the underlying Fiber app, mainly for tests.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Start runs the Fiber server.
func (s *Server) Start() error {
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
