// Package readers provides table sources for the input formats the engine
// can compare.
package readers

import (
	"fmt"
	"strings"

	"github.com/TFMV/tablediff/pkg/core"
)

// Factory creates a table source based on the given configuration.
type Factory struct {
	// registered sources by type
	sources map[string]Creator
}

// Creator is a function that creates a table source from a configuration.
type Creator func(config core.SourceConfig) (core.TableSource, error)

// NewFactory creates a new source factory.
func NewFactory() *Factory {
	return &Factory{
		sources: make(map[string]Creator),
	}
}

// Register registers a creator for a source type.
func (f *Factory) Register(typ string, creator Creator) {
	f.sources[typ] = creator
}

// Create creates a table source based on the given configuration.
func (f *Factory) Create(config core.SourceConfig) (core.TableSource, error) {
	creator, ok := f.sources[config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported source type: %s", config.Type)
	}
	return creator(config)
}

// DetectType guesses the source type from a file extension. CSV is the
// default for unknown extensions.
func DetectType(path string) string {
	lowercase := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lowercase, ".arrow") || strings.HasSuffix(lowercase, ".feather"):
		return "arrow"
	default:
		return "csv"
	}
}

// DefaultFactory is the default source factory with built-in source types.
var DefaultFactory = NewFactory()

// init registers built-in source types.
func init() {
	DefaultFactory.Register("csv", NewCSVSource)
	DefaultFactory.Register("arrow", NewArrowSource)
}
