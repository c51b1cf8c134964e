package commands

import (
	"fmt"

	"github.com/annokit/annokit/annotation"
	"github.com/annokit/annokit/internal/cli/config"
	"github.com/annokit/annokit/internal/defs"
)

// workspace is everything a command needs after loading configuration and
// the definitions document it points at.
type workspace struct {
	config   *config.Config
	document *defs.Document
	registry *annotation.Registry
}

func loadWorkspace() (*workspace, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	doc, err := defs.LoadFile(cfg.Definitions)
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions from %s: %w", cfg.Definitions, err)
	}

	reg, err := doc.Registry()
	if err != nil {
		return nil, err
	}

	return &workspace{config: cfg, document: doc, registry: reg}, nil
}
