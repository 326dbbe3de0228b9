// Package connector builds source connectors by name.
package connector

import (
	"sort"

	"go.uber.org/zap"

	"github.com/ticketferry/ticketferry/pkg/config"
	"github.com/ticketferry/ticketferry/pkg/connector/core"
	"github.com/ticketferry/ticketferry/pkg/connector/freshdesk"
	"github.com/ticketferry/ticketferry/pkg/connector/helpscout"
	"github.com/ticketferry/ticketferry/pkg/connector/intercom"
	"github.com/ticketferry/ticketferry/pkg/connector/kayako"
	"github.com/ticketferry/ticketferry/pkg/connector/zendesk"
	"github.com/ticketferry/ticketferry/pkg/errors"
)

type factory func(*config.JobConfig, *zap.Logger) (core.Connector, error)

var factories = map[string]factory{
	"zendesk": func(cfg *config.JobConfig, logger *zap.Logger) (core.Connector, error) {
		return zendesk.New(cfg, logger)
	},
	"freshdesk": func(cfg *config.JobConfig, logger *zap.Logger) (core.Connector, error) {
		return freshdesk.New(cfg, logger)
	},
	"helpscout": func(cfg *config.JobConfig, logger *zap.Logger) (core.Connector, error) {
		return helpscout.New(cfg, logger)
	},
	"intercom": func(cfg *config.JobConfig, logger *zap.Logger) (core.Connector, error) {
		return intercom.New(cfg, logger)
	},
	"kayako": func(cfg *config.JobConfig, logger *zap.Logger) (core.Connector, error) {
		return kayako.New(cfg, logger)
	},
}

// New builds the connector the job names.
func New(cfg *config.JobConfig, logger *zap.Logger) (core.Connector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid job config")
	}
	build, ok := factories[cfg.Source]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown source %q, supported: %v", cfg.Source, Sources())
	}
	return build(cfg, logger)
}

// Sources lists the supported source names, sorted.
func Sources() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
