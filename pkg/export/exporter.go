package export

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ticketferry/ticketferry/pkg/canonical"
	"github.com/ticketferry/ticketferry/pkg/config"
	"github.com/ticketferry/ticketferry/pkg/connector/core"
	"github.com/ticketferry/ticketferry/pkg/errors"
	"github.com/ticketferry/ticketferry/pkg/metrics"
)

// Warning records a downgraded failure: a per-ticket hydration error or an
// optional resource the source could not serve. Warnings never invalidate
// the records already written.
type Warning struct {
	Resource string `json:"resource"`
	Ref      string `json:"ref,omitempty"`
	Message  string `json:"message"`
}

// Report summarizes one export run.
type Report struct {
	Source       string           `json:"source"`
	Counts       canonical.Counts `json:"counts"`
	Warnings     []Warning        `json:"warnings,omitempty"`
	ManifestPath string           `json:"manifestPath"`
	Duration     time.Duration    `json:"duration"`
}

// Exporter drives the fixed sequence of resource passes for one source
// and writes the canonical JSONL sinks plus the manifest. Only
// authentication failures and exhausted rate-limit retries abort a run;
// everything smaller is isolated to the record or resource it touched.
type Exporter struct {
	conn      core.Connector
	outDir    string
	logger    *zap.Logger
	resources map[string]bool
}

// New builds an exporter for one connector invocation.
func New(conn core.Connector, cfg *config.JobConfig, logger *zap.Logger) *Exporter {
	var resources map[string]bool
	if len(cfg.Resources) > 0 {
		resources = make(map[string]bool, len(cfg.Resources))
		for _, r := range cfg.Resources {
			resources[r] = true
		}
	}
	return &Exporter{
		conn:      conn,
		outDir:    cfg.OutputDir,
		logger:    logger.With(zap.String("component", "exporter"), zap.String("source", conn.Name())),
		resources: resources,
	}
}

func (e *Exporter) enabled(resource core.Resource) bool {
	return e.resources == nil || e.resources[string(resource)]
}

// Run executes every enabled resource pass in order and writes the
// manifest last. The returned report carries the warnings of a run that
// finished despite recoverable failures.
func (e *Exporter) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create output directory")
	}

	report := &Report{Source: e.conn.Name()}

	tickets, err := e.exportTickets(ctx, report)
	if err != nil {
		return nil, err
	}
	if err := e.exportMessages(ctx, report, tickets); err != nil {
		return nil, err
	}
	orgNames, err := e.exportCustomers(ctx, report)
	if err != nil {
		return nil, err
	}
	if err := e.exportOrganizations(ctx, report, orgNames); err != nil {
		return nil, err
	}
	if err := e.exportKBArticles(ctx, report); err != nil {
		return nil, err
	}
	if err := e.exportRules(ctx, report); err != nil {
		return nil, err
	}

	manifest := &canonical.ExportManifest{
		Source:     e.conn.Name(),
		ExportedAt: time.Now().UTC(),
		Counts:     report.Counts,
	}
	manifestPath := filepath.Join(e.outDir, "manifest.json")
	encoded, err := gojson.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to encode manifest")
	}
	if err := os.WriteFile(manifestPath, encoded, 0o644); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to write manifest")
	}
	report.ManifestPath = manifestPath
	report.Duration = time.Since(start)

	e.logger.Info("export complete",
		zap.Int("tickets", report.Counts.Tickets),
		zap.Int("messages", report.Counts.Messages),
		zap.Int("customers", report.Counts.Customers),
		zap.Int("organizations", report.Counts.Organizations),
		zap.Int("kb_articles", report.Counts.KBArticles),
		zap.Int("rules", report.Counts.Rules),
		zap.Int("warnings", len(report.Warnings)),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func (e *Exporter) warn(report *Report, resource core.Resource, ref string, err error) {
	w := Warning{Resource: string(resource), Ref: ref, Message: err.Error()}
	report.Warnings = append(report.Warnings, w)
	metrics.ExportWarnings.WithLabelValues(e.conn.Name()).Inc()
	e.logger.Warn("continuing after recoverable failure",
		zap.String("resource", w.Resource),
		zap.String("ref", ref),
		zap.Error(err))
}

// exportTickets writes the ticket sink and returns the tickets for the
// message hydration pass. A ticket pass failure aborts the run: every
// later pass depends on its output.
func (e *Exporter) exportTickets(ctx context.Context, report *Report) ([]*canonical.Ticket, error) {
	if !e.enabled(core.ResourceTickets) {
		return nil, nil
	}
	sink, err := NewSink(filepath.Join(e.outDir, "tickets.jsonl"))
	if err != nil {
		return nil, err
	}
	defer sink.Close()

	var tickets []*canonical.Ticket
	err = e.conn.Tickets(ctx, func(t *canonical.Ticket) error {
		if err := sink.Write(t); err != nil {
			return err
		}
		tickets = append(tickets, t)
		metrics.RecordsExported.WithLabelValues(e.conn.Name(), string(core.ResourceTickets)).Inc()
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.Counts.Tickets = sink.Lines()
	e.logger.Info("pass complete", zap.String("resource", "tickets"), zap.Int("records", sink.Lines()))
	return tickets, sink.Close()
}

// exportMessages hydrates each ticket's conversation. One ticket's failure
// skips only that ticket's messages.
func (e *Exporter) exportMessages(ctx context.Context, report *Report, tickets []*canonical.Ticket) error {
	if !e.enabled(core.ResourceMessages) || len(tickets) == 0 {
		return nil
	}
	sink, err := NewSink(filepath.Join(e.outDir, "messages.jsonl"))
	if err != nil {
		return err
	}
	defer sink.Close()

	for _, ticket := range tickets {
		err := e.conn.Messages(ctx, ticket, func(m *canonical.Message) error {
			if err := sink.Write(m); err != nil {
				return err
			}
			metrics.RecordsExported.WithLabelValues(e.conn.Name(), string(core.ResourceMessages)).Inc()
			return nil
		})
		if errors.IsFatal(err) {
			return err
		}
		if err != nil {
			e.warn(report, core.ResourceMessages, ticket.ID, err)
		}
	}
	report.Counts.Messages = sink.Lines()
	e.logger.Info("pass complete", zap.String("resource", "messages"), zap.Int("records", sink.Lines()))
	return sink.Close()
}

// derivedOrg tracks one organization aggregated from customer org names.
type derivedOrg struct {
	id   string
	name string
}

// exportCustomers writes end users and agents into one customer sink and
// collects raw org names for sources without an organization endpoint.
func (e *Exporter) exportCustomers(ctx context.Context, report *Report) (map[string]derivedOrg, error) {
	orgNames := make(map[string]derivedOrg)
	if !e.enabled(core.ResourceCustomers) && !e.enabled(core.ResourceAgents) {
		return orgNames, nil
	}
	sink, err := NewSink(filepath.Join(e.outDir, "customers.jsonl"))
	if err != nil {
		return nil, err
	}
	defer sink.Close()

	write := func(resource core.Resource) func(*canonical.Customer) error {
		return func(c *canonical.Customer) error {
			if err := sink.Write(c); err != nil {
				return err
			}
			metrics.RecordsExported.WithLabelValues(e.conn.Name(), string(resource)).Inc()
			if c.OrgName == "" {
				return nil
			}
			norm := canonical.NormalizeOrgName(c.OrgName)
			if existing, ok := orgNames[norm]; ok {
				if existing.name != c.OrgName {
					// Two spellings merged into one derived org.
					e.logger.Warn("organization name variants merged",
						zap.String("kept", existing.name),
						zap.String("merged", c.OrgName))
				}
				return nil
			}
			orgNames[norm] = derivedOrg{id: c.OrgID, name: c.OrgName}
			return nil
		}
	}

	if e.enabled(core.ResourceCustomers) {
		if err := e.conn.Customers(ctx, write(core.ResourceCustomers)); err != nil {
			if errors.IsFatal(err) {
				return nil, err
			}
			e.warn(report, core.ResourceCustomers, "", err)
		}
	}
	if e.enabled(core.ResourceAgents) {
		if err := e.conn.Agents(ctx, write(core.ResourceAgents)); err != nil {
			if errors.IsFatal(err) {
				return nil, err
			}
			e.warn(report, core.ResourceAgents, "", err)
		}
	}

	report.Counts.Customers = sink.Lines()
	e.logger.Info("pass complete", zap.String("resource", "customers"), zap.Int("records", sink.Lines()))
	return orgNames, sink.Close()
}

// exportOrganizations prefers the source's own organization endpoint and
// falls back to the orgs derived from customer company names when the
// source has none.
func (e *Exporter) exportOrganizations(ctx context.Context, report *Report, orgNames map[string]derivedOrg) error {
	if !e.enabled(core.ResourceOrganizations) {
		return nil
	}
	sink, err := NewSink(filepath.Join(e.outDir, "organizations.jsonl"))
	if err != nil {
		return err
	}
	defer sink.Close()

	err = e.conn.Organizations(ctx, func(o *canonical.Organization) error {
		if err := sink.Write(o); err != nil {
			return err
		}
		metrics.RecordsExported.WithLabelValues(e.conn.Name(), string(core.ResourceOrganizations)).Inc()
		return nil
	})
	switch {
	case err == nil:
	case core.IsUnsupported(err):
		if derr := e.writeDerivedOrgs(sink, orgNames); derr != nil {
			return derr
		}
	case errors.IsFatal(err):
		return err
	default:
		e.warn(report, core.ResourceOrganizations, "", err)
	}

	report.Counts.Organizations = sink.Lines()
	e.logger.Info("pass complete", zap.String("resource", "organizations"), zap.Int("records", sink.Lines()))
	return sink.Close()
}

// writeDerivedOrgs emits the aggregated orgs in a stable order.
func (e *Exporter) writeDerivedOrgs(sink *Sink, orgNames map[string]derivedOrg) error {
	norms := make([]string, 0, len(orgNames))
	for norm := range orgNames {
		norms = append(norms, norm)
	}
	sort.Strings(norms)

	prefix := e.conn.SourcePrefix()
	for _, norm := range norms {
		org := orgNames[norm]
		id := org.id
		if id == "" {
			id = canonical.OrgIDFromName(prefix, org.name)
		}
		record := &canonical.Organization{
			ID:         id,
			ExternalID: id,
			Source:     e.conn.Name(),
			Name:       org.name,
			Domains:    []string{},
		}
		if err := sink.Write(record); err != nil {
			return err
		}
		metrics.RecordsExported.WithLabelValues(e.conn.Name(), string(core.ResourceOrganizations)).Inc()
	}
	return nil
}

func (e *Exporter) exportKBArticles(ctx context.Context, report *Report) error {
	if !e.enabled(core.ResourceKBArticles) {
		return nil
	}
	sink, err := NewSink(filepath.Join(e.outDir, "kb_articles.jsonl"))
	if err != nil {
		return err
	}
	defer sink.Close()

	err = e.conn.KBArticles(ctx, func(a *canonical.KBArticle) error {
		if err := sink.Write(a); err != nil {
			return err
		}
		metrics.RecordsExported.WithLabelValues(e.conn.Name(), string(core.ResourceKBArticles)).Inc()
		return nil
	})
	if errors.IsFatal(err) {
		return err
	}
	if err != nil {
		e.warn(report, core.ResourceKBArticles, "", err)
	}

	report.Counts.KBArticles = sink.Lines()
	e.logger.Info("pass complete", zap.String("resource", "kb_articles"), zap.Int("records", sink.Lines()))
	return sink.Close()
}

func (e *Exporter) exportRules(ctx context.Context, report *Report) error {
	if !e.enabled(core.ResourceRules) {
		return nil
	}
	sink, err := NewSink(filepath.Join(e.outDir, "rules.jsonl"))
	if err != nil {
		return err
	}
	defer sink.Close()

	err = e.conn.Rules(ctx, func(r *canonical.Rule) error {
		if err := sink.Write(r); err != nil {
			return err
		}
		metrics.RecordsExported.WithLabelValues(e.conn.Name(), string(core.ResourceRules)).Inc()
		return nil
	})
	if errors.IsFatal(err) {
		return err
	}
	if err != nil {
		e.warn(report, core.ResourceRules, "", err)
	}

	report.Counts.Rules = sink.Lines()
	e.logger.Info("pass complete", zap.String("resource", "rules"), zap.Int("records", sink.Lines()))
	return sink.Close()
}
