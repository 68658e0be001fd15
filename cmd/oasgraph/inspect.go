package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/erraggy/oasgraph"
	"github.com/erraggy/oasgraph/model"
	"github.com/erraggy/oasgraph/normalizer"
	"github.com/erraggy/oasgraph/parser"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v4"
)

type inspectFlags struct {
	strict         bool
	concurrency    int
	http           bool
	defaultService string
	noFlatten      bool
	verbose        bool
	format         string
}

func newInspectCmd() *cobra.Command {
	flags := &inspectFlags{}
	cmd := &cobra.Command{
		Use:   "inspect <file|url>...",
		Short: "Print the services, endpoints and schemas of the normalized graph",
		Args:  cobra.MinimumNArgs(1),
		Example: `  # Inspect a single document
  oasgraph inspect openapi.yaml

  # Several entry documents sharing one graph, dereferenced in parallel
  oasgraph inspect --concurrency 8 users.yaml orders.yaml

  # Fail on the first broken reference and emit YAML
  oasgraph inspect --strict --format yaml openapi.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, flags, args)
		},
	}
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Treat broken references as errors")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 1, "Number of goroutines used while dereferencing")
	cmd.Flags().BoolVar(&flags.http, "http", false, "Allow loading http(s) documents")
	cmd.Flags().StringVar(&flags.defaultService, "default-service", "default", "Service name for untagged endpoints")
	cmd.Flags().BoolVar(&flags.noFlatten, "no-flatten", false, "Keep allOf and anyOf compositions as they are")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log pipeline progress to stderr")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "text", "Output format: text or yaml")
	return cmd
}

func runInspect(cmd *cobra.Command, flags *inspectFlags, args []string) error {
	if flags.format != "text" && flags.format != "yaml" {
		return fmt.Errorf("unsupported format %q (use text or yaml)", flags.format)
	}
	opts := []normalizer.Option{
		normalizer.WithFilePaths(args...),
		normalizer.WithConcurrency(flags.concurrency),
		normalizer.WithStrictRefs(flags.strict),
		normalizer.WithResolveHTTPRefs(flags.http),
		normalizer.WithUserAgent(oasgraph.UserAgent()),
		normalizer.WithDefaultServiceName(flags.defaultService),
		normalizer.WithFlatten(!flags.noFlatten),
	}
	if flags.verbose {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		opts = append(opts, normalizer.WithLogger(parser.NewSlogAdapter(slog.New(handler))))
	}

	result, err := normalizer.NormalizeWithOptions(cmd.Context(), opts...)
	if err != nil {
		return err
	}
	if flags.format == "yaml" {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		if err := enc.Encode(summarize(result)); err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		return enc.Close()
	}
	printText(cmd.OutOrStdout(), result)
	return nil
}

type summary struct {
	Documents []documentSummary `yaml:"documents"`
	Services  []serviceSummary  `yaml:"services"`
	Schemas   []schemaSummary   `yaml:"schemas"`
	Warnings  []string          `yaml:"warnings,omitempty"`
}

type documentSummary struct {
	Path    string `yaml:"path"`
	Version string `yaml:"version,omitempty"`
	Format  string `yaml:"format"`
	Size    int64  `yaml:"size"`
}

type serviceSummary struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Endpoints   []string `yaml:"endpoints"`
}

type schemaSummary struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`
	ID        string `yaml:"id"`
	Generated bool   `yaml:"generated,omitempty"`
}

func summarize(result *normalizer.Result) summary {
	var s summary
	for _, doc := range result.Documents {
		s.Documents = append(s.Documents, documentSummary{
			Path:    doc.Path,
			Version: doc.Version,
			Format:  string(doc.Format),
			Size:    doc.Size,
		})
	}
	for _, svc := range result.Graph.Services {
		ss := serviceSummary{Name: svc.Name, Description: svc.Description}
		for _, e := range svc.Endpoints {
			ss.Endpoints = append(ss.Endpoints, e.Method+" "+e.Path)
		}
		s.Services = append(s.Services, ss)
	}
	for _, schema := range result.Graph.Schemas {
		s.Schemas = append(s.Schemas, schemaSummary{
			Name:      schema.Name,
			Kind:      string(schema.Kind()),
			ID:        schema.ID,
			Generated: schema.IsNameGenerated,
		})
	}
	for _, w := range result.Warnings {
		s.Warnings = append(s.Warnings, w.Error())
	}
	return s
}

func printText(w io.Writer, result *normalizer.Result) {
	stats := result.Stats
	_, _ = fmt.Fprintf(w, "Documents: %d (%s), nodes: %d, cycles: %d, took %v\n",
		stats.Documents, parser.FormatBytes(stats.Bytes), stats.Nodes, stats.Cycles, stats.Duration.Round(time.Microsecond))

	_, _ = fmt.Fprintf(w, "\nServices (%d):\n", len(result.Graph.Services))
	for _, svc := range result.Graph.Services {
		_, _ = fmt.Fprintf(w, "  %s\n", svc.Name)
		for _, e := range svc.Endpoints {
			_, _ = fmt.Fprintf(w, "    %-7s %s%s\n", e.Method, e.Path, endpointNote(e))
		}
	}

	_, _ = fmt.Fprintf(w, "\nSchemas (%d):\n", len(result.Graph.Schemas))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range result.Graph.Schemas {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", s.Name, s.Kind(), s.ID)
	}
	_ = tw.Flush()

	if result.HasWarnings() {
		_, _ = fmt.Fprintf(w, "\nWarnings (%d):\n", len(result.Warnings))
		for _, warn := range result.Warnings {
			_, _ = fmt.Fprintf(w, "  %v\n", warn)
		}
	}
}

func endpointNote(e *model.Endpoint) string {
	switch {
	case e.Webhook:
		return " (webhook)"
	case e.Deprecated:
		return " (deprecated)"
	}
	return ""
}
