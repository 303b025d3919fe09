package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gnana997/tokensync/pkg/artifact"
	"github.com/gnana997/tokensync/pkg/exporter"
)

type exportOptions struct {
	format     string
	out        string
	publish    bool
	verify     bool
	typescript bool
}

func newExportCmd(g *globalOptions) *cobra.Command {
	opts := exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the variable store as simplified, fullspec, css or tailwind",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			cfg := g.cfg
			if flags.Changed("format") {
				cfg.Export.Format = opts.format
			}
			if flags.Changed("out") {
				cfg.Export.Out = opts.out
			}
			if flags.Changed("verify") {
				cfg.Export.Verify = opts.verify
			}
			if flags.Changed("typescript") {
				cfg.Export.TypeScript = opts.typescript
			}
			f, err := exporter.ParseFormat(cfg.Export.Format)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), g, false)
			if err != nil {
				return err
			}
			defer a.Close()

			art, err := a.engine.Export(cmd.Context(), f)
			if err != nil {
				return err
			}

			if cfg.Export.Out == "" && !opts.publish {
				_, err := cmd.OutOrStdout().Write(art.Content)
				return err
			}
			if cfg.Export.Out != "" {
				path, err := writeArtifact(cfg.Export.Out, art)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
			}
			if opts.publish {
				if !cfg.Publish.Enabled() {
					return fmt.Errorf("publish requires publish.endpoint and publish.bucket")
				}
				p, err := artifact.NewPublisher(artifact.S3Config{
					Endpoint:  cfg.Publish.Endpoint,
					Region:    cfg.Publish.Region,
					AccessKey: cfg.Publish.AccessKey,
					SecretKey: cfg.Publish.SecretKey,
					Bucket:    cfg.Publish.Bucket,
					Prefix:    cfg.Publish.Prefix,
					UseSSL:    cfg.Publish.UseSSL,
				})
				if err != nil {
					return err
				}
				loc, err := p.Publish(cmd.Context(), art)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "published %s\n", loc)
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.format, "format", "f", string(exporter.FormatSimplified), "simplified, fullspec, css or tailwind")
	fs.StringVarP(&opts.out, "out", "o", "", "output file or directory (default stdout)")
	fs.BoolVar(&opts.publish, "publish", false, "upload the artifact to the configured bucket")
	fs.BoolVar(&opts.verify, "verify", false, "syntax-check tailwind output before writing")
	fs.BoolVar(&opts.typescript, "typescript", false, "emit tailwind.config.ts instead of .js")
	return cmd
}

// writeArtifact writes a to out. A directory (existing, or given with a
// trailing separator) receives the artifact's own file name.
func writeArtifact(out string, a *exporter.Artifact) (string, error) {
	path := out
	if info, err := os.Stat(out); (err == nil && info.IsDir()) || strings.HasSuffix(out, string(os.PathSeparator)) || strings.HasSuffix(out, "/") {
		path = filepath.Join(out, a.FileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, a.Content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
