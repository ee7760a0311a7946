package cli

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/leapcal/internal/config"
	"github.com/roach88/leapcal/internal/publish"
	"github.com/roach88/leapcal/internal/table"
)

// PublishOptions holds flags for the publish command.
type PublishOptions struct {
	*RootOptions
	Config    string
	Key       string
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool

	// HTTPClient replaces the S3 client's transport (for testing).
	HTTPClient *http.Client
}

// NewPublishCommand creates the publish command.
func NewPublishCommand(rootOpts *RootOptions) *cobra.Command {
	return newPublishCommand(&PublishOptions{RootOptions: rootOpts})
}

func newPublishCommand(opts *PublishOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <table>",
		Short: "Upload a valid table and its checksum to S3",
		Long: `Validate a table and upload it to an S3-compatible bucket next to a
<key>.sha256 object in sha256sum format. Re-publishing identical content is
a no-op; a key holding different content is never overwritten.

The target comes from the publish section of --config, then the
LEAPCAL_S3_BUCKET, LEAPCAL_S3_REGION, LEAPCAL_S3_ENDPOINT, LEAPCAL_S3_KEY
and LEAPCAL_S3_PATH_STYLE variables, then the flags. Credentials come from
the AWS default chain.

Exit codes:
  0 - Published, or already published
  1 - Table invalid or expired, or the key holds a different table
  2 - Command error

Example:
  leapcal publish leap_seconds.tab --bucket tables --key iers/leap_seconds.tab`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "pipeline file holding the publish target")
	cmd.Flags().StringVar(&opts.Key, "key", "", "object key")
	cmd.Flags().StringVar(&opts.Bucket, "bucket", "", "bucket name")
	cmd.Flags().StringVar(&opts.Region, "region", "", "bucket region")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "custom endpoint, e.g. a MinIO URL")
	cmd.Flags().BoolVar(&opts.PathStyle, "path-style", false, "use path-style addressing")

	return cmd
}

func (o *PublishOptions) target() (config.PublishConfig, error) {
	cfg := config.Default()
	if o.Config != "" {
		var err error
		if cfg, err = config.Load(o.Config); err != nil {
			return config.PublishConfig{}, err
		}
	} else {
		cfg.ApplyEnv()
	}
	p := cfg.Publish
	for dst, v := range map[*string]string{
		&p.Key:      o.Key,
		&p.Bucket:   o.Bucket,
		&p.Region:   o.Region,
		&p.Endpoint: o.Endpoint,
	} {
		if v != "" {
			*dst = v
		}
	}
	if o.PathStyle {
		p.PathStyle = true
	}
	return p, nil
}

func runPublish(opts *PublishOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	target, err := opts.target()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load pipeline file", err)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read table", err)
	}
	_, errs, err := table.Check(bytes.NewReader(body), opts.today())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read table", err)
	}
	if table.Failed(errs) {
		for _, e := range errs {
			fmt.Fprintf(formatter.GetErrWriter(), "%s %s\n", e.Severity, e.Error())
		}
		return NewExitError(ExitFailure, fmt.Sprintf("refusing to publish %s", path))
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	pub, err := publish.New(ctx, publish.Config{
		Bucket:     target.Bucket,
		Region:     target.Region,
		Endpoint:   target.Endpoint,
		PathStyle:  target.PathStyle,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure S3", err)
	}
	res, err := pub.Publish(ctx, target.Key, body)
	if errors.Is(err, publish.ErrConflict) {
		return WrapExitError(ExitFailure, "publish refused", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "publish failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]interface{}{
			"bucket":    target.Bucket,
			"key":       res.Key,
			"checksum":  res.Checksum,
			"unchanged": res.Unchanged,
		})
	}
	if res.Unchanged {
		fmt.Fprintf(cmd.OutOrStdout(), "s3://%s/%s already holds this table (%s)\n", target.Bucket, res.Key, res.Checksum)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Published s3://%s/%s (%s)\n", target.Bucket, res.Key, res.Checksum)
	return nil
}
