// Command etl runs the salary-per-hour batch: it loads both inputs, builds
// the monthly branch summary and appends it to the configured sink.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"salaryetl/internal/config"

	// register every sink backend; the config picks one by kind.
	_ "salaryetl/internal/storage/all"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type options struct {
	configPath string
	envFile    string
	dryRun     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "etl:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:           "etl",
		Short:         "Salary per hour batch ETL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	addConfigFlags(root.PersistentFlags(), &opts)

	run := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := runPipeline(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if rep.DryRun {
				fmt.Fprintln(out, rep.Preview)
				return nil
			}
			fmt.Fprintf(out, "run %s: wrote %d rows\n", rep.RunID, rep.Written)
			return nil
		},
	}
	run.Flags().BoolVar(&opts.dryRun, "dry-run", false, "stop before the sink and print the preview")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Lint the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return validateConfig(out, opts)
		},
	}

	root.AddCommand(run, validate, &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(out, version)
		},
	})
	return root
}

func addConfigFlags(fs *pflag.FlagSet, opts *options) {
	fs.StringVarP(&opts.configPath, "config", "c", "", "pipeline config file (YAML or JSON), e.g. --config configs/pipeline.yaml")
	fs.StringVarP(&opts.envFile, "env", "e", "", "optional .env file loaded before ETL_* overrides")
}

// validateConfig prints every finding as "severity: path: message" and
// fails when any of them is an error.
func validateConfig(out io.Writer, opts options) error {
	p, err := readConfigFn(opts.configPath, opts.envFile)
	if err != nil {
		return err
	}
	issues := config.ValidatePipeline(p)
	errs := 0
	for _, iss := range issues {
		fmt.Fprintf(out, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			errs++
		}
	}
	if errs > 0 {
		return fmt.Errorf("%w: %d error(s)", config.ErrInvalid, errs)
	}
	if len(issues) == 0 {
		fmt.Fprintln(out, "config ok")
	}
	return nil
}
