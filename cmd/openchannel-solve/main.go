// openchannel-solve solves problems from the command line without a server.
//
// Problems come from one of:
//
//	-problem basic_flow -params '{"shape": "rectangular", ...}'
//	-file problems.yaml     a YAML list of {problem, params}
//	-xlsx problems.xlsx     a sheet with a "problem" column and one column per parameter
//
// Results are printed as JSON. -xlsx-out writes them to a workbook and -pdf
// writes a report of a single problem.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/chrissnell/openchannel/internal/constants"
	"github.com/chrissnell/openchannel/internal/importer"
	"github.com/chrissnell/openchannel/internal/log"
	"github.com/chrissnell/openchannel/internal/report"
	"github.com/chrissnell/openchannel/pkg/config"
	"github.com/chrissnell/openchannel/pkg/solver"
)

type options struct {
	cfgFile     string
	envFile     string
	problem     string
	params      string
	file        string
	xlsx        string
	sheet       string
	xlsxOut     string
	pdf         string
	workers     int
	list        bool
	debug       bool
	showVersion bool
}

func main() {
	var o options
	flag.StringVar(&o.cfgFile, "config", "", "Path to the YAML configuration file (physics and solver sections)")
	flag.StringVar(&o.envFile, "env", ".env", "Path to a .env file of OPENCHANNEL_* overrides")
	flag.StringVar(&o.problem, "problem", "", "Problem type to solve, used with -params")
	flag.StringVar(&o.params, "params", "{}", "Problem parameters as a JSON object")
	flag.StringVar(&o.file, "file", "", "YAML file with a list of problems")
	flag.StringVar(&o.xlsx, "xlsx", "", "Excel workbook with one problem per row")
	flag.StringVar(&o.sheet, "sheet", "", "Sheet to read from -xlsx; defaults to the first")
	flag.StringVar(&o.xlsxOut, "xlsx-out", "", "Write the results to this Excel workbook")
	flag.StringVar(&o.pdf, "pdf", "", "Write a PDF report of a single problem to this file")
	flag.IntVar(&o.workers, "workers", 0, "Concurrent solves for batches; 0 uses the configured value")
	flag.BoolVar(&o.list, "list", false, "List the problem types and their parameters, then exit")
	flag.BoolVar(&o.debug, "debug", false, "Turn on debugging output")
	flag.BoolVar(&o.showVersion, "version", false, "Show version and exit")
	flag.Parse()

	if o.showVersion {
		fmt.Printf("openchannel-solve %s\n", constants.Version)
		return
	}

	if err := log.Init(o.debug); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(o, log.GetSugaredLogger()); err != nil {
		log.Errorf("%v", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(o options, logger *zap.SugaredLogger) error {
	if o.list {
		return printJSON(solver.Problems())
	}

	cfg, err := config.NewYAMLProvider(o.cfgFile).LoadConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	if err := config.ApplyEnv(cfg, o.envFile); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s, err := solver.New(cfg.Model(), logger)
	if err != nil {
		return err
	}

	reqs, err := readRequests(o)
	if err != nil {
		return err
	}
	if o.pdf != "" && len(reqs) != 1 {
		return fmt.Errorf("-pdf needs exactly one problem, got %d", len(reqs))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers := o.workers
	if workers == 0 {
		workers = cfg.Batch.Workers
	}
	outcomes, err := s.SolveBatch(ctx, reqs, workers)
	if err != nil {
		return err
	}

	if o.xlsxOut != "" {
		if err := writeFile(o.xlsxOut, func(f *os.File) error { return importer.WriteResults(f, outcomes) }); err != nil {
			return err
		}
		logger.Infof("wrote %d results to %s", len(outcomes), o.xlsxOut)
	}

	if o.pdf != "" {
		if outcomes[0].Err != nil {
			return outcomes[0].Err
		}
		doc, err := report.Prepare(s, "", time.Now(), reqs[0])
		if err != nil {
			return err
		}
		if err := writeFile(o.pdf, func(f *os.File) error { return report.Write(f, doc) }); err != nil {
			return err
		}
		logger.Infof("wrote report to %s", o.pdf)
	}

	failed := 0
	out := make([]any, len(outcomes))
	for i, oc := range outcomes {
		if oc.Err != nil {
			failed++
			out[i] = map[string]any{"problem": reqs[i].Problem, "error": oc.Err.Error()}
			continue
		}
		out[i] = oc.Result.Wire()
	}
	if len(out) == 1 {
		if err := printJSON(out[0]); err != nil {
			return err
		}
	} else if err := printJSON(out); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d problems could not be solved", failed, len(outcomes))
	}
	return nil
}

func readRequests(o options) ([]solver.Request, error) {
	sources := 0
	for _, set := range []bool{o.problem != "", o.file != "", o.xlsx != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, fmt.Errorf("give exactly one of -problem, -file or -xlsx")
	}

	switch {
	case o.problem != "":
		var params solver.Params
		if err := json.Unmarshal([]byte(o.params), &params); err != nil {
			return nil, fmt.Errorf("-params is not a JSON object: %w", err)
		}
		return []solver.Request{{Problem: solver.ProblemType(o.problem), Params: params}}, nil

	case o.file != "":
		data, err := os.ReadFile(o.file)
		if err != nil {
			return nil, err
		}
		var reqs []solver.Request
		if err := yaml.Unmarshal(data, &reqs); err != nil {
			return nil, fmt.Errorf("%s: %w", o.file, err)
		}
		if len(reqs) == 0 {
			return nil, fmt.Errorf("%s holds no problems", o.file)
		}
		return reqs, nil
	}

	f, err := os.Open(o.xlsx)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	reqs, err := importer.ReadRequests(f, o.sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.xlsx, err)
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%s holds no problems", o.xlsx)
	}
	return reqs, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
