// Package main implements the quill CLI.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"quill/internal/config"
	"quill/internal/diagfmt"
	"quill/internal/driver"
	"quill/internal/pipeline"
	"quill/internal/rir"
	"quill/internal/samples"
	"quill/internal/target"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] [files...]",
	Short: "Partially evaluate packages into flat programs",
	Long: `Compile specializes each .qfir package for the selected target and writes
one program per input. Settings come from quill.toml when present; flags
override them.`,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().String("target", "", "target profile (base|adaptive_ri|adaptive_rif|unrestricted)")
	compileCmd.Flags().String("capabilities", "", "explicit capability set, e.g. Adaptive|IntegerComputations")
	compileCmd.Flags().String("config", "", "path to quill.toml (default: search upwards)")
	compileCmd.Flags().String("emit", "", "output format (text|bin)")
	compileCmd.Flags().StringP("out-dir", "o", "", "output directory")
	compileCmd.Flags().Bool("stdout", false, "print listings to stdout instead of writing files")
	compileCmd.Flags().Int("jobs", 0, "parallel compilations (0 = GOMAXPROCS)")
	compileCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
	compileCmd.Flags().Bool("no-cache", false, "bypass the program cache")
	compileCmd.Flags().Int("max-depth", 0, "maximum call depth (0 = default)")
	compileCmd.Flags().Int("max-loop-iterations", 0, "maximum unrolled loop iterations (0 = unlimited)")
	compileCmd.Flags().StringSlice("sample", nil, "compile a built-in sample program (repeatable)")
	compileCmd.Flags().String("diag-format", "pretty", "diagnostics format (pretty|json)")
}

type compileFlags struct {
	targetName   string
	capabilities string
	configPath   string
	emit         string
	outDir       string
	stdout       bool
	jobs         int
	ui           string
	noCache      bool
	maxDepth     int
	maxLoop      int
	samples      []string
	diagFormat   string
}

func readCompileFlags(cmd *cobra.Command) (compileFlags, error) {
	var (
		f   compileFlags
		err error
	)
	flags := cmd.Flags()
	if f.targetName, err = flags.GetString("target"); err != nil {
		return f, err
	}
	if f.capabilities, err = flags.GetString("capabilities"); err != nil {
		return f, err
	}
	if f.configPath, err = flags.GetString("config"); err != nil {
		return f, err
	}
	if f.emit, err = flags.GetString("emit"); err != nil {
		return f, err
	}
	if f.outDir, err = flags.GetString("out-dir"); err != nil {
		return f, err
	}
	if f.stdout, err = flags.GetBool("stdout"); err != nil {
		return f, err
	}
	if f.jobs, err = flags.GetInt("jobs"); err != nil {
		return f, err
	}
	if f.ui, err = flags.GetString("ui"); err != nil {
		return f, err
	}
	if f.noCache, err = flags.GetBool("no-cache"); err != nil {
		return f, err
	}
	if f.maxDepth, err = flags.GetInt("max-depth"); err != nil {
		return f, err
	}
	if f.maxLoop, err = flags.GetInt("max-loop-iterations"); err != nil {
		return f, err
	}
	if f.samples, err = flags.GetStringSlice("sample"); err != nil {
		return f, err
	}
	if f.diagFormat, err = flags.GetString("diag-format"); err != nil {
		return f, err
	}
	switch f.diagFormat {
	case "pretty", "json":
	default:
		return f, fmt.Errorf("unsupported --diag-format %q (expected pretty|json)", f.diagFormat)
	}
	return f, nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	flags, err := readCompileFlags(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 && len(flags.samples) == 0 {
		return fmt.Errorf("nothing to compile: pass .qfir files or --sample")
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	mode, err := readUIMode(flags.ui)
	if err != nil {
		return err
	}

	cfg, err := loadCompileConfig(flags, args)
	if err != nil {
		return err
	}
	inputs, err := collectInputs(args, flags.samples)
	if err != nil {
		return err
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	req := &pipeline.Request{
		Inputs:            inputs,
		Profile:           cfg.Profile.String(),
		Capabilities:      cfg.Capabilities,
		MaxCallDepth:      cfg.MaxCallDepth,
		MaxLoopIterations: cfg.MaxLoopIterations,
		MaxDiagnostics:    maxDiagnostics,
		Jobs:              flags.jobs,
		OutputDir:         cfg.OutputDir,
		Emit:              cfg.Emit,
		Memo:              driver.NewProgramCache(len(inputs)),
	}
	if flags.stdout {
		req.Emit = ""
	}
	if cfg.CacheEnabled && !flags.noCache {
		cache, cacheErr := openCache(cfg)
		if cacheErr != nil && !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: program cache disabled: %v\n", cacheErr)
		}
		req.Cache = cache
	}
	var msgMu sync.Mutex
	req.OnMessage = func(input, msg string) {
		if quiet {
			return
		}
		msgMu.Lock()
		defer msgMu.Unlock()
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: message: %s\n", input, msg)
	}

	names := make([]string, len(inputs))
	for i, in := range inputs {
		if in.Name != "" {
			names[i] = in.Name
		} else {
			names[i] = in.Path
		}
	}

	useTUI := !quiet && !flags.stdout && shouldUseTUI(mode)
	var (
		result     pipeline.Result
		compileErr error
	)
	if useTUI {
		result, compileErr = runCompileWithUI(cmd.Context(), "compiling for "+cfg.Capabilities.String(), names, req)
	} else {
		result, compileErr = pipeline.Compile(cmd.Context(), req)
	}
	if result.Files == nil {
		return compileErr
	}

	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stderr))
	reportResults(cmd.OutOrStdout(), cmd.ErrOrStderr(), result, reportOptions{
		color:   useColor,
		quiet:   quiet || useTUI,
		stdout:  flags.stdout,
		maxDiag: maxDiagnostics,
		json:    flags.diagFormat == "json",
	})
	if showTimings {
		printStageTimings(cmd.ErrOrStderr(), result.Timings)
		if len(result.Files) == 1 {
			fmt.Fprint(cmd.ErrOrStderr(), result.Files[0].Timer.Summary())
		}
	}
	return compileErr
}

// loadCompileConfig resolves quill.toml and layers the flags on top.
func loadCompileConfig(flags compileFlags, args []string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case flags.configPath != "":
		cfg, err = config.Load(flags.configPath)
	case len(args) > 0:
		cfg, err = config.Discover(filepath.Dir(args[0]))
	default:
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}

	if flags.targetName != "" {
		profile, err := target.ParseProfile(flags.targetName)
		if err != nil {
			return nil, err
		}
		cfg.Profile = profile
		cfg.Capabilities = profile.Capabilities()
	}
	if flags.capabilities != "" {
		caps, err := target.ParseCapabilities(flags.capabilities)
		if err != nil {
			return nil, err
		}
		cfg.Capabilities = caps
	}
	if flags.emit != "" {
		if cfg.Emit, err = config.ParseEmit(flags.emit); err != nil {
			return nil, err
		}
	}
	if flags.outDir != "" {
		cfg.OutputDir = flags.outDir
	}
	if flags.maxDepth < 0 || flags.maxLoop < 0 {
		return nil, fmt.Errorf("limits must not be negative")
	}
	if flags.maxDepth > 0 {
		cfg.MaxCallDepth = flags.maxDepth
	}
	if flags.maxLoop > 0 {
		cfg.MaxLoopIterations = flags.maxLoop
	}
	return cfg, nil
}

func collectInputs(files, sampleNames []string) ([]pipeline.Input, error) {
	inputs := make([]pipeline.Input, 0, len(files)+len(sampleNames))
	for _, file := range files {
		inputs = append(inputs, pipeline.Input{Path: file})
	}
	for _, name := range sampleNames {
		s, err := samples.Lookup(name)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, pipeline.Input{Name: "sample:" + s.Name, Package: s.Build()})
	}
	return inputs, nil
}

func openCache(cfg *config.Config) (*driver.DiskCache, error) {
	if cfg.CacheDir != "" {
		return driver.OpenDiskCacheAt(cfg.CacheDir)
	}
	return driver.OpenDiskCache("quill")
}

type reportOptions struct {
	color   bool
	quiet   bool
	stdout  bool
	maxDiag int
	json    bool
}

func reportResults(out, errOut io.Writer, result pipeline.Result, opts reportOptions) {
	for _, fr := range result.Files {
		if fr.Diagnostics.Len() > 0 {
			fr.Diagnostics.Sort()
			if opts.json {
				if err := diagfmt.JSON(errOut, fr.Diagnostics, fr.Files); err != nil {
					fmt.Fprintf(errOut, "%s: failed to encode diagnostics: %v\n", fr.Name, err)
				}
			} else {
				diagfmt.Pretty(errOut, fr.Diagnostics, fr.Files, diagfmt.PrettyOpts{
					Color:     opts.color,
					ShowNotes: true,
					Max:       opts.maxDiag,
				})
			}
		}
		if fr.Err != nil {
			continue
		}
		if opts.stdout {
			fmt.Fprintf(out, "; %s\n", fr.Name)
			rir.DumpProgram(out, fr.Program)
			continue
		}
		if opts.quiet {
			continue
		}
		note := ""
		if fr.Cached {
			note = " (cached)"
		}
		if fr.OutputPath != "" {
			fmt.Fprintf(out, "compiled %s -> %s%s\n", fr.Name, fr.OutputPath, note)
		} else {
			fmt.Fprintf(out, "compiled %s%s\n", fr.Name, note)
		}
	}
}
