// Package pipeline compiles a batch of packages, one independent partial
// evaluation per input, and reports progress while doing so.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"quill/internal/diag"
	"quill/internal/driver"
	"quill/internal/fir"
	"quill/internal/observ"
	"quill/internal/partialeval"
	"quill/internal/rca"
	"quill/internal/rir"
	"quill/internal/source"
	"quill/internal/target"
	"quill/internal/trace"
)

// Input is one package to compile: either a file to load or a package
// built in memory.
type Input struct {
	Name    string // display name; defaults to Path
	Path    string
	Package *fir.Package
}

func (in Input) display() string {
	if in.Name != "" {
		return in.Name
	}
	return in.Path
}

// Request configures a batch compilation.
type Request struct {
	Inputs []Input

	Profile           string // recorded in cache entries
	Capabilities      target.Capabilities
	MaxCallDepth      int
	MaxLoopIterations int
	MaxDiagnostics    int

	Jobs int // 0 uses GOMAXPROCS

	// OutputDir and Emit control what StageEmit writes. An empty Emit
	// keeps programs in memory only.
	OutputDir string
	Emit      string // driver text or bin

	Cache *driver.DiskCache
	Memo  *driver.ProgramCache

	Progress ProgressSink
	// OnMessage receives Message output of the named input.
	OnMessage func(input, msg string)
}

// FileResult is the outcome of one input.
type FileResult struct {
	Name        string
	Program     *rir.Program
	OutputPath  string
	Cached      bool
	Err         error
	Diagnostics *diag.Bag
	Files       *source.FileTable
	Timer       *observ.Timer
}

// Result collects per-input outcomes in request order.
type Result struct {
	Files   []FileResult
	Timings Timings
}

// Failed counts inputs that did not compile.
func (r Result) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// ErrCompileFailed is wrapped by the error Compile returns when any input
// failed; the cause of each failure is in its FileResult.
var ErrCompileFailed = errors.New("compilation failed")

// Compile runs every input through load, analyze, evaluate, check and
// emit. A failing input does not stop the others.
func Compile(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing compile request")
	}
	if len(req.Inputs) == 0 {
		return result, fmt.Errorf("no inputs to compile")
	}
	switch req.Emit {
	case "", "text", "bin":
	default:
		return result, fmt.Errorf("unsupported emit format %q", req.Emit)
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "compile", trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)

	names := make([]string, len(req.Inputs))
	for i, in := range req.Inputs {
		names[i] = in.display()
	}
	emitQueued(req.Progress, names)

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	result.Files = make([]FileResult, len(req.Inputs))
	var timingsMu sync.Mutex

	// Result slots are per index; only the aggregated timings are shared.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(req.Inputs)))
	for i, in := range req.Inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fr := compileOne(gctx, req, in)
			result.Files[i] = fr
			timingsMu.Lock()
			for _, p := range fr.Timer.Phases() {
				result.Timings.Add(Stage(p.Name), p.Dur)
			}
			timingsMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.End("canceled")
		return result, err
	}

	failed := result.Failed()
	span.WithExtra("files", fmt.Sprint(len(req.Inputs))).WithExtra("failed", fmt.Sprint(failed))
	if failed > 0 {
		span.End("error")
		emitOverall(req.Progress, StatusError, nil)
		return result, fmt.Errorf("%w: %d of %d inputs", ErrCompileFailed, failed, len(req.Inputs))
	}
	span.End("")
	emitOverall(req.Progress, StatusDone, nil)
	return result, nil
}

// compileOne owns its package, classification and resource state; nothing
// is shared with other inputs except the caches.
func compileOne(ctx context.Context, req *Request, in Input) FileResult {
	name := in.display()
	fr := FileResult{
		Name:        name,
		Diagnostics: diag.NewBag(req.MaxDiagnostics),
		Timer:       observ.NewTimer(),
	}
	tracer := trace.FromContext(ctx)
	fileSpan := trace.Begin(tracer, trace.ScopePass, "file:"+name, trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, fileSpan)
	defer func() {
		if fr.Err != nil {
			fileSpan.End("error")
			return
		}
		fileSpan.End("")
	}()

	st := stageRunner{req: req, fr: &fr, ctx: ctx}

	var pkg *fir.Package
	if !st.run(StageLoad, func() (string, error) {
		p, err := loadInput(in)
		if err != nil {
			return "", err
		}
		pkg = p
		fr.Files = &pkg.Files
		return pkg.Name, nil
	}) {
		return fr
	}

	key, keyErr := driver.ComputeKey(driver.KeyInput{
		Package:           pkg,
		Capabilities:      req.Capabilities,
		MaxCallDepth:      req.MaxCallDepth,
		MaxLoopIterations: req.MaxLoopIterations,
	})
	// Message output only happens during evaluation, so a package that
	// prints is evaluated on every run.
	_, prints := pkg.FindCallable(fir.MessageName)
	cacheable := keyErr == nil && !prints
	if cacheable {
		if prog, ok := lookupCache(req, key); ok {
			fr.Program = prog
			fr.Cached = true
			req.emit(Event{File: name, Stage: StageEvaluate, Status: StatusCached})
		}
	}

	if fr.Program == nil {
		var props *rca.PackageProps
		if !st.run(StageAnalyze, func() (string, error) {
			props = rca.Analyze(pkg)
			return props.Entry.String(), nil
		}) {
			return fr
		}

		var prog *rir.Program
		if !st.run(StageEvaluate, func() (string, error) {
			opts := partialeval.Options{
				Target:            req.Capabilities,
				MaxDepth:          req.MaxCallDepth,
				MaxLoopIterations: req.MaxLoopIterations,
			}
			if req.OnMessage != nil {
				opts.OnMessage = func(msg string) { req.OnMessage(name, msg) }
			}
			p, err := partialeval.PartiallyEvaluate(st.ctx, pkg, props, opts)
			if err != nil {
				return "", err
			}
			prog = p
			return fmt.Sprintf("%d blocks", len(p.Blocks)), nil
		}) {
			return fr
		}

		if !st.run(StageCheck, func() (string, error) {
			if err := rir.Validate(prog); err != nil {
				return "", err
			}
			fr.Program = rir.Renumber(prog)
			return "", rir.Validate(fr.Program)
		}) {
			return fr
		}

		if cacheable {
			storeCache(req, key, pkg.Name, fr.Program, fr.Diagnostics)
		}
	}

	if req.Emit != "" {
		st.run(StageEmit, func() (string, error) {
			base := in.Path
			if base == "" {
				base = pkg.Name
			}
			fr.OutputPath = driver.OutputPath(req.OutputDir, base, req.Emit == "bin")
			return fr.OutputPath, driver.WriteProgram(fr.OutputPath, fr.Program, req.Emit == "bin")
		})
		return fr
	}
	req.emit(Event{File: name, Stage: StageEmit, Status: StatusDone})
	return fr
}

func loadInput(in Input) (*fir.Package, error) {
	if in.Package != nil {
		if err := fir.Check(in.Package); err != nil {
			return nil, err
		}
		return in.Package, nil
	}
	if in.Path == "" {
		return nil, fmt.Errorf("input has neither a path nor a package")
	}
	return driver.LoadPackage(in.Path)
}

func lookupCache(req *Request, key driver.Key) (*rir.Program, bool) {
	if prog, ok := req.Memo.Get(key); ok {
		return prog, true
	}
	prog, ok, err := req.Cache.Get(key)
	if err != nil || !ok {
		return nil, false
	}
	req.Memo.Put(key, prog)
	return prog, true
}

func storeCache(req *Request, key driver.Key, name string, prog *rir.Program, bag *diag.Bag) {
	req.Memo.Put(key, prog)
	if err := req.Cache.Put(key, name, req.Profile, prog); err != nil {
		bag.Add(diag.New(diag.SevWarning, diag.DrvWriteFailed, source.Span{}, "cache write failed: "+err.Error()))
	}
}

// stageRunner times a stage, reports it and turns its error into a
// diagnostic.
type stageRunner struct {
	req *Request
	fr  *FileResult
	ctx context.Context
}

func (s *stageRunner) run(stage Stage, fn func() (string, error)) bool {
	s.req.emit(Event{File: s.fr.Name, Stage: stage, Status: StatusWorking})
	sp := trace.Begin(trace.FromContext(s.ctx), trace.ScopePass, string(stage), trace.CurrentSpan(s.ctx))
	parent := s.ctx
	s.ctx = trace.WithSpan(parent, sp)
	defer func() { s.ctx = parent }()

	end := s.fr.Timer.Begin(string(stage))
	start := time.Now()
	note, err := fn()
	end(note)
	elapsed := time.Since(start)
	if err != nil {
		sp.End("error")
		s.fr.Err = err
		s.fr.Diagnostics.Add(toDiagnostic(stage, err))
		s.req.emit(Event{File: s.fr.Name, Stage: stage, Status: StatusError, Err: err, Elapsed: elapsed})
		return false
	}
	sp.End(note)
	if stage == StageEmit {
		s.req.emit(Event{File: s.fr.Name, Stage: stage, Status: StatusDone, Elapsed: elapsed})
	}
	return true
}

func toDiagnostic(stage Stage, err error) diag.Diagnostic {
	var pe *partialeval.Error
	if errors.As(err, &pe) {
		return pe.Diagnostic()
	}
	code := diag.DrvInvalidProgram
	switch stage {
	case StageLoad:
		code = diag.DrvLoadFailed
	case StageEmit:
		code = diag.DrvWriteFailed
	}
	return diag.New(diag.SevError, code, source.Span{}, err.Error())
}

func (r *Request) emit(ev Event) {
	if r.Progress != nil {
		r.Progress.OnEvent(ev)
	}
}

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageLoad, Status: StatusQueued})
	}
}

func emitOverall(sink ProgressSink, status Status, err error) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: StageEmit, Status: status, Err: err})
}
