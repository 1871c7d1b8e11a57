package resolver

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/filemonitor/internal/config"
	monerrors "github.com/Aman-CERP/filemonitor/internal/errors"
)

const (
	// Prefix marks an environment variable as a monitor declaration.
	Prefix = "MONITOR"
	// HandlerSuffix names the variable holding a declaration's handler.
	HandlerSuffix = "_HANDLER"
)

// Pair is a validated monitor declaration. Both paths are absolute.
type Pair struct {
	// Name identifies the declaration (variable name or config entry).
	Name        string
	WatchedPath string
	HandlerPath string
}

// Skipped is a declaration dropped during resolution, with every problem
// found for it.
type Skipped struct {
	Name     string
	Problems []*monerrors.MonitorError
}

// Result is the outcome of a resolution.
type Result struct {
	Pairs   []Pair
	Skipped []Skipped
}

// Declaration is an unvalidated monitor declaration.
type Declaration struct {
	Name string
	Path string
	// HandlerName is where the handler came from, used in diagnostics.
	HandlerName string
	Handler     string
	HasHandler  bool
}

// Resolver validates declarations.
type Resolver struct {
	logger *slog.Logger
	access accessChecker
}

// New creates a Resolver that logs diagnostics to logger.
func New(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger, access: systemAccess{}}
}

// IsCandidate reports whether an environment variable name declares a
// monitor.
func IsCandidate(name string) bool {
	if len(name) < len(Prefix) || !strings.EqualFold(name[:len(Prefix)], Prefix) {
		return false
	}
	return !strings.HasSuffix(name, HandlerSuffix)
}

// Declarations lists the monitor declarations in cfg: environment variables
// in name order, then config file entries in file order.
func Declarations(cfg *config.Config) []Declaration {
	var decls []Declaration

	for _, name := range cfg.Env.Names() {
		if !IsCandidate(name) {
			continue
		}
		handlerName := name + HandlerSuffix
		handler, ok := cfg.Env.Lookup(handlerName)
		decls = append(decls, Declaration{
			Name:        name,
			Path:        cfg.Env.Get(name),
			HandlerName: handlerName,
			Handler:     handler,
			HasHandler:  ok,
		})
	}

	for i, m := range cfg.Monitors {
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("monitors[%d]", i)
		}
		decls = append(decls, Declaration{
			Name:        name,
			Path:        m.Path,
			HandlerName: name + ".handler",
			Handler:     m.Handler,
			HasHandler:  m.Handler != "",
		})
	}

	return decls
}

// Resolve validates every declaration in cfg.
func (r *Resolver) Resolve(cfg *config.Config) Result {
	var result Result

	for _, decl := range Declarations(cfg) {
		pair, problems := r.check(decl)
		if len(problems) > 0 {
			result.Skipped = append(result.Skipped, Skipped{Name: decl.Name, Problems: problems})
			r.logger.Warn("Monitor skipped",
				slog.String("monitor", decl.Name),
				slog.Int("problems", len(problems)))
			continue
		}
		result.Pairs = append(result.Pairs, pair)
	}

	return result
}

// check runs the handler and path checks. Both always run so the operator
// sees every problem with a declaration at once.
func (r *Resolver) check(decl Declaration) (Pair, []*monerrors.MonitorError) {
	if !decl.HasHandler {
		err := monerrors.ConfigError(monerrors.ErrCodeHandlerMissing,
			fmt.Sprintf("%s exists with no handler (missing %s)", decl.Name, decl.HandlerName), nil).
			WithDetail("monitor", decl.Name).
			WithSuggestion(fmt.Sprintf("set %s to the handler executable", decl.HandlerName))
		r.report(err)
		return Pair{}, []*monerrors.MonitorError{err}
	}

	var problems []*monerrors.MonitorError

	handler, err := r.checkHandler(decl)
	if err != nil {
		r.report(err)
		problems = append(problems, err)
	}

	watched, err := r.checkWatched(decl)
	if err != nil {
		r.report(err)
		problems = append(problems, err)
	}

	if len(problems) > 0 {
		return Pair{}, problems
	}

	return Pair{Name: decl.Name, WatchedPath: watched, HandlerPath: handler}, nil
}

func (r *Resolver) checkHandler(decl Declaration) (string, *monerrors.MonitorError) {
	handler, absErr := filepath.Abs(decl.Handler)
	if absErr != nil || decl.Handler == "" {
		return "", monerrors.ConfigError(monerrors.ErrCodeHandlerNotExecutable,
			fmt.Sprintf("%s (%s) is not a recognized executable", decl.HandlerName, decl.Handler), absErr).
			WithDetail("monitor", decl.Name)
	}

	info, statErr := os.Stat(handler)
	if statErr == nil && info.IsDir() {
		return "", monerrors.ConfigError(monerrors.ErrCodeHandlerIsDirectory,
			fmt.Sprintf("%s (%s) appears to be a directory, not a script", decl.HandlerName, handler), nil).
			WithDetail("monitor", decl.Name)
	}

	if statErr == nil && info.Mode().IsRegular() {
		statErr = r.access.Executable(handler)
	} else if statErr == nil {
		statErr = fmt.Errorf("%s is not a regular file", handler)
	}

	if statErr != nil {
		return "", monerrors.ConfigError(monerrors.ErrCodeHandlerNotExecutable,
			fmt.Sprintf("%s (%s) is not a recognized executable", decl.HandlerName, handler), statErr).
			WithDetail("monitor", decl.Name).
			WithSuggestion("check the file exists and has execute permissions")
	}

	return handler, nil
}

func (r *Resolver) checkWatched(decl Declaration) (string, *monerrors.MonitorError) {
	watched, err := filepath.Abs(decl.Path)
	if err == nil && decl.Path == "" {
		err = fmt.Errorf("empty path")
	}
	if err == nil {
		err = r.access.Readable(watched)
	}
	if err != nil {
		return "", monerrors.ConfigError(monerrors.ErrCodePathUnreadable,
			fmt.Sprintf("%s cannot be found, or the monitor does not have appropriate permissions", decl.Path), err).
			WithDetail("monitor", decl.Name)
	}
	return watched, nil
}

func (r *Resolver) report(err *monerrors.MonitorError) {
	r.logger.Warn(err.Message, monerrors.LogAttrs(err)...)
}
