package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	monerrors "github.com/Aman-CERP/filemonitor/internal/errors"
)

// Environment is a snapshot of environment variables taken once at startup.
// It is read by the resolver to discover monitor declarations and passed
// unmodified to every handler invocation.
type Environment struct {
	vars map[string]string
}

// FromEnviron builds an Environment from "KEY=value" entries as returned by
// os.Environ. Entries without a name are ignored.
func FromEnviron(environ []string) Environment {
	vars := make(map[string]string, len(environ))
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		vars[key] = value
	}
	return Environment{vars: vars}
}

// Current snapshots the process environment.
func Current() Environment {
	return FromEnviron(os.Environ())
}

// NewEnvironment builds an Environment from a map. The map is copied.
func NewEnvironment(vars map[string]string) Environment {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	return Environment{vars: copied}
}

// Lookup returns the value of name and whether it is set.
func (e Environment) Lookup(name string) (string, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Get returns the value of name, or "" when unset.
func (e Environment) Get(name string) string {
	return e.vars[name]
}

// Len returns the number of variables.
func (e Environment) Len() int {
	return len(e.vars)
}

// Names returns all variable names in sorted order.
func (e Environment) Names() []string {
	names := make([]string, 0, len(e.vars))
	for k := range e.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Environ renders the environment as sorted "KEY=value" entries, the form
// expected by exec.Cmd.Env.
func (e Environment) Environ() []string {
	names := e.Names()
	out := make([]string, 0, len(names))
	for _, k := range names {
		out = append(out, k+"="+e.vars[k])
	}
	return out
}

// WithDefaults returns a new Environment containing e plus every entry of
// defaults whose name is not already set in e.
func (e Environment) WithDefaults(defaults map[string]string) Environment {
	merged := make(map[string]string, len(e.vars)+len(defaults))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range e.vars {
		merged[k] = v
	}
	return Environment{vars: merged}
}

// LoadEnvFile reads a dotenv file and merges it under env: variables already
// present in env win over the file. A missing file is an error because the
// operator asked for it explicitly.
func LoadEnvFile(env Environment, path string) (Environment, error) {
	fileVars, err := godotenv.Read(path)
	if err != nil {
		return env, monerrors.New(monerrors.ErrCodeEnvFileInvalid,
			fmt.Sprintf("unable to load environment file (%s)", path), err).
			WithDetail("path", path)
	}
	return env.WithDefaults(fileVars), nil
}
