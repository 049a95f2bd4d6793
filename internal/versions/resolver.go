package versions

import (
	"fmt"

	"github.com/0xa1bed0/extver/internal/fsops"
	"github.com/0xa1bed0/extver/internal/logs"
)

// Logger receives the resolver's diagnostics. logs.Facade satisfies it.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// Resolver lists version directories and selects one per base path. It
// holds no state between calls: every call lists the directory again.
type Resolver struct {
	ops fsops.Ops
	log Logger
}

type Option func(*Resolver)

// WithOps sets the filesystem the resolver reads from.
func WithOps(ops fsops.Ops) Option {
	return func(r *Resolver) { r.ops = ops }
}

// WithLogger sets where fallback warnings go.
func WithLogger(l Logger) Option {
	return func(r *Resolver) { r.log = l }
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		ops: fsops.DefaultOps(),
		log: logs.Facade{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolution is the outcome of resolving one base path.
type Resolution struct {
	BasePath string
	Request  Request
	Version  Candidate
	// Path is BasePath joined with the selected version directory.
	Path string
	// Fallback is set when every available version was above the request
	// and the oldest one was used instead.
	Fallback bool
}

// ListAvailable returns the versions found directly under basePath, highest
// first. Entries that are not directories or whose names are not numbers
// are skipped. The result may be empty.
func (r *Resolver) ListAvailable(basePath string) ([]Candidate, error) {
	names, err := r.ops.Dir.ReadDirNames(basePath)
	if err != nil {
		return nil, fmt.Errorf("list versions in %s: %w", basePath, err)
	}

	available := make([]Candidate, 0, len(names))
	for _, name := range names {
		c, ok := ParseCandidate(name)
		if !ok {
			continue
		}
		isDir, err := r.ops.Dir.IsDir(r.ops.Path.Join(basePath, name))
		if err != nil {
			r.log.Debugf("skipping %s in %s: %v", name, basePath, err)
			continue
		}
		if !isDir {
			continue
		}
		available = append(available, c)
	}

	SortDescending(available)
	return available, nil
}

// Select returns the version to use under basePath for requested, which is
// "latest" or anything ParseRequest accepts. It picks the highest version
// not above the request. When every version is above it, the oldest one is
// returned and a warning is logged.
func (r *Resolver) Select(basePath string, requested any) (Candidate, error) {
	res, err := r.resolve(basePath, requested)
	if err != nil {
		return Candidate{}, err
	}
	return res.Version, nil
}

// ResolvePaths resolves every base path in order and returns the selected
// version directories, one per input. The first failure aborts the batch.
func (r *Resolver) ResolvePaths(basePaths []string, requested any) ([]string, error) {
	resolutions, err := r.ResolveAll(basePaths, requested)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(resolutions))
	for i, res := range resolutions {
		paths[i] = res.Path
	}
	return paths, nil
}

// ResolveAll is ResolvePaths returning the full resolution per path.
func (r *Resolver) ResolveAll(basePaths []string, requested any) ([]Resolution, error) {
	out := make([]Resolution, 0, len(basePaths))
	for i, basePath := range basePaths {
		res, err := r.resolve(basePath, requested)
		if err != nil {
			return nil, fmt.Errorf("resolve %s (path #%d): %w", basePath, i, err)
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *Resolver) resolve(basePath string, requested any) (Resolution, error) {
	available, err := r.ListAvailable(basePath)
	if err != nil {
		return Resolution{}, err
	}
	if len(available) == 0 {
		return Resolution{}, emptyVersionSetError(basePath)
	}

	req, err := ParseRequest(requested)
	if err != nil {
		return Resolution{}, err
	}

	selected, fallback := pick(available, req)
	if fallback {
		r.log.Warnf("No compatible extension version found for galaxy_version '%s' in %s. "+
			"Using oldest available version '%s' for compatibility.", req, basePath, selected)
	}
	r.log.Debugf("%s: requested %s, available %v, selected %s", basePath, req, available, selected)

	return Resolution{
		BasePath: basePath,
		Request:  req,
		Version:  selected,
		Path:     r.ops.Path.Join(basePath, selected.String()),
		Fallback: fallback,
	}, nil
}
