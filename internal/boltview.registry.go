package internal

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// InternalCompiler mirrors the public TagCompiler interface for internal use.
// The registry only needs the comma separated tag name list.
type InternalCompiler interface {
	TagNames() string
}

// Registry maps lowercased tag names to compilers with first-come-wins
// semantics per name. The first name of a compiler is canonical, the rest are
// aliases. It is thread-safe for concurrent read/write access.
type Registry struct {
	owners   map[string]InternalCompiler
	order    []InternalCompiler
	reserved []string
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewRegistry creates a registry that refuses the reserved names.
func NewRegistry(logger *zap.Logger, reserved ...string) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgRegistryCreated)
	return &Registry{
		owners:   make(map[string]InternalCompiler),
		reserved: reserved,
		logger:   logger,
	}
}

// SplitTagNames splits a comma separated name list into lowercased, trimmed,
// unique names, preserving order.
func SplitTagNames(names string) []string {
	var out []string
	for _, name := range strings.Split(names, TagNameSeparator) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || containsString(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Register claims every free name of the compiler and returns the names it
// got. Names already owned by an earlier compiler, or reserved, are skipped
// with a warning.
func (r *Registry) Register(compiler InternalCompiler) ([]string, error) {
	if compiler == nil {
		return nil, NewRegistryError(ErrMsgNilCompiler, "")
	}

	names := SplitTagNames(compiler.TagNames())
	if len(names) == 0 {
		return nil, NewRegistryError(ErrMsgEmptyTagNames, compiler.TagNames())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var claimed []string
	for _, name := range names {
		if _, exists := r.owners[name]; exists || containsString(r.reserved, name) {
			// First-come-wins: log collision but don't fail
			r.logger.Warn(LogMsgCompilerCollision,
				zap.String(LogFieldTagName, name),
				zap.String(LogFieldCanonical, names[0]),
			)
			continue
		}
		r.owners[name] = compiler
		claimed = append(claimed, name)
	}
	if len(claimed) > 0 {
		r.order = append(r.order, compiler)
	}

	r.logger.Debug(LogMsgCompilerRegistered,
		zap.String(LogFieldCanonical, names[0]),
		zap.Strings(LogFieldClaimed, claimed),
	)
	return claimed, nil
}

// Get retrieves the compiler owning a tag name.
func (r *Registry) Get(name string) (InternalCompiler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	compiler, exists := r.owners[strings.ToLower(name)]
	return compiler, exists
}

// Has checks if a compiler owns the given tag name.
func (r *Registry) Has(name string) bool {
	_, exists := r.Get(name)
	return exists
}

// Names returns every claimed name, longest first so that a name which is a
// prefix of another is tried after it.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.owners))
	for name := range r.owners {
		names = append(names, name)
	}
	SortByLength(names)
	return names
}

// Compilers returns the registered compilers in registration order.
func (r *Registry) Compilers() []InternalCompiler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]InternalCompiler, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered compilers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// SortByLength orders names longest first, ties alphabetically.
func SortByLength(names []string) {
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
}

// RegistryError represents a registry operation error
type RegistryError struct {
	Message string
	TagName string
}

// NewRegistryError creates a new registry error
func NewRegistryError(message, tagName string) *RegistryError {
	return &RegistryError{
		Message: message,
		TagName: tagName,
	}
}

// Error implements the error interface
func (e *RegistryError) Error() string {
	if e.TagName != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.TagName)
	}
	return e.Message
}

// Registry error message constants
const (
	ErrMsgNilCompiler   = "tag compiler cannot be nil"
	ErrMsgEmptyTagNames = "tag compiler must name at least one tag"
)

// Registry log constants
const (
	LogMsgRegistryCreated    = "compiler registry created"
	LogMsgCompilerRegistered = "tag compiler registered"
	LogMsgCompilerCollision  = "tag name already claimed, skipping"

	LogFieldTagName   = "tag_name"
	LogFieldCanonical = "canonical"
	LogFieldClaimed   = "claimed"
)

// TagNameSeparator separates a compiler's canonical name from its aliases.
const TagNameSeparator = ","
