package verso

import (
	"log/slog"

	"github.com/aretw0/verso/internal/platform"
	"github.com/aretw0/verso/pkg/core"
	"github.com/aretw0/verso/pkg/merge"
)

// --- Types ---

type (
	Service     = core.Service
	Store       = core.Store
	Author      = core.Author
	Revision    = core.Revision
	Change      = core.Change
	ChangeKind  = core.ChangeKind
	TimeRange   = core.TimeRange
	SearchQuery = core.SearchQuery
	SearchMatch = core.SearchMatch
	Entry       = core.Entry
	MergeInfo   = core.MergeInfo
	Event       = core.Event
	EventType   = core.EventType
	Chunk       = merge.Chunk
)

const (
	EventCreate = core.EventCreate
	EventModify = core.EventModify
	EventDelete = core.EventDelete
)

// Errors reported by every store. Compare with errors.Is.
var (
	ErrNotFound            = core.ErrNotFound
	ErrResourceExists      = core.ErrResourceExists
	ErrRepositoryExists    = core.ErrRepositoryExists
	ErrIllegalResourceName = core.ErrIllegalResourceName
	ErrUnchanged           = core.ErrUnchanged
	ErrIllegalAuthor       = core.ErrIllegalAuthor
	ErrUnknown             = core.ErrUnknown
)

// --- Configuration ---

// Option defines a functional option for configuring verso.
type Option = platform.Option

// WithAutoInit creates the store (directory and git repository) on open when missing.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithHook installs the post-update hook so pushes into the store refresh its files.
func WithHook(install bool) Option {
	return platform.WithHook(install)
}

// WithBinary sets the git executable.
func WithBinary(path string) Option {
	return platform.WithBinary(path)
}

// WithLockName sets the name of the write lock inside .git.
func WithLockName(name string) Option {
	return platform.WithLockName(name)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety toggles the temp-dir sandbox applied under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithLogger sets the logger for the store and the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore allows injecting a custom backend.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithEventBuffer sets the capacity of Watch channels.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithWatcherErrorHandler receives errors raised inside the Watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New opens the store at path and returns a Service over it.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init creates a store at path explicitly.
func Init(path string, opts ...Option) (core.Store, error) {
	return platform.Init(path, opts...)
}

// Open returns the existing store at path.
func Open(path string, opts ...Option) (core.Store, error) {
	return platform.Open(path, opts...)
}

// --- Safety & Utils ---

// ConfigFileName is the optional per-store CLI configuration file.
const ConfigFileName = platform.ConfigFileName

// ResolveStorePath determines the actual path for the store based on safety rules.
func ResolveStorePath(userPath string, forceTemp bool) string {
	return platform.ResolveStorePath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindStoreRoot looks upwards from startDir for a store root.
func FindStoreRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// --- Change descriptions ---

const (
	CommitTypeFeat     = platform.CommitTypeFeat
	CommitTypeFix      = platform.CommitTypeFix
	CommitTypeDocs     = platform.CommitTypeDocs
	CommitTypeStyle    = platform.CommitTypeStyle
	CommitTypeRefactor = platform.CommitTypeRefactor
	CommitTypePerf     = platform.CommitTypePerf
	CommitTypeTest     = platform.CommitTypeTest
	CommitTypeChore    = platform.CommitTypeChore
)

// FormatChangeReason builds a Conventional Commit style description.
func FormatChangeReason(ctype, scope, subject, body string) string {
	return platform.FormatChangeReason(ctype, scope, subject, body)
}

// Operation is the kind of write a change description records.
type Operation = platform.Operation

const (
	OpCreate = platform.OpCreate
	OpUpdate = platform.OpUpdate
	OpDelete = platform.OpDelete
	OpRename = platform.OpRename
)

// DescribeChange builds a description for op on paths, taking the change
// type from the operation when ctype is empty.
func DescribeChange(op Operation, ctype, scope, subject string, paths ...string) string {
	return platform.DescribeChange(op, ctype, scope, subject, paths...)
}

// AppendFooter appends the verso footer to an arbitrary description.
func AppendFooter(msg string) string {
	return platform.AppendFooter(msg)
}
