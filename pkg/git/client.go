package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultBinary is the executable looked up on PATH.
const DefaultBinary = "git"

// Client wraps git command execution with a file-based lock for process safety.
type Client struct {
	WorkDir  string
	Binary   string
	Logger   *slog.Logger
	lockName string
}

// NewClient creates a new git client for the given working directory.
// The lock file lives inside the repository's .git directory.
func NewClient(workDir, lockName string, logger *slog.Logger) *Client {
	if lockName == "" {
		lockName = "verso.lock"
	}
	return &Client{
		WorkDir:  workDir,
		Binary:   DefaultBinary,
		Logger:   logger,
		lockName: lockName,
	}
}

// IsInstalled checks if git is available in the system path.
func IsInstalled() bool {
	_, err := exec.LookPath(DefaultBinary)
	return err == nil
}

// IsRepo reports whether WorkDir already holds a repository.
func (c *Client) IsRepo() bool {
	_, err := os.Stat(filepath.Join(c.WorkDir, ".git"))
	return err == nil
}

// CommandError reports a git invocation that exited unsuccessfully.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	name := ""
	if len(e.Args) > 0 {
		name = e.Args[0]
	}
	return fmt.Sprintf("git %s failed (exit %d): %s", name, e.ExitCode, strings.TrimSpace(e.Stderr))
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode extracts the exit status carried by err, or -1.
func ExitCode(err error) int {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return -1
}

// Stderr extracts the standard error text carried by err.
func Stderr(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return strings.TrimSpace(cmdErr.Stderr)
	}
	return ""
}

// Lock acquires the repository lock file. It blocks until the lock is
// acquired or ctx is done.
func (c *Client) Lock(ctx context.Context) (func(), error) {
	fullLockPath := filepath.Join(c.WorkDir, ".git", c.lockName)
	delay := 5 * time.Millisecond

	for {
		f, err := os.OpenFile(fullLockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return func() {
				os.Remove(fullLockPath)
			}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to acquire lock: %w", ctx.Err())
		case <-time.After(delay):
		}
		if delay < 100*time.Millisecond {
			delay *= 2
		}
	}
}

// Run executes a raw git command in the working directory and returns its
// standard output untouched.
// NOTE: It does NOT acquire the lock. Writers must hold Client.Lock().
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	return c.RunWithEnv(ctx, nil, args...)
}

// RunWithEnv is Run with extra environment entries (KEY=value).
func (c *Client) RunWithEnv(ctx context.Context, env []string, args ...string) (string, error) {
	if c.Logger != nil {
		c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)
	}

	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Dir = c.WorkDir
	cmd.Env = append(os.Environ(), "LC_ALL=C", "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("git %s interrupted: %w", args[0], ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), &CommandError{
				Args:     args,
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
				Err:      err,
			}
		}
		return "", fmt.Errorf("git %s could not run: %w", args[0], err)
	}

	return stdout.String(), nil
}

// Init initializes a new git repository in WorkDir.
func (c *Client) Init(ctx context.Context) error {
	_, err := c.Run(ctx, "init", "--quiet")
	return err
}

// Add adds files to the stage.
func (c *Client) Add(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	_, err := c.Run(ctx, args...)
	return err
}

// Rm removes files from the working tree and from the index.
func (c *Client) Rm(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"rm", "-q", "-f", "--"}, files...)
	_, err := c.Run(ctx, args...)
	return err
}

// Mv renames a tracked file.
func (c *Client) Mv(ctx context.Context, from, to string) error {
	_, err := c.Run(ctx, "mv", "--", from, to)
	return err
}

// Commit records the given paths only, attributed to name/email as both
// author and committer.
func (c *Client) Commit(ctx context.Context, name, email, msg string, paths ...string) error {
	env := []string{
		"GIT_AUTHOR_NAME=" + name,
		"GIT_AUTHOR_EMAIL=" + email,
		"GIT_COMMITTER_NAME=" + name,
		"GIT_COMMITTER_EMAIL=" + email,
	}
	args := []string{"commit", "--quiet", "--no-verify", "--allow-empty-message", "-m", msg}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	_, err := c.RunWithEnv(ctx, env, args...)
	return err
}

// Status returns the porcelain status of the repo, limited to paths when
// any are given. Empty means clean.
func (c *Client) Status(ctx context.Context, paths ...string) (string, error) {
	args := []string{"status", "--porcelain", "--untracked-files=all"}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	out, err := c.Run(ctx, args...)
	return strings.TrimSpace(out), err
}
