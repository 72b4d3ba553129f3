package config

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

var (
	// DefaultBaseDirectoryPath is where stride stores configuration,
	// logs and the archive cache. It defaults to $STRIDE_BASE if set,
	// otherwise to $HOME/lib/stride. Commands override this via the
	// -base flag.
	DefaultBaseDirectoryPath string

	// DefaultTimeoutSeconds and DefaultGraceSeconds are the soft and
	// hard deadlines (§4.5) applied when the config file and the -timeout/
	// -grace flags leave them unset.
	DefaultTimeoutSeconds = 60
	DefaultGraceSeconds   = 10
)

func init() {
	if base := os.Getenv("STRIDE_BASE"); base != "" {
		DefaultBaseDirectoryPath = base
	} else {
		DefaultBaseDirectoryPath = os.ExpandEnv("$HOME/lib/stride")
	}
}

// C holds STRIDE's configuration, loaded from a base directory.
type C struct {
	// Parallelism is the worker count for the task executor (§4.5).
	// Zero means "default to runtime.NumCPU()".
	Parallelism int

	// TimeoutSeconds and GraceSeconds are the soft and hard per-task
	// deadlines (§4.5, §6).
	TimeoutSeconds int
	GraceSeconds   int

	// NoInjectEnv disables injecting STRIDE_INSTANCE_PATH/STRIDE_TIMEOUT/
	// STRIDE_GRACE into the solver's environment (§4.5 step 2).
	NoInjectEnv bool

	// KeepLogs preserves Valid task directories instead of removing them
	// after the record is written (§4.5 step 6).
	KeepLogs bool

	// Offline disables the server client (C7) entirely (§4.7).
	Offline bool

	// Paranoid is read from the "paranoid" key but consulted by no
	// command: stride check takes the strict-whitespace parser mode
	// (§4.2) from its own -paranoid flag, and stride run never uses it.
	Paranoid bool

	// Archive storage backend: "disk", "s3", or "null". Defaults to
	// "null" (equivalent to running fully offline) when unset.
	Archive string

	// These only make sense if Archive == "s3".
	S3Region string
	S3Bucket string
	S3Profile string

	// Local archive cache directory for the "disk" and "s3" backends;
	// see ArchiveCacheDirectoryPath. If relative, resolved relative to
	// the base directory.
	DiskArchiveDir string

	// ServerURL is the base URL of the central repository's HTTP API.
	// It is parsed from the config file; no archive backend reads it.
	ServerURL string

	// base is the directory holding the config file and derived paths.
	base string
}

// Load loads the configuration from the file called "config" in the
// provided base directory. Missing optional fields are defaulted.
func Load(base string) (*C, error) {
	filename := filepath.Join(base, "config")
	f, err := os.Open(filename)
	if os.IsNotExist(err) {
		c := &C{base: base}
		c.applyDefaults()
		return c, nil
	}
	if err != nil {
		return nil, errorf("Load", "open %q: %v", filename, err)
	}
	defer func() {
		_ = f.Close()
	}()
	c, err := load(f)
	if err != nil {
		return nil, err
	}
	c.base = base
	if c.DiskArchiveDir != "" && !filepath.IsAbs(c.DiskArchiveDir) {
		c.DiskArchiveDir = filepath.Clean(filepath.Join(c.base, c.DiskArchiveDir))
	}
	c.applyDefaults()
	return c, nil
}

func (c *C) applyDefaults() {
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.NumCPU()
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.GraceSeconds <= 0 {
		c.GraceSeconds = DefaultGraceSeconds
	}
	if c.Archive == "" {
		c.Archive = "null"
	}
}

func load(f io.Reader) (*C, error) {
	c := C{}
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		i := strings.IndexAny(line, " \t")
		if i == -1 {
			return nil, errorf("load", "no separator in %q", line)
		}
		switch key, val := line[:i], strings.TrimSpace(line[i:]); key {
		case "parallelism":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, errorf("load", "parallelism: %v", err)
			}
			c.Parallelism = n
		case "timeout-seconds":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, errorf("load", "timeout-seconds: %v", err)
			}
			c.TimeoutSeconds = n
		case "grace-seconds":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, errorf("load", "grace-seconds: %v", err)
			}
			c.GraceSeconds = n
		case "no-inject-env":
			c.NoInjectEnv = val == "true"
		case "keep-logs":
			c.KeepLogs = val == "true"
		case "offline":
			c.Offline = val == "true"
		case "paranoid":
			c.Paranoid = val == "true"
		case "archive":
			c.Archive = val
		case "s3-region":
			c.S3Region = val
		case "s3-bucket":
			c.S3Bucket = val
		case "s3-profile":
			c.S3Profile = val
		case "disk-archive-dir":
			c.DiskArchiveDir = val
		case "server-url":
			c.ServerURL = val
		default:
			return nil, errorf("load", "unknown key %q", key)
		}
	}
	if err := s.Err(); err != nil {
		return nil, errorf("load", "scan: %v", err)
	}
	return &c, nil
}

// BaseDirectoryPath returns the directory this configuration was loaded
// from.
func (c *C) BaseDirectoryPath() string {
	return c.base
}

// ArchiveCacheDirectoryPath is the fast local cache used by the "disk"
// archive backend and, ahead of the slow remote store, by "s3".
func (c *C) ArchiveCacheDirectoryPath() string {
	if c.DiskArchiveDir != "" {
		return c.DiskArchiveDir
	}
	return filepath.Join(c.base, "archive-cache")
}

// LogRootPath is where run directories (stride-logs/run_<DATE>_<TIME>/)
// are created (§3).
func (c *C) LogRootPath() string {
	return filepath.Join(c.base, "stride-logs")
}

// Initialize generates an initial configuration file at the given base
// directory.
func Initialize(baseDir string) error {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return errorf("Initialize", "mkdir %q: %v", baseDir, err)
	}
	path := filepath.Join(baseDir, "config")
	if _, err := os.Stat(path); err == nil {
		return errorf("Initialize", "%q already exists", path)
	} else if !os.IsNotExist(err) {
		return errorf("Initialize", "stat %q: %v", path, err)
	}
	var buf strings.Builder
	buf.WriteString("archive null\n")
	buf.WriteString("timeout-seconds 60\n")
	buf.WriteString("grace-seconds 10\n")
	if err := os.WriteFile(path, []byte(buf.String()), 0600); err != nil {
		return errorf("Initialize", "write %q: %v", path, err)
	}
	return nil
}
