package shell

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Limits are the Go-side values derived from Runtime.
type Limits struct {
	// MemoryLimit is the soft heap limit in bytes; -1 means unlimited.
	MemoryLimit int64 `json:"memory_limit"`
	// RequestTimeout bounds one request; 0 means no bound.
	RequestTimeout  time.Duration  `json:"request_timeout"`
	MaxRequestBytes int64          `json:"max_request_bytes"`
	MaxUploadBytes  int64          `json:"max_upload_bytes"`
	MaxFileUploads  int            `json:"max_file_uploads"`
	Location        *time.Location `json:"-"`
}

// ParseSize parses sizes like "512M", "20m", "1G" or "1024". "-1" means unlimited.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty size")
	}
	if s == "-1" {
		return -1, nil
	}
	mult := int64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1 << 10
	case 'm', 'M':
		mult = 1 << 20
	case 'g', 'G':
		mult = 1 << 30
	}
	if mult > 1 {
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}

// Limits validates rt and converts it.
func (rt Runtime) Limits() (Limits, error) {
	var l Limits
	var err error
	if l.MemoryLimit, err = ParseSize(rt.MemoryLimit); err != nil {
		return Limits{}, fmt.Errorf("memory_limit: %w", err)
	}
	if l.MaxRequestBytes, err = ParseSize(rt.PostMaxSize); err != nil {
		return Limits{}, fmt.Errorf("post_max_size: %w", err)
	}
	if l.MaxUploadBytes, err = ParseSize(rt.UploadMaxFilesize); err != nil {
		return Limits{}, fmt.Errorf("upload_max_filesize: %w", err)
	}
	if l.MaxRequestBytes > 0 && l.MaxUploadBytes > l.MaxRequestBytes {
		l.MaxUploadBytes = l.MaxRequestBytes
	}
	if rt.MaxFileUploads < 0 {
		return Limits{}, errors.New("max_file_uploads: must be non-negative")
	}
	l.MaxFileUploads = rt.MaxFileUploads
	if rt.MaxExecutionTime < 0 {
		return Limits{}, errors.New("max_execution_time: must be non-negative")
	}
	l.RequestTimeout = rt.MaxExecutionTime
	if cs := rt.DefaultCharset; cs != "" && !strings.EqualFold(cs, "UTF-8") && !strings.EqualFold(cs, "UTF8") {
		return Limits{}, fmt.Errorf("default_charset: only UTF-8 is supported, got %q", cs)
	}
	l.Location = time.Local
	if rt.Timezone != "" {
		loc, err := time.LoadLocation(rt.Timezone)
		if err != nil {
			return Limits{}, fmt.Errorf("timezone: %w", err)
		}
		l.Location = loc
	}
	return l, nil
}

// ApplyRuntime installs rt's memory limit and time zone for the process.
func ApplyRuntime(rt Runtime) (Limits, error) {
	l, err := rt.Limits()
	if err != nil {
		return Limits{}, err
	}
	if l.MemoryLimit > 0 {
		debug.SetMemoryLimit(l.MemoryLimit)
	}
	time.Local = l.Location
	return l, nil
}
