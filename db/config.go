package db

import (
	"os"

	"gopkg.in/yaml.v3"
)

// StringLength is the fixed maximum width, in bytes, of a STRING field.
// Like PageSize, it is process-wide and assumed stable for the lifetime of
// any open HeapFile.
var StringLength = 32

// PageSize is the fixed size, in bytes, of every page in every heap file.
// It defaults to 4096 and is process-wide mutable only for test fixtures
// (§4.1) — changing it while a BufferPool holds resident pages produces
// pages whose slot layout no longer matches what was read from disk.
var PageSize = 4096

// Config holds the process-wide options named in §6: page size, buffer
// pool capacity, planner IO cost per page, and histogram bucket count.
type Config struct {
	PageSize           int     `yaml:"pageSize"`
	BufferPoolCapacity int     `yaml:"bufferPoolCapacity"`
	IOCostPerPage      float64 `yaml:"ioCostPerPage"`
	HistogramBuckets   int     `yaml:"histogramBuckets"`
}

// DefaultConfig returns the §6 defaults: 4096-byte pages, 50-page buffer
// pool, 1000-unit IO cost per page, 100 histogram buckets.
func DefaultConfig() *Config {
	return &Config{
		PageSize:           4096,
		BufferPoolCapacity: 50,
		IOCostPerPage:      1000,
		HistogramBuckets:   100,
	}
}

// LoadConfig reads a YAML document at path and overlays it onto
// DefaultConfig, so an omitted field keeps its default rather than
// zeroing out. A missing file is not an error; the defaults are returned
// unchanged, which lets a fresh deployment run with no config file at all.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, &IoError{Op: "read config", Err: err}
	}

	raw := struct {
		PageSize           *int     `yaml:"pageSize"`
		BufferPoolCapacity *int     `yaml:"bufferPoolCapacity"`
		IOCostPerPage      *float64 `yaml:"ioCostPerPage"`
		HistogramBuckets   *int     `yaml:"histogramBuckets"`
	}{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, DBError{MalformedDataError, "config: " + err.Error()}
	}

	if raw.PageSize != nil {
		cfg.PageSize = *raw.PageSize
	}
	if raw.BufferPoolCapacity != nil {
		cfg.BufferPoolCapacity = *raw.BufferPoolCapacity
	}
	if raw.IOCostPerPage != nil {
		cfg.IOCostPerPage = *raw.IOCostPerPage
	}
	if raw.HistogramBuckets != nil {
		cfg.HistogramBuckets = *raw.HistogramBuckets
	}
	return cfg, nil
}

// Apply installs cfg.PageSize as the process-wide PageSize. Callers must
// do this before opening any HeapFile or BufferPool, since page layout is
// derived from PageSize at page-construction time, not read dynamically.
func (c *Config) Apply() {
	PageSize = c.PageSize
}
