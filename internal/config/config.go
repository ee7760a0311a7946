// Package config loads the pipeline file.
//
// A pipeline file is YAML. It is checked twice: structurally against the
// embedded CUE schema, which reports constraint violations with their
// paths, and semantically by Validate.
package config

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/leapcal/internal/calendar"
)

//go:embed schema.cue
var schemaSource string

// Fade modes.
const (
	FadeAstronomical = "astronomical"
	FadeParabola     = "parabola"
	FadeNone         = "none"
)

// Config is a pipeline file.
type Config struct {
	Sources        SourcesConfig   `yaml:"sources"`
	ProjectionDays int             `yaml:"projection_days"`
	ExpirationDays int             `yaml:"expiration_days"`
	Fade           string          `yaml:"fade"`
	Overrides      OverridesConfig `yaml:"overrides"`
	Range          RangeConfig     `yaml:"range"`
	Bounds         BoundsConfig    `yaml:"bounds"`
	Comments       []string        `yaml:"comments"`
	Output         OutputConfig    `yaml:"output"`
	Store          string          `yaml:"store"`
	Metrics        string          `yaml:"metrics"`
	CrossCheck     bool            `yaml:"crosscheck"`
	Publish        PublishConfig   `yaml:"publish"`
}

// SourcesConfig names the input files. Only Historical is required.
type SourcesConfig struct {
	Historical      string `yaml:"historical"`
	USNOPredictions string `yaml:"usno_predictions"`
	USNORecords     string `yaml:"usno_records"`
	BulletinA       string `yaml:"bulletin_a"`
	IERSFinals      string `yaml:"iers_finals"`
	// BulletinC, when set, decides the expiration date.
	BulletinC string `yaml:"bulletin_c"`
}

// OverridesConfig selects which official leap second lists replace the
// synthesized days in their windows.
type OverridesConfig struct {
	Finch bool `yaml:"finch"`
	IERS  bool `yaml:"iers"`
}

// RangeConfig limits the scan. Empty means the extent of the timeline.
type RangeConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// BoundsConfig sets the interval outside which ΔTAI is clamped.
type BoundsConfig struct {
	Lower string `yaml:"lower"`
	Upper string `yaml:"upper"`
}

// OutputConfig names the files a build writes. Empty entries are skipped.
type OutputConfig struct {
	Table       string `yaml:"table"`
	CSV         string `yaml:"csv"`
	LaTeXDeltaT string `yaml:"latex_delta_t"`
	UT1UTC      string `yaml:"ut1utc"`
}

// PublishConfig is the S3 target of the publish command.
type PublishConfig struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Key       string `yaml:"key"`
	PathStyle bool   `yaml:"path_style"`
}

// Default returns a Config with every optional value set.
func Default() *Config {
	return &Config{
		ProjectionDays: 1000,
		ExpirationDays: 180,
		Fade:           FadeAstronomical,
		Overrides:      OverridesConfig{Finch: true, IERS: true},
		Bounds:         BoundsConfig{Lower: "-2000-01-01", Upper: "2500-01-01"},
		Publish:        PublishConfig{Key: "leap_seconds.tab"},
	}
}

// Validate checks the values the schema cannot express.
func (c *Config) Validate() error {
	if c.Sources.Historical == "" {
		return errors.New("sources.historical is required")
	}
	if c.ProjectionDays < 0 {
		return fmt.Errorf("projection_days must not be negative, got %d", c.ProjectionDays)
	}
	if c.ExpirationDays <= 0 {
		return fmt.Errorf("expiration_days must be positive, got %d", c.ExpirationDays)
	}
	switch c.Fade {
	case FadeAstronomical, FadeParabola, FadeNone:
	default:
		return fmt.Errorf("fade must be %q, %q or %q, got %q", FadeAstronomical, FadeParabola, FadeNone, c.Fade)
	}

	lower, upper, err := c.BoundDays()
	if err != nil {
		return err
	}
	if lower >= upper {
		return fmt.Errorf("bounds.lower %s must precede bounds.upper %s", lower, upper)
	}

	start, end, err := c.RangeDays()
	if err != nil {
		return err
	}
	if start != 0 && end != 0 && start >= end {
		return fmt.Errorf("range.start %s must precede range.end %s", start, end)
	}
	return nil
}

// BoundDays parses the clamp bounds.
func (c *Config) BoundDays() (calendar.Day, calendar.Day, error) {
	lower, err := calendar.ParseISO(c.Bounds.Lower)
	if err != nil {
		return 0, 0, fmt.Errorf("bounds.lower: %w", err)
	}
	upper, err := calendar.ParseISO(c.Bounds.Upper)
	if err != nil {
		return 0, 0, fmt.Errorf("bounds.upper: %w", err)
	}
	return lower, upper, nil
}

// RangeDays parses the scan range. An empty entry is returned as 0.
func (c *Config) RangeDays() (calendar.Day, calendar.Day, error) {
	var start, end calendar.Day
	var err error
	if c.Range.Start != "" {
		if start, err = calendar.ParseISO(c.Range.Start); err != nil {
			return 0, 0, fmt.Errorf("range.start: %w", err)
		}
	}
	if c.Range.End != "" {
		if end, err = calendar.ParseISO(c.Range.End); err != nil {
			return 0, 0, fmt.Errorf("range.end: %w", err)
		}
	}
	return start, end, nil
}

// Load reads, schema-checks and validates a pipeline file. Relative paths
// in the file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	c.resolve(filepath.Dir(path))
	c.ApplyEnv()
	return c, nil
}

// ApplyEnv overrides the publish target from LEAPCAL_S3_* variables. Load
// calls it; commands that run without a pipeline file call it on Default.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.LookupEnv)
}

// applyEnv lets the S3 target be set from the environment so that a
// checked-in pipeline file does not need deployment details.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	for key, dst := range map[string]*string{
		"LEAPCAL_S3_BUCKET":   &c.Publish.Bucket,
		"LEAPCAL_S3_REGION":   &c.Publish.Region,
		"LEAPCAL_S3_ENDPOINT": &c.Publish.Endpoint,
		"LEAPCAL_S3_KEY":      &c.Publish.Key,
	} {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("LEAPCAL_S3_PATH_STYLE"); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Publish.PathStyle = b
		}
	}
}

// Parse decodes and validates a pipeline document. Unset values keep
// their defaults.
func Parse(data []byte) (*Config, error) {
	if err := checkSchema(data); err != nil {
		return nil, err
	}

	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func checkSchema(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(doc))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

func (c *Config) resolve(dir string) {
	for _, p := range []*string{
		&c.Sources.Historical,
		&c.Sources.USNOPredictions,
		&c.Sources.USNORecords,
		&c.Sources.BulletinA,
		&c.Sources.IERSFinals,
		&c.Sources.BulletinC,
		&c.Output.Table,
		&c.Output.CSV,
		&c.Output.LaTeXDeltaT,
		&c.Output.UT1UTC,
		&c.Store,
		&c.Metrics,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Hash returns a digest of the effective configuration, used to tell runs
// apart in the store.
func (c *Config) Hash() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
