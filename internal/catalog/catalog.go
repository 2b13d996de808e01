package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/avionix/bite-engine/internal/models"
)

// Entry describes one fault code: what it means, how severe it is, and the
// maintenance action it calls for.
type Entry struct {
	Code           models.FaultCode `yaml:"code" json:"code"`
	Description    string           `yaml:"description" json:"description"`
	Severity       models.Severity  `yaml:"severity" json:"severity"`
	Recommendation string           `yaml:"recommendation" json:"recommendation"`
}

// Catalog maps fault codes to entries. Loaded once at startup, never mutated.
type Catalog struct {
	entries map[models.FaultCode]Entry
}

// catalogFile is the YAML root structure for an override pack.
type catalogFile struct {
	Entries []Entry `yaml:"entries"`
}

var builtinEntries = []Entry{
	{Code: models.CodeOutOfRange, Description: "Sensor Out-of-Range", Severity: models.SeverityHigh, Recommendation: "Replace sensor or verify wiring."},
	{Code: models.CodeIntermittent, Description: "Intermittent Signal", Severity: models.SeverityMedium, Recommendation: "Inspect connectors; run continuity test."},
	{Code: models.CodeStuck, Description: "Stuck at Value", Severity: models.SeverityHigh, Recommendation: "Replace sensor; check power rails."},
	{Code: models.CodeDrift, Description: "Drift Detected", Severity: models.SeverityLow, Recommendation: "Calibrate sensor; monitor for progression."},
	{Code: models.CodeNoisy, Description: "Noisy Signal", Severity: models.SeverityLow, Recommendation: "Check shielding; apply filtering."},
	{Code: models.CodeOK, Description: "All OK", Severity: models.SeverityNone, Recommendation: "No action required."},
}

// Builtin returns the default fault catalog.
func Builtin() *Catalog {
	return fromEntries(builtinEntries)
}

// Load reads a catalog pack from the provided path. An empty or missing path
// yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Builtin(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Builtin(), nil
		}
		return nil, err
	}
	var cfg catalogFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Entries) == 0 {
		return nil, fmt.Errorf("catalog %s contains no entries", path)
	}
	for i, e := range cfg.Entries {
		if e.Code == "" || e.Description == "" || e.Severity == "" {
			return nil, fmt.Errorf("catalog %s entry %d missing code, description, or severity", path, i)
		}
	}
	return fromEntries(cfg.Entries), nil
}

func fromEntries(entries []Entry) *Catalog {
	c := &Catalog{entries: make(map[models.FaultCode]Entry, len(entries))}
	for _, e := range entries {
		c.entries[e.Code] = e
	}
	return c
}

// Lookup returns the entry for code. Unknown codes resolve to a safe
// placeholder rather than failing; the classifier should never emit one.
func (c *Catalog) Lookup(code models.FaultCode) Entry {
	if e, ok := c.entries[code]; ok {
		return e
	}
	return Entry{Code: code, Description: "Unknown", Severity: models.SeverityUnknown}
}

// Entries returns all catalog entries in no particular order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}
