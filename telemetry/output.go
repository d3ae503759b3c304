package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
)

// ConfigWriter is anything that can snapshot itself as YAML.
type ConfigWriter interface {
	WriteYAML(path string) error
}

// csvFile appends records to one CSV file, writing the header once.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir      string
	runID    string
	progress csvFile
	layers   csvFile
	perf     csvFile
}

// NewOutputManager creates a fresh run directory under root and opens the
// CSV files in it. Returns nil if root is empty (output disabled).
func NewOutputManager(root string) (*OutputManager, error) {
	if root == "" {
		return nil, nil
	}

	runID := uuid.NewString()
	dir := filepath.Join(root, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, runID: runID}
	for _, out := range []struct {
		name string
		dst  *csvFile
	}{
		{"progress.csv", &om.progress},
		{"layers.csv", &om.layers},
		{"perf.csv", &om.perf},
	} {
		f, err := os.Create(filepath.Join(dir, out.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", out.name, err)
		}
		out.dst.f = f
	}

	return om, nil
}

// WriteConfig saves the run configuration as YAML.
func (om *OutputManager) WriteConfig(cfg ConfigWriter) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteProgress appends a progress record to progress.csv.
func (om *OutputManager) WriteProgress(r ProgressRecord) error {
	if om == nil {
		return nil
	}
	if err := om.progress.write([]ProgressRecord{r}); err != nil {
		return fmt.Errorf("writing progress: %w", err)
	}
	return nil
}

// WriteLayer appends a finished layer summary to layers.csv.
func (om *OutputManager) WriteLayer(s LayerSummary) error {
	if om == nil {
		return nil
	}
	if err := om.layers.write([]LayerSummary{s}); err != nil {
		return fmt.Errorf("writing layer summary: %w", err)
	}
	return nil
}

// WritePerf appends a performance record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, layer, iteration int) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(layer, iteration)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// Dir returns the run directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// RunID returns the generated run identifier.
func (om *OutputManager) RunID() string {
	if om == nil {
		return ""
	}
	return om.runID
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, c := range []*csvFile{&om.progress, &om.layers, &om.perf} {
		if c.f == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
