package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Layout says where the files for one sugar and one run go.
//
//	{results}/motif_based_search/{SUGAR}/{run}/raw_surroundings
//	{results}/motif_based_search/{SUGAR}/{run}/filtered_surroundings
//	{results}/motif_based_search/{SUGAR}/{run}/clusters/{strategy}
//	{images}/surroundings/{SUGAR}/{run}/dendrograms
//	{data}/{data run}/sugars
type Layout struct {
	Sugar   string
	Run     string
	DataRun string
	cfg     *Config
}

const searchDir = "motif_based_search"

// SearchRoot is the directory holding one subdirectory per sugar.
func (c *Config) SearchRoot() string { return filepath.Join(c.ResultsDir, searchDir) }

// Layout picks the run for a sugar. An explicit run wins. Otherwise
// the newest timestamped run of the sugar is used if ReuseLatest is set,
// and a new one is named after now if there is none.
func (c *Config) Layout(sugar string, now time.Time) (*Layout, error) {
	if sugar == "" {
		return nil, fmt.Errorf("layout: no sugar")
	}
	l := &Layout{Sugar: sugar, Run: c.Run, DataRun: c.DataRun, cfg: c}
	if l.Run == "" && c.ReuseLatest {
		run, err := NewestRun(filepath.Join(c.SearchRoot(), sugar))
		if err != nil {
			return nil, err
		}
		l.Run = run
	}
	if l.Run == "" {
		l.Run = now.Format(RunFormat)
	}
	if l.DataRun == "" {
		run, err := NewestRun(c.DataDir)
		if err != nil {
			return nil, err
		}
		l.DataRun = run
	}
	if l.DataRun == "" {
		l.DataRun = l.Run
	}
	return l, nil
}

// NewestRun returns the newest subdirectory of dir whose name is a run
// timestamp, or "" if there is none. A missing dir is not an error.
func NewestRun(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("looking for runs: %w", err)
	}
	newest := ""
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := time.Parse(RunFormat, e.Name()); err != nil {
			continue
		}
		if e.Name() > newest {
			newest = e.Name()
		}
	}
	return newest, nil
}

func (l *Layout) RunDir() string {
	return filepath.Join(l.cfg.SearchRoot(), l.Sugar, l.Run)
}
func (l *Layout) RawSurroundings() string {
	return filepath.Join(l.RunDir(), "raw_surroundings")
}
func (l *Layout) FilteredSurroundings() string {
	return filepath.Join(l.RunDir(), "filtered_surroundings")
}
func (l *Layout) Clusters() string { return filepath.Join(l.RunDir(), "clusters") }

// StrategyDir is where the matrix and clusterings of one alignment
// strategy are written.
func (l *Layout) StrategyDir(strategy string) string {
	return filepath.Join(l.Clusters(), strategy)
}

// KeysFile maps identities to refined file names.
func (l *Layout) KeysFile() string {
	return filepath.Join(l.Clusters(), l.Sugar+"_structures_keys.json")
}

// Representatives is where representative sites are copied for the
// structure motif search.
func (l *Layout) Representatives() string {
	return filepath.Join(l.RunDir(), "structure_motif_search", "input_representatives")
}

func (l *Layout) Dendrograms() string {
	return filepath.Join(l.cfg.ImagesDir, "surroundings", l.Sugar, l.Run, "dendrograms")
}
func (l *Layout) Tanglegrams() string {
	return filepath.Join(l.cfg.ImagesDir, "surroundings", l.Sugar, l.Run, "tanglegrams")
}

// Sugars is the cache of downloaded reference ligands.
func (l *Layout) Sugars() string { return filepath.Join(l.cfg.DataDir, l.DataRun, "sugars") }

func (l *Layout) LogFile() string { return filepath.Join(l.RunDir(), l.Run+".log") }
