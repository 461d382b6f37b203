package hclust

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/andrew-torda/sugarclust/pkg/distmat"
)

// Names of the outputs for k clusters with a method.
func ClustersName(k int, m Method) string { return prefix(k, m) + "_all_clusters.json" }

func RepresentativesName(k int, m Method) string {
	return prefix(k, m) + "_cluster_representatives.json"
}

func AveragesName(k int, m Method) string { return prefix(k, m) + "_average_rmsds.csv" }
func LinkageName(k int, m Method) string  { return prefix(k, m) + "_linkage.tsv" }
func NewickName(k int, m Method) string   { return prefix(k, m) + ".nwk" }

func prefix(k int, m Method) string { return strconv.Itoa(k) + "_" + string(m) }

// Options for one clustering.
type Options struct {
	K      int
	Method Method
	Dir    string // where the outputs go
	Log    *zap.Logger
}

// Result of Run.
type Result struct {
	Linkage    *Linkage
	Clustering *Clustering
	Summaries  []Summary
	Fewer      bool // the cut gave fewer than K clusters
}

// Run clusters the matrix, writes everything to opts.Dir and returns what
// it wrote. Bad options are reported before any work is done.
func Run(d *distmat.Matrix, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := ParseMethod(string(opts.Method)); err != nil {
		return nil, err
	}
	if opts.K < 1 || opts.K > d.N() {
		return nil, fmt.Errorf("%w: %d clusters from %d sites", ErrTooManyClusters, opts.K, d.N())
	}
	lk, err := Link(d, opts.Method)
	if err != nil {
		return nil, err
	}
	cl, err := lk.Cut(opts.K)
	if err != nil {
		return nil, err
	}
	res := &Result{Linkage: lk, Clustering: cl}
	if got := cl.K(); got < opts.K {
		res.Fewer = true
		log.Warn("tied heights, fewer clusters than asked for", zap.Int("asked", opts.K), zap.Int("got", got))
	}
	if res.Summaries, err = Representatives(d, cl); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}
	if err := res.write(opts); err != nil {
		return nil, err
	}
	log.Info("clustered", zap.String("method", string(opts.Method)), zap.Int("sites", d.N()),
		zap.Int("clusters", cl.K()), zap.Float64("max_height", lk.MaxHeight()))
	return res, nil
}

func (res *Result) write(opts Options) error {
	k, m := opts.K, opts.Method
	reps := make(map[int]int, len(res.Summaries))
	for _, s := range res.Summaries {
		reps[s.Label] = s.Representative
	}
	files := []struct {
		name string
		f    func(io.Writer) error
	}{
		{ClustersName(k, m), func(w io.Writer) error { return writeLabelMap(w, res.Clustering.Members()) }},
		{RepresentativesName(k, m), func(w io.Writer) error { return writeLabelMap(w, reps) }},
		{AveragesName(k, m), func(w io.Writer) error { return WriteAverages(w, res.Summaries) }},
		{LinkageName(k, m), res.Linkage.WriteTSV},
		{NewickName(k, m), res.Linkage.WriteNewick},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(opts.Dir, f.name), f.f); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(fname string, f func(io.Writer) error) error {
	fp, err := os.Create(fname)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(fp)
	if err := f(w); err != nil {
		fp.Close()
		return fmt.Errorf("%s: %w", fname, err)
	}
	if err := w.Flush(); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}

// writeLabelMap writes {"1": ..., "2": ...} with the labels in numeric
// order, which encoding/json would not do for map keys.
func writeLabelMap[V any](w io.Writer, m map[int]V) error {
	var buf bytes.Buffer
	buf.WriteString("{")
	for l := 1; l <= len(m); l++ {
		v, ok := m[l]
		if !ok {
			return fmt.Errorf("%w: label %d", ErrEmptyCluster, l)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if l > 1 {
			buf.WriteString(",")
		}
		fmt.Fprintf(&buf, "\n    \"%d\": %s", l, b)
	}
	buf.WriteString("\n}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

var averageComments = []string{
	"# intra_avg_rmsd: Average RMSD of the representative surroundings with other surroundings in the respective cluster",
	"# inter_avg_rmsd: Average RMSD between the representative surroundings",
}

// WriteAverages writes the table of representatives and their averages.
func WriteAverages(w io.Writer, sums []Summary) error {
	cw := csv.NewWriter(w)
	for _, c := range averageComments {
		if err := cw.Write([]string{c}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"cluster", "intra_avg_rmsd", "inter_avg_rmsd"}); err != nil {
		return err
	}
	for _, s := range sums {
		if err := cw.Write([]string{strconv.Itoa(s.Label), ftoa(s.Intra), ftoa(s.Inter)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }

// WriteTSV writes the linkage one merge per line, like scipy's Z.
func (lk *Linkage) WriteTSV(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# %s %d\n", lk.Method, lk.N); err != nil {
		return err
	}
	for _, m := range lk.Merges {
		if _, err := fmt.Fprintf(w, "%d\t%d\t%s\t%d\n", m.A, m.B, ftoa(m.Height), m.Count); err != nil {
			return err
		}
	}
	return nil
}

// WriteNewick writes the tree with identities as leaf names. A branch is
// as long as the height difference to its parent.
func (lk *Linkage) WriteNewick(w io.Writer) error {
	var buf bytes.Buffer
	var rec func(node int, parent float64)
	rec = func(node int, parent float64) {
		if l, r, ok := lk.Children(node); ok {
			buf.WriteByte('(')
			rec(l, lk.Height(node))
			buf.WriteByte(',')
			rec(r, lk.Height(node))
			buf.WriteByte(')')
		} else {
			buf.WriteString(strconv.Itoa(node))
		}
		if node != lk.Root() {
			buf.WriteByte(':')
			buf.WriteString(ftoa(parent - lk.Height(node)))
		}
	}
	rec(lk.Root(), 0)
	buf.WriteString(";\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// ReadClusters reads an all_clusters file back into a Clustering.
func ReadClusters(fname string) (*Clustering, error) {
	buf, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	var m map[string][]int
	if err := json.Unmarshal(buf, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	n := 0
	for _, ids := range m {
		n += len(ids)
	}
	labels := make([]int, n)
	for key, ids := range m {
		l, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%s: label %q: %w", fname, key, err)
		}
		for _, id := range ids {
			if id < 0 || id >= n || labels[id] != 0 {
				return nil, fmt.Errorf("%s: identity %d is out of range or in two clusters", fname, id)
			}
			labels[id] = l
		}
	}
	return NewClustering(labels)
}

// ReadRepresentatives reads a representatives file, label to identity.
func ReadRepresentatives(fname string) (map[int]int, error) {
	buf, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	var m map[string]int
	if err := json.Unmarshal(buf, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	ret := make(map[int]int, len(m))
	for key, id := range m {
		l, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%s: label %q: %w", fname, key, err)
		}
		ret[l] = id
	}
	return ret, nil
}
