// Go to a pdb website and download the definition of a ligand.
// Everything we fetch is kept on disk, so a site is only visited
// the first time a ligand is wanted.

package pdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultLigandSites are tried in order. The ligand code and ".cif" are
// appended to each.
var DefaultLigandSites = []string{
	"https://files.rcsb.org/ligands/download/",
	"https://www.ebi.ac.uk/pdbe/static/files/pdbechem_v2/",
}

var ligandCode = regexp.MustCompile(`^[A-Z0-9]{1,3}$|^[A-Z0-9]{5}$`)

// LigandFetcher gets component dictionary files for ligands and keeps
// them as {Dir}/{CODE}.cif.
type LigandFetcher struct {
	Dir    string
	Sites  []string     // if empty, DefaultLigandSites
	Client *http.Client // if nil, http.DefaultClient
}

// Path is where the file for a ligand lives, whether or not it
// has been downloaded.
func (lf *LigandFetcher) Path(code string) string {
	return filepath.Join(lf.Dir, strings.ToUpper(code)+".cif")
}

// Fetch returns the name of the file with the ligand definition,
// downloading it if we do not have it yet.
func (lf *LigandFetcher) Fetch(ctx context.Context, code string) (string, error) {
	code = strings.ToUpper(code)
	if !ligandCode.MatchString(code) {
		return "", fmt.Errorf("ligand code %q is not 1-3 or 5 letters and digits", code)
	}
	fname := lf.Path(code)
	if _, err := os.Stat(fname); err == nil {
		return fname, nil
	}
	if err := os.MkdirAll(lf.Dir, 0o755); err != nil {
		return "", err
	}
	sites := lf.Sites
	if len(sites) == 0 {
		sites = DefaultLigandSites
	}
	var errs []error
	for _, site := range sites {
		err := lf.getOne(ctx, site+code+".cif", fname)
		if err == nil {
			return fname, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("fetching ligand %s: %w", code, errors.Join(errs...))
}

// getOne downloads a url into fname. We write to a temporary file and
// rename, so a half finished download never looks like a cached file.
func (lf *LigandFetcher) getOne(ctx context.Context, url, fname string) error {
	client := lf.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wanted %s, got %s", url, resp.Status)
	}
	tmp, err := os.CreateTemp(lf.Dir, ".ligand-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // fails harmlessly after the rename
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fname)
}
