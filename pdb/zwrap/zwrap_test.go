// Test Zwrap
package zwrap_test

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/andrew-torda/sugarclust/pdb/zwrap"
)

const msg = "ATOM      1  N   ALA A   1\n"

// gzipped returns msg compressed
func gzipped(t *testing.T) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(msg)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// writeToTmp writes a byte slice to a file in a temporary directory
// and returns the name.
func writeToTmp(t *testing.T, data []byte) string {
	fname := filepath.Join(t.TempDir(), "del_me_testing")
	if err := os.WriteFile(fname, data, 0644); err != nil {
		t.Fatal("fail writing to tempfile", err)
	}
	return fname
}

func TestWrap(t *testing.T) {
	fname := writeToTmp(t, []byte(msg))
	fp, _ := os.Open(fname)
	if _, err := zwrap.Wrap(fp); err == nil {
		t.Error("Wrap should fail on uncompressed file")
	}
	fp.Close()

	fname = writeToTmp(t, gzipped(t))
	fp, _ = os.Open(fname)
	r, err := zwrap.Wrap(fp)
	if err != nil {
		t.Fatal("Fail on correctly gzipped file", err)
	}
	b, err := io.ReadAll(r)
	if err != nil || string(b) != msg {
		t.Errorf("wrong string: %q err %v", b, err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Error closing: %s", err)
	}
}

// Calling Open should not fail since it guesses if the file
// is compressed or not.
func TestOpen(t *testing.T) {
	var openTests = []struct {
		data       []byte
		compressed bool
	}{
		{[]byte(msg), false},
		{gzipped(t), true},
	}
	for _, x := range openTests {
		r, err := zwrap.Open(writeToTmp(t, x.data))
		if err != nil {
			t.Fatalf("Fail on file where compressed was %v", x.compressed)
		}
		if r.Compressed() != x.compressed {
			t.Error("compressed is", r.Compressed(), "wanted", x.compressed)
		}
		b, err := io.ReadAll(r)
		if err != nil || string(b) != msg {
			t.Errorf("wrong string: %q err %v", b, err)
		}
		if err := r.Close(); err != nil {
			t.Errorf("Error closing: %s", err)
		}
	}
	if _, err := zwrap.Open("/does/not/exist"); err == nil {
		t.Error("no error opening missing file")
	}
}
