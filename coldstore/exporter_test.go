package coldstore

import (
	"testing"

	"github.com/ndlib/repoarchive/util"
)

// throttledReader is a thin io.ReadSeeker shim over a RateCounter; this
// exercises it directly rather than standing up a fake S3 endpoint, which
// the rest of the export path has no unit-testable surface without one.
func TestThrottledReaderPassesThroughReads(t *testing.T) {
	rate := util.NewRateCounter(1 << 20)
	defer rate.Stop()

	src := &seekableBuffer{data: []byte("cold storage payload")}
	tr := &throttledReader{r: src, rate: rate}

	buf := make([]byte, len(src.data))
	n, err := tr.Read(buf)
	if err != nil {
		t.Fatalf("Read: %s", err)
	}
	if string(buf[:n]) != "cold storage payload" {
		t.Errorf("Read = %q, want %q", buf[:n], "cold storage payload")
	}

	if _, err := tr.Seek(0, 0); err != nil {
		t.Fatalf("Seek: %s", err)
	}
}

type seekableBuffer struct {
	data []byte
	pos  int
}

func (b *seekableBuffer) Read(p []byte) (int, error) {
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}

func (b *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	b.pos = int(offset)
	return offset, nil
}
