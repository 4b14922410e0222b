package util

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestHashWriter(t *testing.T) {
	const input = "readme.txt contents: hello archive world 0123456789"
	goalMD5, _ := hex.DecodeString("899f97e9a5c5ad057a8a8ea7376c9bc1")
	goalSHA256, _ := hex.DecodeString("f8e5145b5b22ca2b3b7b8ae5c0e221bea19069fb8ffb1faac8c60c93c9788f59")

	w := new(bytes.Buffer)
	hw := NewHashWriter(w)
	dohashtest(t, hw, input, goalMD5, goalSHA256)
	if w.String() != input {
		t.Fatalf("underlying writer got %q, want %q", w.String(), input)
	}

	w.Reset()
	md5Only := NewMD5Writer(w)
	dohashtest(t, md5Only, input, goalMD5, nil)

	plain := NewHashWriterPlain()
	dohashtest(t, plain, input, goalMD5, goalSHA256)
}

func dohashtest(t *testing.T, hw *HashWriter, input string, goalmd5, goalsha256 []byte) {
	t.Helper()
	hw.Write([]byte(input))
	if got, ok := hw.CheckMD5(goalmd5); !ok {
		t.Fatalf("CheckMD5: got %x, want %x", got, goalmd5)
	}
	if got, ok := hw.CheckSHA256(goalsha256); !ok {
		t.Fatalf("CheckSHA256: got %x, want %x", got, goalsha256)
	}
}
