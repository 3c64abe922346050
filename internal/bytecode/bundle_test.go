package bytecode

import "testing"

func sampleProgram() *Program {
	entry := &Function{
		Name:         "<entry>",
		Instructions: []Instruction{{Op: OpHalt}},
	}
	return NewProgram(map[string]*Function{}, entry, 0)
}

func TestEncodeDecodeBundleRoundTrips(t *testing.T) {
	prog := sampleProgram()
	blob := EncodeBundle("моё_приложение", prog)

	bundle, decoded := DecodeBundle(blob, "")
	if bundle.Name != "моё_приложение" {
		t.Fatalf("got name %q", bundle.Name)
	}
	if bundle.Version != AppVersion {
		t.Fatalf("got version %d, want %d", bundle.Version, AppVersion)
	}
	if len(decoded.Functions) != 0 || decoded.Entry.Name != "<entry>" {
		t.Fatalf("decoded program mismatch: %+v", decoded)
	}
}

func TestDecodeBundleRejectsBadMagic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a bad magic prefix")
		}
	}()
	DecodeBundle([]byte("NOTYASNY"+"\x00\x00\x00\x00\x00\x00\x00\x00"), "")
}

func TestDecodeBundleRejectsVersionMismatch(t *testing.T) {
	prog := sampleProgram()
	blob := EncodeBundle("app", prog)

	// Corrupt the version field inside the metadata JSON: find the
	// ASCII digit '1' that follows `"version":` and bump it. Simpler to
	// just re-encode with a hand-built mismatched blob.
	badMeta := []byte(`{"name":"app","version":99}`)
	out := make([]byte, 0)
	out = append(out, AppMagic...)
	out = appendUint32(out, uint32(len(badMeta)))
	out = append(out, badMeta...)
	bytecodeBlob := blob[len(blob)-len(Encode(prog)):]
	out = appendUint32(out, uint32(len(bytecodeBlob)))
	out = append(out, bytecodeBlob...)

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a version mismatch")
		}
	}()
	DecodeBundle(out, "")
}
