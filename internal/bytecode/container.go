package bytecode

import (
	"encoding/binary"
	"encoding/json"

	"yasny/internal/diagnostics"
)

// Magic is the fixed 8-byte identifier that opens every bytecode container.
var Magic = []byte("YASNYBC1")

// Encode serializes program as: Magic + little-endian uint32 payload length
// + the JSON payload itself. The payload is byte-stable for the same
// program since Go's encoding/json emits map keys in sorted order.
func Encode(program *Program) []byte {
	raw, err := json.Marshal(program)
	if err != nil {
		panic(diagnostics.NewContainerError("Не удалось сериализовать байткод: "+err.Error(), ""))
	}
	out := make([]byte, 0, len(Magic)+4+len(raw))
	out = append(out, Magic...)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(raw)))
	out = append(out, lenBuf[:]...)
	out = append(out, raw...)
	return out
}

// Decode parses a bytecode container previously produced by Encode. path is
// used only to annotate error messages and may be empty.
func Decode(blob []byte, path string) *Program {
	if len(blob) < len(Magic)+4 {
		panic(diagnostics.NewContainerError("Файл байткода слишком короткий", path))
	}
	for i, b := range Magic {
		if blob[i] != b {
			panic(diagnostics.NewContainerError("Неверная сигнатура файла байткода", path))
		}
	}
	length := binary.LittleEndian.Uint32(blob[len(Magic) : len(Magic)+4])
	payload := blob[len(Magic)+4:]
	if int(length) != len(payload) {
		panic(diagnostics.NewContainerError("Некорректная длина полезной нагрузки байткода", path))
	}
	var program Program
	if err := json.Unmarshal(payload, &program); err != nil {
		panic(diagnostics.NewContainerError("Не удалось разобрать байткод: "+err.Error(), path))
	}
	return &program
}
