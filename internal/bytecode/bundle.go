package bytecode

import (
	"encoding/binary"
	"encoding/json"
	"strconv"

	"yasny/internal/diagnostics"
)

// AppMagic is the fixed 8-byte identifier that opens every application
// bundle, wrapping one bytecode container plus a small metadata header.
var AppMagic = []byte("YASNYAP1")

// AppVersion is the only metadata version this toolchain understands. A
// bundle carrying any other version is rejected outright rather than
// guessed at (spec.md §4.7: "a version mismatch is fatal").
const AppVersion = 1

// Bundle is a named, versioned application: a program's encoded bytecode
// plus the metadata recorded alongside it. Grounded on
// _examples/original_source/build/lib/yasny/app_bundle.py's AppBundle.
type Bundle struct {
	Name     string
	Version  int
	Bytecode []byte
}

type bundleMeta struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// EncodeBundle wraps program's encoded bytecode in an application bundle:
// AppMagic + uint32 metadata length + metadata JSON + uint32 bytecode
// length + the bytecode itself. Mirrors create_bundle's layout exactly.
func EncodeBundle(name string, program *Program) []byte {
	bytecode := Encode(program)
	meta, err := json.Marshal(bundleMeta{Name: name, Version: AppVersion})
	if err != nil {
		panic(diagnostics.NewContainerError("Не удалось сериализовать метаданные приложения: "+err.Error(), ""))
	}

	out := make([]byte, 0, len(AppMagic)+4+len(meta)+4+len(bytecode))
	out = append(out, AppMagic...)
	out = appendUint32(out, uint32(len(meta)))
	out = append(out, meta...)
	out = appendUint32(out, uint32(len(bytecode)))
	out = append(out, bytecode...)
	return out
}

// DecodeBundle parses an application bundle previously produced by
// EncodeBundle and decodes its embedded bytecode into a Program. path is
// used only to annotate error messages and may be empty.
func DecodeBundle(blob []byte, path string) (*Bundle, *Program) {
	if len(blob) < len(AppMagic)+8 {
		panic(diagnostics.NewContainerError("Файл приложения слишком короткий", path))
	}
	for i, b := range AppMagic {
		if blob[i] != b {
			panic(diagnostics.NewContainerError("Некорректная сигнатура файла приложения", path))
		}
	}

	offset := len(AppMagic)
	metaLen := binary.LittleEndian.Uint32(blob[offset : offset+4])
	offset += 4
	if offset+int(metaLen)+4 > len(blob) {
		panic(diagnostics.NewContainerError("Повреждён заголовок метаданных приложения", path))
	}

	var meta bundleMeta
	if err := json.Unmarshal(blob[offset:offset+int(metaLen)], &meta); err != nil {
		panic(diagnostics.NewContainerError("Не удалось разобрать метаданные приложения: "+err.Error(), path))
	}
	offset += int(metaLen)

	bytecodeLen := binary.LittleEndian.Uint32(blob[offset : offset+4])
	offset += 4
	if offset+int(bytecodeLen) != len(blob) {
		panic(diagnostics.NewContainerError("Некорректная длина байткода в приложении", path))
	}
	bytecode := blob[offset : offset+int(bytecodeLen)]

	if meta.Version != AppVersion {
		panic(diagnostics.NewContainerError(
			"Неподдерживаемая версия формата приложения: "+strconv.Itoa(meta.Version)+", ожидается "+strconv.Itoa(AppVersion),
			path))
	}

	name := meta.Name
	if name == "" {
		name = "app"
	}
	return &Bundle{Name: name, Version: meta.Version, Bytecode: bytecode}, Decode(bytecode, path)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}
