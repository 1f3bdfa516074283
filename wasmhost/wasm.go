// Package wasmhost hosts the WASM plugin backend (spec §4.I): a
// compiled module exposing get_name/get_version/get_file_extension/
// alloc/generate is loaded once, and a fresh instance is spun up per
// Generate call for isolation.
package wasmhost

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/aeolun/json5"
	"github.com/rs/zerolog/log"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/anthropics/dezzy/backend"
	"github.com/anthropics/dezzy/lir"
)

// Backend wraps one compiled WASM module. It implements backend.Backend.
type Backend struct {
	runtime       wazero.Runtime
	compiled      wazero.CompiledModule
	name          string
	version       string
	fileExtension string
}

// Load compiles wasmBytes (path is used only in error messages) and
// reads the module's static metadata (name/version/file extension) once
// via a throwaway instance. The compiled module is kept for later
// per-call instantiation.
func Load(ctx context.Context, path string, wasmBytes []byte) (*Backend, error) {
	runtime := wazero.NewRuntime(ctx)

	compiled, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("wasmhost: compiling %s: %w", path, err)
	}

	b := &Backend{runtime: runtime, compiled: compiled}

	mod, err := runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("wasmhost: instantiating %s for metadata: %w", path, err)
	}
	defer mod.Close(ctx)

	b.name, err = callStringExport(ctx, mod, "get_name")
	if err != nil {
		runtime.Close(ctx)
		return nil, err
	}
	b.version, err = callStringExport(ctx, mod, "get_version")
	if err != nil {
		runtime.Close(ctx)
		return nil, err
	}
	b.fileExtension, err = callStringExport(ctx, mod, "get_file_extension")
	if err != nil {
		runtime.Close(ctx)
		return nil, err
	}

	log.Debug().Str("plugin", b.name).Str("version", b.version).Msg("wasmhost: loaded plugin module")
	return b, nil
}

// Name reports the plugin's own registered backend name, not the file
// path it was loaded from.
func (b *Backend) Name() string { return b.name }

// Close releases the underlying wazero runtime and every module compiled
// against it.
func (b *Backend) Close(ctx context.Context) error {
	return b.runtime.Close(ctx)
}

// Generate instantiates a fresh copy of the module, serializes format to
// the canonical JSON5 exchange form, and drives the alloc/write/generate/
// read-back sequence described in spec §4.I.
func (b *Backend) Generate(format *lir.Format) (*backend.GeneratedCode, error) {
	ctx := context.Background()

	mod, err := b.runtime.InstantiateModule(ctx, b.compiled, wazero.NewModuleConfig())
	if err != nil {
		return nil, fmt.Errorf("wasmhost: instantiating %s: %w", b.name, err)
	}
	defer mod.Close(ctx)

	payload, err := json5.Marshal(toExchange(format))
	if err != nil {
		return nil, fmt.Errorf("wasmhost: marshaling exchange form: %w", err)
	}

	alloc := mod.ExportedFunction("alloc")
	if alloc == nil {
		return nil, &Error{Kind: MissingExport, Export: "alloc"}
	}
	allocResult, err := alloc.Call(ctx, uint64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("wasmhost: calling alloc: %w", err)
	}
	if len(allocResult) != 1 {
		return nil, &Error{Kind: BadReturnShape, Export: "alloc", Message: "expected a single i32 pointer"}
	}
	ptr := uint32(allocResult[0])

	mem := mod.Memory()
	if mem == nil {
		return nil, &Error{Kind: MemoryFault, Export: "memory", Message: "module exports no linear memory"}
	}
	if !mem.Write(ptr, payload) {
		return nil, &Error{Kind: MemoryFault, Export: "alloc", Message: "pointer out of bounds for payload write"}
	}

	generate := mod.ExportedFunction("generate")
	if generate == nil {
		return nil, &Error{Kind: MissingExport, Export: "generate"}
	}
	genResult, err := generate.Call(ctx, uint64(ptr), uint64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("wasmhost: calling generate: %w", err)
	}
	if len(genResult) != 1 {
		return nil, &Error{Kind: BadReturnShape, Export: "generate", Message: "expected a single packed pointer+length"}
	}

	outPtr, outLen := unpackPointerLength(genResult[0])
	data, ok := mem.Read(outPtr, outLen)
	if !ok {
		return nil, &Error{Kind: MemoryFault, Export: "generate", Message: "returned pointer+length out of bounds"}
	}
	if !utf8.Valid(data) {
		return nil, &Error{Kind: BadUtf8, Export: "generate"}
	}

	return &backend.GeneratedCode{
		Files: []backend.GeneratedFile{
			{Path: format.Name + "." + b.fileExtension, Content: string(data)},
		},
	}, nil
}

func callStringExport(ctx context.Context, mod api.Module, name string) (string, error) {
	fn := mod.ExportedFunction(name)
	if fn == nil {
		return "", &Error{Kind: MissingExport, Export: name}
	}
	result, err := fn.Call(ctx)
	if err != nil {
		return "", fmt.Errorf("wasmhost: calling %s: %w", name, err)
	}
	if len(result) != 1 {
		return "", &Error{Kind: BadReturnShape, Export: name, Message: "expected a single packed pointer+length"}
	}

	mem := mod.Memory()
	if mem == nil {
		return "", &Error{Kind: MemoryFault, Export: name, Message: "module exports no linear memory"}
	}
	ptr, length := unpackPointerLength(result[0])
	data, ok := mem.Read(ptr, length)
	if !ok {
		return "", &Error{Kind: MemoryFault, Export: name, Message: "returned pointer+length out of bounds"}
	}
	if !utf8.Valid(data) {
		return "", &Error{Kind: BadUtf8, Export: name}
	}
	return string(data), nil
}

// unpackPointerLength splits a packed i64 into its 32-bit pointer (low
// word) and 32-bit length (high word), the ABI every plugin export uses
// for variable-length return values.
func unpackPointerLength(packed uint64) (uint32, uint32) {
	return uint32(packed), uint32(packed >> 32)
}
