package backend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anthropics/dezzy/lir"
)

type stubBackend struct {
	name string
}

func (s stubBackend) Name() string { return s.name }

func (s stubBackend) Generate(format *lir.Format) (*GeneratedCode, error) {
	return &GeneratedCode{Files: []GeneratedFile{{Path: format.Name, Content: s.name}}}, nil
}

func TestRegistryRegisterAndGenerate(t *testing.T) {
	r := NewRegistry()
	r.Register(stubBackend{name: "go"})

	out, err := r.Generate("go", &lir.Format{Name: "sample"})
	require.NoError(t, err)
	require.Equal(t, "sample", out.Files[0].Path)
	require.Equal(t, "go", out.Files[0].Content)
}

func TestRegistryGenerateUnknownBackend(t *testing.T) {
	r := NewRegistry()
	_, err := r.Generate("missing", &lir.Format{})
	require.Error(t, err)
	var be *Error
	require.ErrorAs(t, err, &be)
	require.Equal(t, NotFound, be.Kind)
}

func TestRegistryLastWriteWins(t *testing.T) {
	r := NewRegistry()
	first := &stubBackend{name: "go"}
	second := &stubBackend{name: "go"}
	r.Register(first)
	r.Register(second)

	require.Equal(t, []string{"go"}, r.Names())
	got, ok := r.Get("go")
	require.True(t, ok)
	require.Same(t, second, got)
}
