package indexing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesense-dev/codesense/domain/relationship"
	"github.com/codesense-dev/codesense/domain/symbol"
	"github.com/codesense-dev/codesense/infrastructure/parsing"
)

const callGraphSample = `package main

func helper() int {
	return 1
}

func caller() int {
	return helper() + unknownFn()
}
`

func TestCallGraphBuilder_ResolvesLocalCallAndCountsUnresolved(t *testing.T) {
	registry := parsing.NewRegistry()
	parser := parsing.NewParser(registry)
	tree, err := parser.Parse(context.Background(), "go", []byte(callGraphSample))
	require.NoError(t, err)
	require.NotNil(t, tree)

	lang, ok := registry.ByName("go")
	require.True(t, ok)

	ix := NewIndexer(registry)
	fs := ix.Extract(1, "sha", "main.go", "go", tree, []byte(callGraphSample))
	require.Len(t, fs.Functions, 2)

	var helperSym, callerSym symbol.Symbol
	for i, fn := range fs.Functions {
		switch fn.Name() {
		case "helper":
			helperSym = fn.WithID(int64(i + 1))
		case "caller":
			callerSym = fn.WithID(int64(i + 100))
		}
	}
	local := []symbol.Symbol{helperSym, callerSym}

	builder := NewCallGraphBuilder()
	result := builder.BuildFile(1, "sha", lang, tree, []byte(callGraphSample), "main.go", local, ImportGraph{}, NewGlobalNameIndex(local))

	require.Len(t, result.Relationships, 1)
	edge := result.Relationships[0]
	assert.Equal(t, relationship.TypeCalls, edge.RelationshipType())
	assert.Equal(t, callerSym.ID(), edge.SourceID())
	assert.Equal(t, helperSym.ID(), edge.TargetID())

	assert.Equal(t, 1, result.UnresolvedCalls)
}

func TestCallGraphBuilder_NilTreeReturnsEmptyResult(t *testing.T) {
	registry := parsing.NewRegistry()
	lang, _ := registry.ByName("go")
	builder := NewCallGraphBuilder()

	result := builder.BuildFile(1, "sha", lang, nil, nil, "main.go", nil, ImportGraph{}, NewGlobalNameIndex(nil))
	assert.Empty(t, result.Relationships)
	assert.Zero(t, result.UnresolvedCalls)
}
