package parsing

import (
	"context"
	"testing"
)

func TestParse_UnsupportedLanguageReturnsNilTree(t *testing.T) {
	p := NewParser(NewRegistry())
	tree, err := p.Parse(context.Background(), "dockerfile", []byte("FROM scratch"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree != nil {
		t.Fatal("expected nil tree for unsupported language")
	}
}

func TestParse_BinaryContentReturnsNilTree(t *testing.T) {
	p := NewParser(NewRegistry())
	binary := append([]byte("package main\n"), 0x00, 0x01, 0x02)
	tree, err := p.Parse(context.Background(), "go", binary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree != nil {
		t.Fatal("expected nil tree for binary content")
	}
}

func TestParse_ValidGoSource(t *testing.T) {
	p := NewParser(NewRegistry())
	source := []byte("package main\n\nfunc main() {}\n")
	tree, err := p.Parse(context.Background(), "go", source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree == nil || tree.RootNode() == nil {
		t.Fatal("expected a parsed tree for valid go source")
	}
}
