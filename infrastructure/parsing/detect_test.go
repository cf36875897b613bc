package parsing

import "testing"

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"pkg/server.py", "python"},
		{"src/App.tsx", "tsx"},
		{"src/App.ts", "typescript"},
		{"src/index.js", "javascript"},
		{"lib/Widget.java", "java"},
		{"vendor/thing.c", "c"},
		{"vendor/thing.cpp", "cpp"},
		{"src/lib.rs", "rust"},
		{"Program.cs", "csharp"},
		{"Dockerfile", "dockerfile"},
		{"nested/Makefile", "make"},
		{"README.md", ""},
		{"image.png", ""},
		{"noext", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := DetectLanguage(tt.path)
			if got != tt.want {
				t.Errorf("DetectLanguage(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
