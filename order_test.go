package docmerge

import (
	"reflect"
	"testing"
)

func namedFiles(names ...string) []InputFile {
	files := make([]InputFile, len(names))
	for i, n := range names {
		files[i] = InputFile{OriginalName: n}
	}
	return files
}

func orderedNames(files []InputFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.OriginalName
	}
	return names
}

func TestResolveOrder(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		order []string
		want  []string
	}{
		{
			name:  "no order keeps upload order",
			files: []string{"a.txt", "b.txt", "c.txt"},
			want:  []string{"a.txt", "b.txt", "c.txt"},
		},
		{
			name:  "named files come first",
			files: []string{"a.txt", "b.txt", "c.txt"},
			order: []string{"c.txt"},
			want:  []string{"c.txt", "a.txt", "b.txt"},
		},
		{
			name:  "full reorder",
			files: []string{"a.txt", "b.txt", "c.txt"},
			order: []string{"c.txt", "a.txt", "b.txt"},
			want:  []string{"c.txt", "a.txt", "b.txt"},
		},
		{
			name:  "unknown names are ignored",
			files: []string{"a.txt", "b.txt"},
			order: []string{"missing.txt", "b.txt"},
			want:  []string{"b.txt", "a.txt"},
		},
		{
			name:  "duplicate file names claim first unused match",
			files: []string{"dup.txt", "dup.txt", "other.txt"},
			order: []string{"dup.txt", "dup.txt"},
			want:  []string{"dup.txt", "dup.txt", "other.txt"},
		},
		{
			name:  "duplicate order entry beyond available matches is ignored",
			files: []string{"dup.txt", "other.txt"},
			order: []string{"dup.txt", "dup.txt"},
			want:  []string{"dup.txt", "other.txt"},
		},
		{
			name:  "empty files",
			files: nil,
			order: []string{"a.txt"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := namedFiles(tt.files...)
			got := orderedNames(ResolveOrder(files, tt.order))

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestResolveOrder_DoesNotMutateInput(t *testing.T) {
	files := namedFiles("a.txt", "b.txt", "c.txt")
	_ = ResolveOrder(files, []string{"c.txt"})

	if got := orderedNames(files); !reflect.DeepEqual(got, []string{"a.txt", "b.txt", "c.txt"}) {
		t.Errorf("input slice was mutated: %v", got)
	}
}

func TestResolveOrder_Idempotent(t *testing.T) {
	files := namedFiles("a.txt", "b.txt", "c.txt", "d.txt")
	order := []string{"d.txt", "b.txt"}

	once := ResolveOrder(files, order)
	twice := ResolveOrder(once, order)

	if !reflect.DeepEqual(orderedNames(once), orderedNames(twice)) {
		t.Errorf("resolution is not idempotent: %v vs %v", orderedNames(once), orderedNames(twice))
	}
}

func TestResolveOrder_Deterministic(t *testing.T) {
	files := namedFiles("a.txt", "b.txt", "c.txt", "a.txt")
	order := []string{"a.txt", "c.txt"}

	first := orderedNames(ResolveOrder(files, order))
	for i := 0; i < 10; i++ {
		if got := orderedNames(ResolveOrder(files, order)); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestGroupByType(t *testing.T) {
	files := []InputFile{
		{OriginalName: "a.txt", Type: FileTypeText},
		{OriginalName: "b.pdf", Type: FileTypePDF},
		{OriginalName: "c.txt", Type: FileTypeText},
	}

	groups := GroupByType(files)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if got := orderedNames(groups[FileTypeText]); !reflect.DeepEqual(got, []string{"a.txt", "c.txt"}) {
		t.Errorf("text group lost relative order: %v", got)
	}
	if len(groups[FileTypePDF]) != 1 {
		t.Errorf("expected 1 pdf, got %d", len(groups[FileTypePDF]))
	}
}
