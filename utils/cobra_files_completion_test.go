package utils

import (
	"os"
	"slices"
	"testing"

	"github.com/spf13/cobra"
)

func TestCompleteFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"w3wp.hprof", "dump.JSON", "notes.txt", "app.log.1", ".hidden.yaml"} {
		if err := os.WriteFile(dir+"/"+name, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(dir+"/dumps", 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	complete := CompleteFilesByExtension([]string{".json", ".hprof", ".log"})
	got, directive := complete(&cobra.Command{}, nil, "")

	want := []string{"dump.JSON", "dumps/", "w3wp.hprof"}
	if !slices.Equal(got, want) {
		t.Errorf("suggestions = %v, want %v", got, want)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v", directive)
	}
}
