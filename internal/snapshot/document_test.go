package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const yamlDump = `dump: w3wp.dmp
threads:
  - id: 12
    frames:
      - function: Microsoft.SharePoint.SPListItemCollection.EnsureListItemsData
        address: 4096
      - function: System.Web.HttpRuntime.ProcessRequest
        address: 8192
    objects:
      - type: Microsoft.SharePoint.SPListItemCollection
        fields:
          m_Query:
            m_strViewXml: "<View><RowLimit>10</RowLimit></View>"
            m_strQuery: ""
  - id: 13
    frames: []
`

const jsonDump = `{
  "threads": [
    {"id": 1, "frames": [{"function": "a.b", "address": 1}],
     "objects": [{"type": "X", "fields": {"inner": {"name": "n", "count": 3}}}]}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestOpenYAML(t *testing.T) {
	snap, err := Open(writeFile(t, "dump.yaml", yamlDump))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if snap.Name != "w3wp.dmp" {
		t.Errorf("Name = %q", snap.Name)
	}
	if len(snap.Threads) != 2 || snap.FrameCount() != 2 {
		t.Fatalf("threads = %d, frames = %d", len(snap.Threads), snap.FrameCount())
	}

	thread := snap.Threads[0]
	if thread.ID != 12 || thread.Frames[0].Address != 4096 {
		t.Errorf("thread = %+v", thread)
	}

	obj, ok := thread.FindFirstOfShape("Microsoft.SharePoint.SPListItemCollection")
	if !ok {
		t.Fatal("object not found")
	}
	if got, ok := obj.StringField("m_Query.m_strViewXml"); !ok || got != "<View><RowLimit>10</RowLimit></View>" {
		t.Errorf("m_strViewXml = %q, %v", got, ok)
	}
	if got, ok := obj.StringField("m_Query.m_strQuery"); !ok || got != "" {
		t.Errorf("m_strQuery = %q, %v", got, ok)
	}
	if _, ok := obj.StringField("m_Query.missing"); ok {
		t.Error("missing field reported present")
	}

	if _, ok := snap.Threads[1].FindFirstOfShape("Microsoft.SharePoint.SPListItemCollection"); ok {
		t.Error("thread without objects reported a match")
	}
}

func TestOpenJSON(t *testing.T) {
	path := writeFile(t, "hang.json", jsonDump)
	snap, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if snap.Name != "hang.json" {
		t.Errorf("Name = %q, want file base name", snap.Name)
	}

	obj, ok := snap.Threads[0].FindFirstOfShape("X")
	if !ok {
		t.Fatal("object not found")
	}
	if got, _ := obj.StringField("inner.name"); got != "n" {
		t.Errorf("inner.name = %q", got)
	}
	if got, _ := obj.StringField("inner.count"); got != "3" {
		t.Errorf("inner.count = %q", got)
	}
	if _, ok := obj.StringField("inner"); ok {
		t.Error("map field reported as string")
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open(writeFile(t, "dump.txt", "x")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("txt: err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := Open(writeFile(t, "bad.json", "{")); err == nil {
		t.Error("bad json: expected error")
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file: expected error")
	}
}
