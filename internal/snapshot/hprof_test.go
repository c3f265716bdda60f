package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mabhi256/hangdiag/internal/heap/hproftest"
	"github.com/mabhi256/hangdiag/internal/heap/model"
	"github.com/mabhi256/hangdiag/internal/heap/parser"
)

func buildQueryDump(b *hproftest.Builder, viewXML string) {
	b.Thread(5, "w3wp-worker",
		hproftest.Frame{Class: "Microsoft.SharePoint.SPListItemCollection", Method: "EnsureListItemsData"},
		hproftest.Frame{Class: "Microsoft.SharePoint.SPListItemCollection", Method: "GetEnumerator"},
	)
	b.Thread(6, "idle", hproftest.Frame{Class: "java.lang.Thread", Method: "sleep"})

	query := b.Class("Microsoft.SharePoint.SPQuery", 0,
		hproftest.Field{Name: "m_strViewXml", Type: model.HPROF_NORMAL_OBJECT},
		hproftest.Field{Name: "m_strQuery", Type: model.HPROF_NORMAL_OBJECT},
	)
	collection := b.Class("Microsoft.SharePoint.SPListItemCollection", 0,
		hproftest.Field{Name: "m_Query", Type: model.HPROF_NORMAL_OBJECT},
	)

	queryObj := b.Instance(query, b.Ref(b.String(viewXML)), b.Ref(0))
	collectionObj := b.Instance(collection, b.Ref(queryObj))

	decoy := b.String("not a collection")
	b.FrameRoot(5, 1, collectionObj)
	b.FrameRoot(5, 0, decoy)
}

func TestFromHeap(t *testing.T) {
	b := hproftest.New(8)
	buildQueryDump(b, "<View><ViewFields/></View>")

	heap, err := parser.Parse(bytes.NewReader(b.Bytes()), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	snap := FromHeap("java.hprof", "/tmp/java.hprof", heap)

	if len(snap.Threads) != 2 {
		t.Fatalf("got %d threads, want 2", len(snap.Threads))
	}
	worker := snap.Threads[0]
	if worker.ID != 5 {
		t.Errorf("ID = %d, want 5", worker.ID)
	}
	if len(worker.Frames) != 2 || worker.Frames[0].Function != "Microsoft.SharePoint.SPListItemCollection.EnsureListItemsData" {
		t.Fatalf("frames = %+v", worker.Frames)
	}
	if worker.Frames[0].Address == 0 {
		t.Error("frame address not set")
	}

	obj, ok := worker.FindFirstOfShape("Microsoft.SharePoint.SPListItemCollection")
	if !ok {
		t.Fatal("collection not found on stack")
	}
	if got, ok := obj.StringField("m_Query.m_strViewXml"); !ok || got != "<View><ViewFields/></View>" {
		t.Errorf("m_strViewXml = %q, %v", got, ok)
	}
	if _, ok := obj.StringField("m_Query.m_strQuery"); ok {
		t.Error("null string reported present")
	}
	if _, ok := obj.StringField("m_Query"); ok {
		t.Error("non-string object reported as string")
	}

	if _, ok := snap.Threads[1].FindFirstOfShape("Microsoft.SharePoint.SPListItemCollection"); ok {
		t.Error("idle thread reported a match")
	}
}

func TestOpenHprof(t *testing.T) {
	b := hproftest.New(4)
	buildQueryDump(b, "<View/>")

	path := filepath.Join(t.TempDir(), "java_pid42.hprof")
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if snap.Name != "java_pid42.hprof" || len(snap.Threads) != 2 {
		t.Errorf("snapshot = %s with %d threads", snap.Name, len(snap.Threads))
	}
}
