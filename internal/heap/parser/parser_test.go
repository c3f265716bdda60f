package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mabhi256/hangdiag/internal/heap/hproftest"
	"github.com/mabhi256/hangdiag/internal/heap/model"
)

func TestParseThreadsAndFrames(t *testing.T) {
	for _, idSize := range []int{4, 8} {
		b := hproftest.New(idSize)
		b.Thread(7, "worker-1",
			hproftest.Frame{Class: "com.example.Repo", Method: "load"},
			hproftest.Frame{Class: "com.example.Service", Method: "handle"},
		)
		b.StickyClassRoot(0x10)
		b.ObjectArray(0x20, 0x30)

		heap, err := Parse(bytes.NewReader(b.Bytes()), nil)
		if err != nil {
			t.Fatalf("idSize %d: Parse: %v", idSize, err)
		}
		if heap.Header.IdentifierSize != uint32(idSize) {
			t.Errorf("IdentifierSize = %d, want %d", heap.Header.IdentifierSize, idSize)
		}

		threads := heap.Threads.Threads()
		if len(threads) != 1 {
			t.Fatalf("got %d threads, want 1", len(threads))
		}
		if threads[0].ThreadName != "worker-1" {
			t.Errorf("ThreadName = %q", threads[0].ThreadName)
		}

		trace, ok := heap.Stack.GetTrace(threads[0].StartRecord.StackTraceSerialNumber)
		if !ok {
			t.Fatal("trace not registered")
		}
		var got []string
		for _, id := range trace.StackFrameIDs {
			frame, ok := heap.Stack.GetFrame(id)
			if !ok {
				t.Fatalf("frame 0x%x not registered", uint64(id))
			}
			got = append(got, heap.FrameFunction(frame))
		}
		want := "com.example.Repo.load,com.example.Service.handle"
		if strings.Join(got, ",") != want {
			t.Errorf("frames = %v, want %s", got, want)
		}
	}
}

func TestParseStrings(t *testing.T) {
	tests := []struct {
		name      string
		charArray bool
		text      string
	}{
		{"latin1", false, "<View><RowLimit>5</RowLimit></View>"},
		{"utf16 compact", false, "Ansicht 日本"},
		{"char array", true, "<View/>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := hproftest.New(8)
			b.CharArrayStrings = tt.charArray
			id := b.String(tt.text)

			heap, err := Parse(bytes.NewReader(b.Bytes()), nil)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			instance, ok := heap.Objects.GetInstance(id)
			if !ok {
				t.Fatal("string instance not registered")
			}
			if name := heap.ClassName(instance); name != "java.lang.String" {
				t.Errorf("ClassName = %q", name)
			}
			got, err := heap.Objects.DecodeString(instance, heap.Strings)
			if err != nil {
				t.Fatalf("DecodeString: %v", err)
			}
			if got != tt.text {
				t.Errorf("DecodeString = %q, want %q", got, tt.text)
			}
		})
	}
}

func TestParseInheritedFieldLayout(t *testing.T) {
	b := hproftest.New(4)
	base := b.Class("com.example.Base", 0, hproftest.Field{Name: "m_Query", Type: model.HPROF_NORMAL_OBJECT})
	derived := b.Class("com.example.Derived", base, hproftest.Field{Name: "count", Type: model.HPROF_INT})
	target := b.String("hello")
	obj := b.Instance(derived, hproftest.U4(3), b.Ref(target))

	heap, err := Parse(bytes.NewReader(b.Bytes()), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	instance, _ := heap.Objects.GetInstance(obj)
	ref, ok := heap.Objects.ReferenceField(instance, "m_Query", heap.Strings)
	if !ok || ref != target {
		t.Fatalf("ReferenceField = 0x%x, %v; want 0x%x", uint64(ref), ok, uint64(target))
	}
	if _, ok := heap.Objects.ReferenceField(instance, "count", heap.Strings); ok {
		t.Error("int field reported as reference")
	}
}

func TestParseFrameRootsOrdered(t *testing.T) {
	b := hproftest.New(8)
	b.Thread(1, "main", hproftest.Frame{Class: "A", Method: "a"}, hproftest.Frame{Class: "B", Method: "b"})
	b.FrameRoot(1, model.EmptyFrame, 0x1)
	b.FrameRoot(1, 1, 0x2)
	b.FrameRoot(1, 0, 0x3)

	heap, err := Parse(bytes.NewReader(b.Bytes()), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var got []model.ID
	for _, root := range heap.Threads.FrameRoots(1) {
		got = append(got, root.ObjectID)
	}
	want := []model.ID{0x3, 0x2, 0x1}
	if len(got) != len(want) {
		t.Fatalf("roots = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("roots = %v, want %v", got, want)
		}
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"wrong format", []byte("JAVA PROFILE 1.0.1\x00\x00\x00\x00\x08")},
		{"bad id size", append([]byte(model.HprofFormat+"\x00"), 0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0, 0)},
		{"truncated record", append(hproftest.New(8).Bytes(), byte(model.HPROF_UTF8), 0, 0, 0, 0, 0, 0, 0, 20, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(bytes.NewReader(tt.data), nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}
