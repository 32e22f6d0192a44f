package attach

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestKey_PathSafe(t *testing.T) {
	key := Key("projA", "urn:lsid:test%3Aescaped:Obj:1", "report.pdf")
	if strings.Contains(key, ":") || strings.Contains(key, "%") {
		t.Fatalf("key not path safe: %s", key)
	}
	if !strings.HasPrefix(key, "projA/") || !strings.HasSuffix(key, "/report.pdf") {
		t.Fatalf("unexpected key shape: %s", key)
	}
	if !strings.HasPrefix(key, ObjectPrefix("projA", "urn:lsid:test%3Aescaped:Obj:1")) {
		t.Fatalf("key must share the object prefix")
	}
}

// exerciseStore runs the shared Store contract against an implementation.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	info, err := s.Put(ctx, "a/b/one.txt", bytes.NewReader([]byte("payload")), PutOptions{ContentType: "text/plain"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "a/b/one.txt" || info.Size != 7 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if _, err := s.Put(ctx, "a/b/one.txt", bytes.NewReader([]byte("x")), PutOptions{}); err == nil {
		t.Fatalf("second put on same key must fail")
	}
	got, rc, err := s.Get(ctx, "a/b/one.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "payload" || got.ContentType != "text/plain" {
		t.Fatalf("get returned %q %+v", data, got)
	}
	if _, err := s.Head(ctx, "a/b/one.txt"); err != nil {
		t.Fatalf("head: %v", err)
	}
	if _, err := s.Head(ctx, "a/b/ghost"); err == nil {
		t.Fatalf("head on missing key must fail")
	}
	if _, err := s.Put(ctx, "a/b/two.txt", bytes.NewReader([]byte("2")), PutOptions{}); err != nil {
		t.Fatalf("put two: %v", err)
	}
	if _, err := s.Put(ctx, "c/three.txt", bytes.NewReader([]byte("3")), PutOptions{}); err != nil {
		t.Fatalf("put three: %v", err)
	}
	infos, err := s.List(ctx, "a/b/")
	if err != nil || len(infos) != 2 {
		t.Fatalf("list: %v %+v", err, infos)
	}
	if infos[0].Key > infos[1].Key {
		t.Fatalf("list must be key-ordered: %+v", infos)
	}
	ok, err := s.Delete(ctx, "a/b/one.txt")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, _ := s.Delete(ctx, "a/b/one.txt"); ok {
		t.Fatalf("second delete must report absence")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	if s.Driver() != DriverMemory {
		t.Fatalf("driver = %s", s.Driver())
	}
	exerciseStore(t, s)
}

func TestFilesystemStore(t *testing.T) {
	s, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Driver() != DriverFilesystem {
		t.Fatalf("driver = %s", s.Driver())
	}
	exerciseStore(t, s)
}

func TestFilesystem_RejectsTraversal(t *testing.T) {
	s, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"../escape", "/abs", "a/../../b", "  "} {
		if _, err := s.Put(ctx, key, bytes.NewReader(nil), PutOptions{}); err == nil {
			t.Errorf("key %q accepted", key)
		}
	}
}

func TestOpen_SelectsDriver(t *testing.T) {
	t.Setenv("ONTOCORE_ATTACH_DRIVER", "memory")
	s, err := Open(context.Background())
	if err != nil || s.Driver() != DriverMemory {
		t.Fatalf("open memory: %v %v", s, err)
	}
	t.Setenv("ONTOCORE_ATTACH_DRIVER", "bogus")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("unknown driver must fail")
	}
	t.Setenv("ONTOCORE_ATTACH_DRIVER", "s3")
	t.Setenv("ONTOCORE_ATTACH_S3_BUCKET", "")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("s3 without bucket must fail")
	}
}
