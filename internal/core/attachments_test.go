package core

import (
	"bytes"
	"context"
	"io"
	"testing"

	"ontocore/internal/attach"
)

const attachmentRange = "urn:ontocore:types#attachment"

func TestPutAndOpenAttachment(t *testing.T) {
	store := attach.NewMemory()
	m, _ := newTestManager(t, WithAttachmentStore(store))
	ctx := context.Background()
	mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: "urn:lsid:test:Prop:photo", RangeURI: attachmentRange, Container: "projA"})

	err := m.PutAttachment(ctx, "projA", "urn:lsid:test:Obj:att", "urn:lsid:test:Prop:photo",
		"photo.png", bytes.NewReader([]byte("png-bytes")), attach.PutOptions{ContentType: "image/png"})
	if err != nil {
		t.Fatalf("put attachment: %v", err)
	}

	props, err := m.GetProperties(ctx, "projA", "urn:lsid:test:Obj:att")
	if err != nil || props["urn:lsid:test:Prop:photo"].AppValue() != "photo.png" {
		t.Fatalf("file name not recorded: %v %v", err, props)
	}
	info, rc, err := m.OpenAttachment(ctx, "projA", "urn:lsid:test:Obj:att", "photo.png")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "png-bytes" || info.ContentType != "image/png" {
		t.Fatalf("content round trip failed: %q %+v", data, info)
	}
}

func TestPutAttachment_RejectsNonFileProperty(t *testing.T) {
	m, _ := newTestManager(t, WithAttachmentStore(attach.NewMemory()))
	mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: "urn:lsid:test:Prop:plain", RangeURI: xsdString, Container: "projA"})
	err := m.PutAttachment(context.Background(), "projA", "urn:lsid:test:Obj:att2", "urn:lsid:test:Prop:plain",
		"f.txt", bytes.NewReader(nil), attach.PutOptions{})
	if err == nil {
		t.Fatalf("non-attachment property must reject content")
	}
}

func TestDeleteObjects_SweepsAttachments(t *testing.T) {
	store := attach.NewMemory()
	m, _ := newTestManager(t, WithAttachmentStore(store))
	ctx := context.Background()
	mustEnsureProperty(t, m, PropertyDescriptor{PropertyURI: "urn:lsid:test:Prop:doc", RangeURI: attachmentRange, Container: "projA"})

	if err := m.PutAttachment(ctx, "projA", "urn:lsid:test:Obj:swept", "urn:lsid:test:Prop:doc",
		"doc.txt", bytes.NewReader([]byte("text")), attach.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := m.DeleteOntologyObjects(ctx, "projA", "urn:lsid:test:Obj:swept"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	infos, err := store.List(ctx, attach.ObjectPrefix("projA", "urn:lsid:test:Obj:swept"))
	if err != nil || len(infos) != 0 {
		t.Fatalf("blob survived object deletion: %v %+v", err, infos)
	}
}
