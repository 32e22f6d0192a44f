package core

import (
	"context"
	"fmt"
	"io"

	"ontocore/internal/attach"
	"ontocore/pkg/ontology"
)

// PutAttachment stores the content behind an attachment-typed property and
// records the file name as the property value. The value row and the blob are
// not atomic; the blob is written first so a failed insert leaves an orphan
// blob rather than a dangling reference.
func (m *Manager) PutAttachment(ctx context.Context, container, objectURI, propertyURI, fileName string, r io.Reader, opts attach.PutOptions) error {
	if m.attachments == nil {
		return fmt.Errorf("ontology: no attachment store configured")
	}
	pd, err := m.GetPropertyDescriptor(ctx, propertyURI, container)
	if err != nil {
		return err
	}
	switch pd.Type() {
	case ontology.TypeAttachment, ontology.TypeFileLink:
	default:
		return fmt.Errorf("ontology: property %q does not hold file content", propertyURI)
	}
	if _, err := m.attachments.Put(ctx, attach.Key(container, objectURI, fileName), r, opts); err != nil {
		return fmt.Errorf("ontology: store attachment %q: %w", fileName, err)
	}
	return m.InsertProperties(ctx, container, "", PropertyValue{
		ObjectURI:   objectURI,
		PropertyURI: propertyURI,
		Value:       fileName,
	})
}

// OpenAttachment streams the content behind an attachment-typed property
// value.
func (m *Manager) OpenAttachment(ctx context.Context, container, objectURI, fileName string) (attach.Info, io.ReadCloser, error) {
	if m.attachments == nil {
		return attach.Info{}, nil, fmt.Errorf("ontology: no attachment store configured")
	}
	return m.attachments.Get(ctx, attach.Key(container, objectURI, fileName))
}

// deleteAttachments sweeps blob content for deleted objects. Best effort: the
// value rows are already gone, so a failed sweep only leaks blobs.
func (m *Manager) deleteAttachments(ctx context.Context, container string, objectURIs ...string) {
	if m.attachments == nil {
		return
	}
	for _, uri := range objectURIs {
		infos, err := m.attachments.List(ctx, attach.ObjectPrefix(container, uri))
		if err != nil {
			m.metrics.observeAttachSweepError()
			continue
		}
		for _, info := range infos {
			if _, err := m.attachments.Delete(ctx, info.Key); err != nil {
				m.metrics.observeAttachSweepError()
			}
		}
	}
}
