package clicklog_test

import (
	"encoding/json"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/glimpse/pkg/clicklog"
)

var _ = Describe("ClickEvent", func() {
	It("fills the envelope fields", func() {
		event := clicklog.NewClickEvent("images/cat.jpg", "a cat")

		Expect(event.SchemaVersion).To(Equal(clicklog.SchemaVersionV1))
		Expect(event.EventType).To(Equal("glimpse.image.clicked"))
		Expect(uuid.Validate(event.EventID)).To(Succeed())
		Expect(event.EmittedAt.IsZero()).To(BeFalse())
		Expect(event.Image).To(Equal("images/cat.jpg"))
		Expect(event.Query).To(Equal("a cat"))
	})

	It("marshals with the expected top-level keys", func() {
		payload, err := json.Marshal(clicklog.NewClickEvent("cat.jpg", "cat"))
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKeyWithValue("image", "cat.jpg"))
		Expect(got).To(HaveKeyWithValue("query", "cat"))
	})

	It("validates events", func() {
		var nilEvent *clicklog.ClickEvent
		Expect(nilEvent.Validate()).To(MatchError(clicklog.ErrNilClickEvent))
		Expect(clicklog.NewClickEvent("", "cat").Validate()).To(MatchError(clicklog.ErrInvalidClickEvent))
		Expect(clicklog.NewClickEvent("cat.jpg", "").Validate()).To(Succeed())
	})
})
