package clicklogutils_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/glimpse/pkg/clicklog/kafka"
	"github.com/papercomputeco/glimpse/pkg/clicklog/memory"
	"github.com/papercomputeco/glimpse/pkg/clicklog/nop"
	clicklogutils "github.com/papercomputeco/glimpse/pkg/clicklog/utils"
)

var _ = Describe("NewPublisher", func() {
	It("defaults to the no-op publisher", func() {
		p, err := clicklogutils.NewPublisher(&clicklogutils.NewPublisherOpts{})
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&nop.Publisher{}))
	})

	It("creates a kafka publisher", func() {
		p, err := clicklogutils.NewPublisher(&clicklogutils.NewPublisherOpts{
			ProviderType: "kafka",
			Brokers:      []string{"localhost:9092"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeAssignableToTypeOf(&kafka.Publisher{}))
		Expect(p.Close()).To(Succeed())
	})

	It("rejects unknown providers", func() {
		_, err := clicklogutils.NewPublisher(&clicklogutils.NewPublisherOpts{ProviderType: "pulsar"})
		Expect(err).To(MatchError(ContainSubstring("unsupported click log provider")))
	})
})

var _ = Describe("NewSink", func() {
	ctx := context.Background()

	It("returns no sink for none", func() {
		s, err := clicklogutils.NewSink(ctx, &clicklogutils.NewSinkOpts{SinkType: "none"})
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(BeNil())
	})

	It("creates a memory sink", func() {
		s, err := clicklogutils.NewSink(ctx, &clicklogutils.NewSinkOpts{SinkType: "memory"})
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(BeAssignableToTypeOf(&memory.Sink{}))
	})

	It("requires a DSN for postgres", func() {
		_, err := clicklogutils.NewSink(ctx, &clicklogutils.NewSinkOpts{SinkType: "postgres"})
		Expect(err).To(MatchError(ContainSubstring("connection string is required")))
	})

	It("rejects unknown sinks", func() {
		_, err := clicklogutils.NewSink(ctx, &clicklogutils.NewSinkOpts{SinkType: "redis"})
		Expect(err).To(MatchError(ContainSubstring("unsupported click analytics sink")))
	})
})
