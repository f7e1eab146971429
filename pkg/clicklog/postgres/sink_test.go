package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/glimpse/pkg/clicklog"
	"github.com/papercomputeco/glimpse/pkg/clicklog/postgres"
	"github.com/papercomputeco/glimpse/pkg/logger"
)

// connStr returns the test DSN or skips the test.
func connStr() string {
	dsn := os.Getenv("GLIMPSE_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("GLIMPSE_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Sink", func() {
	It("requires a connection string", func() {
		_, err := postgres.NewSink(context.Background(), "", logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("connection string is required")))
	})

	It("returns an error for an unreachable database", func() {
		_, err := postgres.NewSink(context.Background(),
			"host=invalid port=9999 user=bad dbname=bad sslmode=disable connect_timeout=1", logger.Nop())
		Expect(err).To(HaveOccurred())
		fmt.Fprintf(GinkgoWriter, "expected error: %v\n", err)
	})

	Context("against a running database", func() {
		var (
			ctx  context.Context
			sink *postgres.Sink
		)

		BeforeEach(func() {
			ctx = context.Background()
			dsn := connStr()

			var err error
			sink, err = postgres.NewSink(ctx, dsn, logger.Nop())
			Expect(err).NotTo(HaveOccurred())

			db, err := sql.Open("pgx", dsn)
			Expect(err).NotTo(HaveOccurred())
			defer db.Close()
			_, err = db.ExecContext(ctx, `TRUNCATE glimpse_clicks`)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			if sink != nil {
				Expect(sink.Close()).To(Succeed())
			}
		})

		It("counts clicks per query and per image", func() {
			for _, c := range [][2]string{
				{"cat1.jpg", "cat"},
				{"cat1.jpg", "cat"},
				{"cat2.jpg", "cat"},
				{"dog.jpg", "dog"},
				{"dog.jpg", ""},
			} {
				Expect(sink.PublishClick(ctx, clicklog.NewClickEvent(c[0], c[1]))).To(Succeed())
			}

			a, err := sink.Analytics(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.TotalClicks).To(Equal(int64(5)))
			Expect(a.TopQueries).To(Equal([]clicklog.Count{
				{Key: "cat", Clicks: 3},
				{Key: "dog", Clicks: 1},
			}))
			Expect(a.TopImages).To(Equal([]clicklog.Count{
				{Key: "cat1.jpg", Clicks: 2},
				{Key: "dog.jpg", Clicks: 2},
				{Key: "cat2.jpg", Clicks: 1},
			}))
		})

		It("ignores a replayed event", func() {
			event := clicklog.NewClickEvent("cat.jpg", "cat")
			Expect(sink.PublishClick(ctx, event)).To(Succeed())
			Expect(sink.PublishClick(ctx, event)).To(Succeed())

			a, err := sink.Analytics(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.TotalClicks).To(Equal(int64(1)))
		})
	})
})
