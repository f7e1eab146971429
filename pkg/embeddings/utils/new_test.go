package embeddingutils_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/glimpse/pkg/embeddings/clip"
	embeddingutils "github.com/papercomputeco/glimpse/pkg/embeddings/utils"
)

var _ = Describe("NewEmbedder", func() {
	It("creates a clip embedder", func() {
		emb, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: "clip",
			TargetURL:    "http://localhost:51000",
			Dimensions:   512,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(emb).To(BeAssignableToTypeOf(&clip.Embedder{}))
	})

	It("rejects unknown providers", func() {
		_, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{ProviderType: "word2vec"})
		Expect(err).To(MatchError(ContainSubstring("unsupported embedding provider")))
	})
})
