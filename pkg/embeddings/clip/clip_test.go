package clip_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/glimpse/pkg/embeddings"
	"github.com/papercomputeco/glimpse/pkg/embeddings/clip"
	"github.com/papercomputeco/glimpse/pkg/imageio"
)

var _ = Describe("Embedder", func() {
	var (
		ctx      context.Context
		server   *httptest.Server
		lastBody map[string]any
		status   int
	)

	BeforeEach(func() {
		ctx = context.Background()
		status = http.StatusOK
		lastBody = nil

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && r.URL.Path == "/models" {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"models": []string{"openai/clip-vit-base-patch32", "openai/clip-vit-large-patch14"},
				})
				return
			}

			_ = json.NewDecoder(r.Body).Decode(&lastBody)
			if status != http.StatusOK {
				http.Error(w, "model not loaded", status)
				return
			}

			var n int
			switch r.URL.Path {
			case "/embed/text":
				n = len(lastBody["texts"].([]any))
			case "/embed/image":
				n = len(lastBody["images"].([]any))
			default:
				http.NotFound(w, r)
				return
			}

			embs := make([][]float32, n)
			for i := range embs {
				embs[i] = []float32{float32(i), 1}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": embs})
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newEmbedder := func(dims uint) *clip.Embedder {
		e, err := clip.NewEmbedder(clip.EmbedderConfig{
			BaseURL:    server.URL,
			Device:     "cuda:0",
			Dimensions: dims,
		})
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	It("applies defaults", func() {
		e, err := clip.NewEmbedder(clip.EmbedderConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Model()).To(Equal(clip.DefaultModel))
	})

	It("embeds texts with the configured model and device", func() {
		embs, err := newEmbedder(2).EmbedTexts(ctx, []string{"cat", "dog"})
		Expect(err).NotTo(HaveOccurred())
		Expect(embs).To(Equal([][]float32{{0, 1}, {1, 1}}))
		Expect(lastBody["model"]).To(Equal(clip.DefaultModel))
		Expect(lastBody["device"]).To(Equal("cuda:0"))
	})

	It("sends images base64-encoded in one batch", func() {
		images := []*imageio.Image{
			{ID: "a.png", Data: []byte("aaa")},
			{ID: "b.png", Data: []byte("bbb")},
		}

		embs, err := newEmbedder(0).EmbedImages(ctx, images)
		Expect(err).NotTo(HaveOccurred())
		Expect(embs).To(HaveLen(2))
		Expect(lastBody["images"]).To(Equal([]any{
			base64.StdEncoding.EncodeToString([]byte("aaa")),
			base64.StdEncoding.EncodeToString([]byte("bbb")),
		}))
	})

	It("does not call the server for an empty batch", func() {
		embs, err := newEmbedder(0).EmbedImages(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(embs).To(BeEmpty())
		Expect(lastBody).To(BeNil())
	})

	It("wraps server failures in ErrEmbedding", func() {
		status = http.StatusServiceUnavailable

		_, err := newEmbedder(0).EmbedTexts(ctx, []string{"cat"})
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("503"))
	})

	It("rejects embeddings of the wrong dimension", func() {
		_, err := newEmbedder(512).EmbedTexts(ctx, []string{"cat"})
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("dimensions"))
	})

	It("lists the server's models", func() {
		models, err := newEmbedder(0).ListModels(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(models).To(ContainElement("openai/clip-vit-large-patch14"))
	})
})
