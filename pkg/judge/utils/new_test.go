package judgeutils_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/glimpse/pkg/judge/ollama"
	"github.com/papercomputeco/glimpse/pkg/judge/openai"
	judgeutils "github.com/papercomputeco/glimpse/pkg/judge/utils"
)

var _ = Describe("NewJudge", func() {
	It("creates an ollama judge", func() {
		j, err := judgeutils.NewJudge(&judgeutils.NewJudgeOpts{
			ProviderType: "ollama",
			TargetURL:    "http://localhost:11434",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(j).To(BeAssignableToTypeOf(&ollama.Judge{}))
	})

	It("creates an openai judge with the key from the named env var", func() {
		GinkgoT().Setenv("GLIMPSE_TEST_OPENAI_KEY", "sk-test")

		j, err := judgeutils.NewJudge(&judgeutils.NewJudgeOpts{
			ProviderType: "openai",
			APIKeyEnv:    "GLIMPSE_TEST_OPENAI_KEY",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(j).To(BeAssignableToTypeOf(&openai.Judge{}))
	})

	It("fails for openai when the env var is empty", func() {
		GinkgoT().Setenv("GLIMPSE_TEST_OPENAI_KEY", "")

		_, err := judgeutils.NewJudge(&judgeutils.NewJudgeOpts{
			ProviderType: "openai",
			APIKeyEnv:    "GLIMPSE_TEST_OPENAI_KEY",
		})
		Expect(err).To(MatchError(ContainSubstring("missing api key")))
	})

	It("rejects unknown providers", func() {
		_, err := judgeutils.NewJudge(&judgeutils.NewJudgeOpts{ProviderType: "bard"})
		Expect(err).To(MatchError(ContainSubstring("unsupported judge provider")))
	})
})
