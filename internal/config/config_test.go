package config_test

import (
	"os"
	"path/filepath"

	"github.com/jrh3k5/tokenpage/internal/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var envKeys = []string{
		"LISTEN_ADDR", "LISTEN_PORT", "REVALIDATE_SECONDS", "SNAPSHOT_CACHE_SIZE", "NORMALIZE_ROYALTIES",
		"CHAINS_FILE", "RESERVOIR_API_KEY", "OPENSEA_BASE_URL", "OPENSEA_API_KEY", "ENS_BASE_URL",
		"ENS_CACHE_SIZE", "ENS_CACHE_TTL_SECONDS", "LOG_LEVEL",
	}

	BeforeEach(func() {
		for _, key := range envKeys {
			if value, exists := os.LookupEnv(key); exists {
				DeferCleanup(os.Setenv, key, value)
			} else {
				DeferCleanup(os.Unsetenv, key)
			}
			Expect(os.Unsetenv(key)).To(Succeed())
		}
	})

	It("uses defaults when nothing is set", func() {
		cfg := config.NewConfig()

		Expect(cfg.ListenAddr).To(Equal("0.0.0.0"))
		Expect(cfg.ListenPort).To(Equal(8080))
		Expect(cfg.RevalidateSeconds).To(Equal(20))
		Expect(cfg.NormalizeRoyalties).To(BeFalse())
		Expect(cfg.LogLevel).To(Equal("info"))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("reads overrides from the environment", func() {
		GinkgoT().Setenv("LISTEN_PORT", "9090")
		GinkgoT().Setenv("NORMALIZE_ROYALTIES", "true")
		GinkgoT().Setenv("REVALIDATE_SECONDS", "45")
		GinkgoT().Setenv("ENS_BASE_URL", "https://ens.example.local/")

		cfg := config.NewConfig()
		Expect(cfg.ListenPort).To(Equal(9090))
		Expect(cfg.RevalidateSeconds).To(Equal(45))
		Expect(cfg.QueryOptions().NormalizeRoyalties).To(BeTrue())
		Expect(cfg.ENSBaseURL).To(Equal("https://ens.example.local"))
	})

	It("ignores unparseable numbers", func() {
		GinkgoT().Setenv("LISTEN_PORT", "not-a-port")

		Expect(config.NewConfig().ListenPort).To(Equal(8080))
	})

	DescribeTable("rejects invalid values",
		func(mutate func(cfg *config.Config), message string) {
			cfg := config.NewConfig()
			mutate(cfg)
			Expect(cfg.Validate()).To(MatchError(ContainSubstring(message)))
		},
		Entry("port", func(cfg *config.Config) { cfg.ListenPort = 70000 }, "invalid listen port"),
		Entry("address", func(cfg *config.Config) { cfg.ListenAddr = "" }, "listen address"),
		Entry("revalidation", func(cfg *config.Config) { cfg.RevalidateSeconds = 0 }, "revalidate seconds"),
		Entry("cache size", func(cfg *config.Config) { cfg.SnapshotCacheSize = -1 }, "snapshot cache size"),
		Entry("OpenSea URL", func(cfg *config.Config) { cfg.OpenSeaBaseURL = "" }, "OpenSea base URL"),
		Entry("ENS URL", func(cfg *config.Config) { cfg.ENSBaseURL = "" }, "ENS base URL"),
	)

	It("loads a .env file when it exists", func() {
		envFile := filepath.Join(GinkgoT().TempDir(), ".env")
		Expect(os.WriteFile(envFile, []byte("LISTEN_PORT=7070\nRESERVOIR_API_KEY=from-file\n"), 0o600)).To(Succeed())

		cfg, err := config.Load(envFile)
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.ListenPort).To(Equal(7070))
		Expect(cfg.ReservoirAPIKey).To(Equal("from-file"))
	})

	It("skips a missing .env file", func() {
		cfg, err := config.Load(filepath.Join(GinkgoT().TempDir(), "missing.env"))
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.ListenPort).To(Equal(8080))
	})

	It("builds the default chain registry", func() {
		cfg := config.NewConfig()
		cfg.ReservoirAPIKey = "key"

		registry, err := cfg.Registry()
		Expect(err).ToNot(HaveOccurred())
		Expect(registry.Default().RoutePrefix).To(Equal("ethereum"))
		Expect(registry.Default().APIKey).To(Equal("key"))
	})

	It("builds the chain registry from a chains file", func() {
		chainsFile := filepath.Join(GinkgoT().TempDir(), "chains.yaml")
		contents := "chains:\n  - id: 8453\n    name: Base\n    route_prefix: base\n    base_url: https://api-base.example.local/\n"
		Expect(os.WriteFile(chainsFile, []byte(contents), 0o600)).To(Succeed())

		cfg := config.NewConfig()
		cfg.ChainsFile = chainsFile
		cfg.ReservoirAPIKey = "key"

		registry, err := cfg.Registry()
		Expect(err).ToNot(HaveOccurred())
		Expect(registry.Chains()).To(HaveLen(1))
		Expect(registry.Default().BaseURL).To(Equal("https://api-base.example.local"))
		Expect(registry.Default().ProxyAPI).To(Equal("/api/reservoir/base"))
	})

	It("fails on a missing chains file", func() {
		cfg := config.NewConfig()
		cfg.ChainsFile = filepath.Join(GinkgoT().TempDir(), "missing.yaml")

		_, err := cfg.Registry()
		Expect(err).To(MatchError(ContainSubstring("failed to open chains file")))
	})
})
