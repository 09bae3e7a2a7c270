package config

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type testModule struct {
	Host  string            `yaml:"host"`
	Port  int               `yaml:"port"`
	Tags  []string          `yaml:"tags"`
	Extra map[string]string `yaml:"extra"`
}

func (t testModule) Validate() error {
	if t.Port == 0 {
		return errors.New("port is required")
	}
	return nil
}

var _ = Describe("Config", func() {
	var tempDir string

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
	})

	writeFile := func(name, content string) string {
		path := filepath.Join(tempDir, name)
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
		return path
	}

	Context("NewConfig", func() {
		It("should read a YAML file and expose its modules", func() {
			path := writeFile("envguard.yaml", `
server:
  host: localhost
  port: 8080
variables:
  PORT: { type: port }
`)
			cfg, err := NewConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Modules()).To(Equal([]string{"server", "variables"}))
			Expect(cfg.Has("server")).To(BeTrue())
			Expect(cfg.Has("vault")).To(BeFalse())

			module, err := Get[testModule](cfg, "server")
			Expect(err).NotTo(HaveOccurred())
			Expect(module.Host).To(Equal("localhost"))
			Expect(module.Port).To(Equal(8080))
		})

		It("should accept the .yml extension", func() {
			path := writeFile("envguard.yml", "server:\n  port: 1\n")
			cfg, err := NewConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Has("server")).To(BeTrue())
		})

		It("should read a TOML file", func() {
			path := writeFile("envguard.toml", `
[server]
host = "db.internal"
port = 5432
tags = ["a", "b"]
`)
			cfg, err := NewConfig(path)
			Expect(err).NotTo(HaveOccurred())

			module, err := Get[testModule](cfg, "server")
			Expect(err).NotTo(HaveOccurred())
			Expect(module.Host).To(Equal("db.internal"))
			Expect(module.Port).To(Equal(5432))
			Expect(module.Tags).To(Equal([]string{"a", "b"}))
		})

		It("should treat an empty file as having no modules", func() {
			cfg, err := NewConfig(writeFile("empty.yaml", ""))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Modules()).To(BeEmpty())
		})

		It("should return error if file does not exist", func() {
			_, err := NewConfig(filepath.Join(tempDir, "missing.yaml"))
			Expect(err).To(MatchError(ContainSubstring("error reading configuration file")))
		})

		It("should reject unknown extensions", func() {
			_, err := NewConfig(writeFile("envguard.ini", "x=1"))
			Expect(err).To(MatchError(ContainSubstring(`unsupported configuration format ".ini"`)))
		})

		It("should return error if file content is invalid", func() {
			_, err := NewConfig(writeFile("invalid.yaml", "invalid yaml content: :"))
			Expect(err).To(MatchError(ContainSubstring("error parsing configuration file")))

			_, err = NewConfig(writeFile("invalid.toml", "[server"))
			Expect(err).To(MatchError(ContainSubstring("error parsing configuration file")))
		})
	})

	Context("Get", func() {
		It("should return nil if module does not exist", func() {
			cfg, err := NewConfig(writeFile("c.yaml", "server:\n  port: 1\n"))
			Expect(err).NotTo(HaveOccurred())

			module, err := Get[testModule](cfg, "nonexistent")
			Expect(err).NotTo(HaveOccurred())
			Expect(module).To(BeNil())
		})

		It("should return error if validation fails", func() {
			cfg, err := NewConfig(writeFile("c.yaml", "server:\n  host: localhost\n"))
			Expect(err).NotTo(HaveOccurred())

			_, err = Get[testModule](cfg, "server")
			Expect(err).To(MatchError(ContainSubstring(`error loading module "server": configuration is invalid: port is required`)))
		})

		It("should return independent copies", func() {
			cfg, err := NewConfig(writeFile("c.yaml", "server:\n  port: 1\n  tags: [x]\n"))
			Expect(err).NotTo(HaveOccurred())

			first, err := Get[testModule](cfg, "server")
			Expect(err).NotTo(HaveOccurred())
			first.Tags[0] = "changed"

			second, err := Get[testModule](cfg, "server")
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Tags).To(Equal([]string{"x"}))
		})

		It("should expand variables from the environment", func() {
			GinkgoT().Setenv("ENVGUARD_CONFIG_HOST", "expanded.local")

			cfg, err := NewConfig(writeFile("c.yaml", `
server:
  host: ${ENVGUARD_CONFIG_HOST}
  port: 1
  extra:
    url: "http://${ENVGUARD_CONFIG_HOST}:80"
`))
			Expect(err).NotTo(HaveOccurred())

			module, err := Get[testModule](cfg, "server")
			Expect(err).NotTo(HaveOccurred())
			Expect(module.Host).To(Equal("expanded.local"))
			Expect(module.Extra).To(HaveKeyWithValue("url", "http://expanded.local:80"))
		})
	})

	Context("Unmarshal", func() {
		It("should return error if unmarshal fails", func() {
			_, err := Unmarshal[testModule](ModuleRawConfig("invalid: yaml: :"))
			Expect(err).To(MatchError(ContainSubstring("error decoding configuration")))
		})

		It("should return error if validation fails", func() {
			_, err := Unmarshal[testModule](ModuleRawConfig("host: x"))
			Expect(err).To(MatchError(ContainSubstring("configuration is invalid")))
		})
	})

	Context("ModuleRawConfig", func() {
		It("should keep the raw YAML of a node", func() {
			var m ModuleRawConfig
			Expect(yaml.Unmarshal([]byte("key: value"), &m)).To(Succeed())
			Expect(string(m)).To(ContainSubstring("key: value"))
		})
	})
})
