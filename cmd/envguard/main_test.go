package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/animalet/envguard/pkg/envguard"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var _ = Describe("Command line", func() {
	var (
		stdout  *bytes.Buffer
		stderr  *bytes.Buffer
		tempDir string
	)

	BeforeEach(func() {
		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
		tempDir = GinkgoT().TempDir()
	})

	execute := func(args ...string) error {
		cmd := newRootCommand()
		cmd.SetArgs(args)
		cmd.SetOut(stdout)
		cmd.SetErr(stderr)
		return cmd.Execute()
	}

	writeFile := func(name, content string) string {
		path := filepath.Join(tempDir, name)
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
		return path
	}

	output := func() map[string]any {
		var values map[string]any
		Expect(yaml.Unmarshal(stdout.Bytes(), &values)).To(Succeed())
		return values
	}

	Context("version", func() {
		It("should print the build version", func() {
			Expect(execute("version")).To(Succeed())
			Expect(stdout.String()).To(Equal("envguard dev\n"))
		})
	})

	Context("logging", func() {
		AfterEach(func() {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		})

		It("should enable debug level with --debug", func() {
			Expect(execute("version", "--debug")).To(Succeed())
			Expect(zerolog.GlobalLevel()).To(Equal(zerolog.DebugLevel))
		})

		It("should default to info level", func() {
			Expect(execute("version")).To(Succeed())
			Expect(zerolog.GlobalLevel()).To(Equal(zerolog.InfoLevel))
		})
	})

	Context("check", func() {
		var secretsDir string

		BeforeEach(func() {
			secretsDir = filepath.Join(tempDir, "secrets")
			Expect(os.Mkdir(secretsDir, 0o700)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(secretsDir, "DB_PASSWORD"), []byte("hunter2\n"), 0o600)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(secretsDir, "PORT"), []byte("9090"), 0o600)).To(Succeed())
		})

		dirConfig := func() string {
			return writeFile("envguard.yaml", fmt.Sprintf(`
dir:
  path: %s
variables:
  PORT:        { type: port }
  DB_PASSWORD: { type: string, min_len: 1, unset: true }
  LOG_LEVEL:   { type: enum, values: [debug, info], default: info }
  DEBUG:       { type: bool, optional: true }
`, secretsDir))
		}

		It("should require the config flag", func() {
			err := execute("check")
			Expect(err).To(MatchError(ContainSubstring(`required flag(s) "config" not set`)))
		})

		It("should resolve from the secrets directory and mask unset values", func() {
			Expect(execute("check", "--config", dirConfig())).To(Succeed())

			values := output()
			Expect(values).To(HaveKeyWithValue("PORT", 9090))
			Expect(values).To(HaveKeyWithValue("DB_PASSWORD", masked))
			Expect(values).To(HaveKeyWithValue("LOG_LEVEL", "info"))
			Expect(values).To(HaveKeyWithValue("DEBUG", BeNil()))
			Expect(stdout.String()).NotTo(ContainSubstring("hunter2"))
		})

		It("should reveal unset values on request", func() {
			Expect(execute("check", "-c", dirConfig(), "--reveal")).To(Succeed())
			Expect(output()).To(HaveKeyWithValue("DB_PASSWORD", "hunter2"))
		})

		It("should fail with the per-field report", func() {
			Expect(os.WriteFile(filepath.Join(secretsDir, "PORT"), []byte("not-a-port"), 0o600)).To(Succeed())

			err := execute("check", "--config", dirConfig())
			var validation *envguard.ValidationError
			Expect(errors.As(err, &validation)).To(BeTrue())
			Expect(validation.Keys()).To(Equal([]string{"PORT"}))
			Expect(stderr.String()).To(ContainSubstring("PORT: must be an integer"))
			Expect(stdout.String()).To(BeEmpty())
		})

		It("should resolve against the process environment without store modules", func() {
			GinkgoT().Setenv("ENVGUARD_CLI_MODE", "production")
			GinkgoT().Setenv("ENVGUARD_CLI_TOKEN", "abc")

			path := writeFile("envguard.toml", `
[variables.ENVGUARD_CLI_MODE]
type = "literal"
value = "production"

[variables.ENVGUARD_CLI_TOKEN]
unset = true
`)
			Expect(execute("check", "--config", path)).To(Succeed())
			Expect(output()).To(Equal(map[string]any{
				"ENVGUARD_CLI_MODE":  "production",
				"ENVGUARD_CLI_TOKEN": masked,
			}))

			_, found := os.LookupEnv("ENVGUARD_CLI_TOKEN")
			Expect(found).To(BeFalse())
		})

		It("should require a variables module", func() {
			err := execute("check", "--config", writeFile("empty.yaml", "dir:\n  path: /tmp\n"))
			Expect(err).To(MatchError("variables configuration is required"))
		})

		It("should report invalid store modules", func() {
			path := writeFile("bad.yaml", `
redis:
  address: localhost:6379
variables:
  A: {}
`)
			err := execute("check", "--config", path)
			Expect(err).To(MatchError(ContainSubstring("failed to load Redis configuration")))
			Expect(err).To(MatchError(ContainSubstring("redis key must be set and non-empty")))
		})

		It("should report a missing secrets directory", func() {
			path := writeFile("missing.yaml", `
dir:
  path: /definitely/not/here
variables:
  A: {}
`)
			err := execute("check", "--config", path)
			Expect(err).To(MatchError(ContainSubstring("does not exist")))
		})
	})
})
