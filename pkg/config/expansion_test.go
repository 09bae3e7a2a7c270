package config

import (
	"github.com/animalet/envguard/pkg/envguard"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Expansion", func() {
	var e *expander

	BeforeEach(func() {
		e = &expander{source: envguard.NewMapSource(map[string]string{
			"HOST":  "resolved-host",
			"TOKEN": "resolved-token",
		})}
	})

	It("should expand string fields", func() {
		type testStruct struct {
			Value string
			Plain string
		}
		s := testStruct{Value: "${HOST}", Plain: "  untouched  "}
		e.walk(reflectOf(&s))
		Expect(e.err).NotTo(HaveOccurred())
		Expect(s.Value).To(Equal("resolved-host"))
		Expect(s.Plain).To(Equal("untouched"))
	})

	It("should expand nested structs and pointers", func() {
		type nested struct {
			Value string
		}
		type testStruct struct {
			Nested nested
			Ptr    *string
			Nil    *string
		}
		val := "$TOKEN"
		s := testStruct{Nested: nested{Value: "${HOST}"}, Ptr: &val}
		e.walk(reflectOf(&s))
		Expect(s.Nested.Value).To(Equal("resolved-host"))
		Expect(*s.Ptr).To(Equal("resolved-token"))
		Expect(s.Nil).To(BeNil())
	})

	It("should expand slices and maps", func() {
		type testStruct struct {
			List []string
			Map  map[string]string
			Any  map[string]any
		}
		s := testStruct{
			List: []string{"${HOST}", "literal"},
			Map:  map[string]string{"k": "${TOKEN}"},
			Any:  map[string]any{"s": "${HOST}", "n": 3},
		}
		e.walk(reflectOf(&s))
		Expect(s.List).To(Equal([]string{"resolved-host", "literal"}))
		Expect(s.Map).To(HaveKeyWithValue("k", "resolved-token"))
		Expect(s.Any).To(HaveKeyWithValue("s", "resolved-host"))
		Expect(s.Any).To(HaveKeyWithValue("n", 3))
	})

	It("should expand missing variables to empty strings", func() {
		s := struct{ Value string }{Value: "a${MISSING}b"}
		e.walk(reflectOf(&s))
		Expect(e.err).NotTo(HaveOccurred())
		Expect(s.Value).To(Equal("ab"))
	})

	It("should fail against a tainted source", func() {
		e.source = envguard.Taint(e.source)
		s := struct{ Value string }{Value: "${HOST}"}
		e.walk(reflectOf(&s))
		Expect(e.err).To(MatchError(envguard.ErrTainted))
		Expect(e.err).To(MatchError(ContainSubstring(`error expanding "HOST"`)))
	})

	It("should expand through the ambient environment", func() {
		GinkgoT().Setenv("ENVGUARD_EXPANSION", "from-process")
		s := struct{ Value string }{Value: "${ENVGUARD_EXPANSION}"}
		Expect(expandVariables(&s)).To(Succeed())
		Expect(s.Value).To(Equal("from-process"))
	})
})
