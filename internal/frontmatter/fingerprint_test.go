package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fingerprintOf(t *testing.T, content string) string {
	t.Helper()
	doc, err := Parse([]byte(content))
	require.NoError(t, err)
	fp, err := doc.Fingerprint()
	require.NoError(t, err)
	require.NotEmpty(t, fp)
	return fp
}

func TestFingerprint_IgnoresFrontmatterFormatting(t *testing.T) {
	a := fingerprintOf(t, "---\ntitle: About\nslug: about\n---\nBody\n")
	b := fingerprintOf(t, "---\nslug:   about\ntitle: 'About'\n---\nBody\n")
	require.Equal(t, a, b)
}

func TestFingerprint_IgnoresLineEndings(t *testing.T) {
	a := fingerprintOf(t, "---\nslug: about\n---\nBody\n")
	b := fingerprintOf(t, "---\r\nslug: about\r\n---\r\nBody\r\n")
	require.Equal(t, a, b)
}

func TestFingerprint_ChangesWithContent(t *testing.T) {
	a := fingerprintOf(t, "---\nslug: about\n---\nBody\n")
	require.NotEqual(t, a, fingerprintOf(t, "---\nslug: about-us\n---\nBody\n"))
	require.NotEqual(t, a, fingerprintOf(t, "---\nslug: about\n---\nOther body\n"))
}

func TestFingerprintRaw(t *testing.T) {
	require.Equal(t, FingerprintRaw([]byte("a: 1\n")), FingerprintRaw([]byte("a: 1\n")))
	require.NotEqual(t, FingerprintRaw([]byte("a: 1\n")), FingerprintRaw([]byte("a: 2\n")))
}

func TestCanonicalYAML_SortsKeysRecursively(t *testing.T) {
	out, err := canonicalYAML(map[string]any{
		"outer": map[string]any{"b": 2, "a": 1},
		"list":  []any{"x", true},
	})
	require.NoError(t, err)
	require.Equal(t, "list:\n  - x\n  - true\nouter:\n  a: 1\n  b: 2\n", string(out))
}
