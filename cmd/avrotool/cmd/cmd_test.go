package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/avrokit/compress"
	"github.com/arloliu/avrokit/container"
	"github.com/arloliu/avrokit/errs"
	"github.com/arloliu/avrokit/schema"
	"github.com/arloliu/avrokit/value"
)

const eventSchema = `{"type": "record", "name": "Event", "fields": [
	{"name": "id", "type": "int"},
	{"name": "kind", "type": {"type": "enum", "name": "Kind", "symbols": ["A", "B"]}}
]}`

const eventV2Schema = `{"type": "record", "name": "Event", "fields": [
	{"name": "id", "type": "long"},
	{"name": "kind", "type": {"type": "enum", "name": "Kind", "symbols": ["A", "B"]}},
	{"name": "note", "type": "string", "default": "none"}
]}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()

	return out.String(), err
}

func writeEvents(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.avro")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := container.NewWriter(f, schema.MustParse(eventSchema),
		container.WithCodec(compress.Deflate),
		container.WithBlockRecords(2),
		container.WithMetadata("origin", []byte("test")),
	)
	require.NoError(t, err)
	for i := range n {
		require.NoError(t, w.Append(value.Record(
			value.F("id", value.Int(int32(i))),
			value.F("kind", value.Enum(i%2, []string{"A", "B"}[i%2])),
		)))
	}
	require.NoError(t, w.Close())

	return path
}

func writeSchema(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.avsc")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))

	return path
}

func TestCat(t *testing.T) {
	out, err := run(t, "cat", writeEvents(t, 3))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Equal(t, []string{
		`{"id":0,"kind":"A"}`,
		`{"id":1,"kind":"B"}`,
		`{"id":2,"kind":"A"}`,
	}, lines)
}

func TestCat_ReaderSchemaAndLimit(t *testing.T) {
	path := writeEvents(t, 5)
	out, err := run(t, "cat", "--reader-schema", writeSchema(t, eventV2Schema), "--limit", "2", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Equal(t, []string{
		`{"id":0,"kind":"A","note":"none"}`,
		`{"id":1,"kind":"B","note":"none"}`,
	}, lines)
}

func TestCat_NotAContainer(t *testing.T) {
	path := writeSchema(t, eventSchema)
	_, err := run(t, "cat", path)
	require.ErrorIs(t, err, errs.ErrInvalidMagic)
}

func TestInfo(t *testing.T) {
	out, err := run(t, "info", "--blocks", writeEvents(t, 5))
	require.NoError(t, err)

	require.Contains(t, out, "Codec:")
	require.Contains(t, out, "deflate")
	require.Contains(t, out, `Meta origin:`)
	require.Contains(t, out, `"test"`)
	require.Regexp(t, `Blocks:\s+3`, out)
	require.Regexp(t, `Records:\s+5`, out)
}

func TestFingerprint(t *testing.T) {
	out, err := run(t, "fingerprint", `"int"`)
	require.NoError(t, err)
	require.Equal(t, "7275d51a3f395c8f\n", out)

	out, err = run(t, "fingerprint", "--algo", "sha256", writeSchema(t, `"int"`))
	require.NoError(t, err)
	require.Len(t, strings.TrimSpace(out), 64)

	out, err = run(t, "fingerprint", "--algo", "xxh64", `"int"`)
	require.NoError(t, err)
	require.Len(t, strings.TrimSpace(out), 16)

	_, err = run(t, "fingerprint", "--algo", "md5", `"int"`)
	require.Error(t, err)
}

func TestCanonical(t *testing.T) {
	out, err := run(t, "canonical", `{"type": "fixed", "name": "H", "namespace": "x", "size": 4, "doc": "hash"}`)
	require.NoError(t, err)
	require.Equal(t, `{"name":"x.H","type":"fixed","size":4}`+"\n", out)
}

func TestResolve(t *testing.T) {
	out, err := run(t, "resolve", writeSchema(t, eventSchema), writeSchema(t, eventV2Schema))
	require.NoError(t, err)
	require.Contains(t, out, "compatible")
	require.Contains(t, out, "unresolved branches: 0")

	_, err = run(t, "resolve", writeSchema(t, eventV2Schema), writeSchema(t, eventSchema))
	require.ErrorIs(t, err, errs.ErrTypeMismatch)
}

func TestResolve_PartialUnion(t *testing.T) {
	out, err := run(t, "resolve", `["null", "boolean", "int"]`, `["null", "long"]`)
	require.NoError(t, err)
	require.Contains(t, out, "unresolved branches: 1")
}
