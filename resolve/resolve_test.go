package resolve

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/avrokit/errs"
	"github.com/arloliu/avrokit/schema"
)

func mustResolve(t *testing.T, writer, reader string) *Resolved {
	t.Helper()
	res, err := Resolve(schema.MustParse(writer), schema.MustParse(reader))
	require.NoError(t, err)

	return res
}

func resolveErr(writer, reader string) error {
	_, err := Resolve(schema.MustParse(writer), schema.MustParse(reader))
	return err
}

func TestResolve_Identity(t *testing.T) {
	const text = `{"type": "record", "name": "R", "fields": [
		{"name": "a", "type": "int"},
		{"name": "b", "type": {"type": "array", "items": "string"}}
	]}`
	res := mustResolve(t, text, text)

	root := res.Root()
	require.Equal(t, Record, root.Action)
	require.Len(t, root.Fields, 2)
	require.Empty(t, root.Defaults)
	require.Equal(t, []string{"a", "b"}, root.ReaderFields)
	require.Equal(t, Direct, root.Fields[0].Node.Action)
	require.Equal(t, Array, root.Fields[1].Node.Action)
	require.Equal(t, Direct, root.Fields[1].Node.Items.Action)
}

func TestResolve_Promotion(t *testing.T) {
	ok := [][2]string{
		{"int", "long"}, {"int", "float"}, {"int", "double"},
		{"long", "float"}, {"long", "double"},
		{"float", "double"},
		{"string", "bytes"}, {"bytes", "string"},
	}
	for _, pair := range ok {
		t.Run(pair[0]+"->"+pair[1], func(t *testing.T) {
			res := mustResolve(t, `"`+pair[0]+`"`, `"`+pair[1]+`"`)
			require.Equal(t, Direct, res.Root().Action)
		})
	}

	bad := [][2]string{
		{"long", "int"}, {"double", "float"}, {"int", "string"}, {"boolean", "int"}, {"null", "string"},
	}
	for _, pair := range bad {
		t.Run(pair[0]+"-/->"+pair[1], func(t *testing.T) {
			require.ErrorIs(t, resolveErr(`"`+pair[0]+`"`, `"`+pair[1]+`"`), errs.ErrTypeMismatch)
		})
	}
}

func TestResolve_RecordEvolution(t *testing.T) {
	writer := `{"type": "record", "name": "User", "fields": [
		{"name": "id", "type": "int"},
		{"name": "legacy", "type": "string"},
		{"name": "mail", "type": "string", "aliases": ["email"]}
	]}`
	reader := `{"type": "record", "name": "User", "fields": [
		{"name": "email", "type": "string"},
		{"name": "id", "type": "long"},
		{"name": "active", "type": "boolean", "default": true}
	]}`
	root := mustResolve(t, writer, reader).Root()

	require.Equal(t, []string{"email", "id", "active"}, root.ReaderFields)
	require.Len(t, root.Fields, 3)

	id := root.Fields[0]
	require.False(t, id.Skip)
	require.Equal(t, 1, id.Index)

	legacy := root.Fields[1]
	require.True(t, legacy.Skip)
	require.Equal(t, schema.KindString, legacy.Writer.Kind)

	mail := root.Fields[2]
	require.False(t, mail.Skip)
	require.Equal(t, 0, mail.Index)

	require.Len(t, root.Defaults, 1)
	require.Equal(t, 2, root.Defaults[0].Index)
	require.True(t, root.Defaults[0].Value.Bool())
}

func TestResolve_MissingField(t *testing.T) {
	err := resolveErr(
		`{"type": "record", "name": "R", "fields": [{"name": "a", "type": "int"}]}`,
		`{"type": "record", "name": "R", "fields": [{"name": "a", "type": "int"}, {"name": "b", "type": "int"}]}`,
	)
	require.ErrorIs(t, err, errs.ErrMissingField)

	var re *errs.ResolutionError
	require.ErrorAs(t, err, &re)
	require.Equal(t, "b", re.Field)
	require.Equal(t, "R.b", re.Path)
}

func TestResolve_RecordNames(t *testing.T) {
	require.ErrorIs(t, resolveErr(
		`{"type": "record", "name": "A", "fields": []}`,
		`{"type": "record", "name": "B", "fields": []}`,
	), errs.ErrNameMismatch)

	mustResolve(t,
		`{"type": "record", "name": "old.A", "fields": []}`,
		`{"type": "record", "name": "new.B", "aliases": ["old.A"], "fields": []}`,
	)
}

func TestResolve_EnumEvolution(t *testing.T) {
	writer := `{"type": "enum", "name": "E", "symbols": ["A", "B"]}`

	root := mustResolve(t, writer, `{"type": "enum", "name": "E", "symbols": ["C", "A"], "default": "A"}`).Root()
	require.Equal(t, Enum, root.Action)
	require.Equal(t, []int{1, 1}, root.Symbols)

	root = mustResolve(t, writer, `{"type": "enum", "name": "E", "symbols": ["B", "A"]}`).Root()
	require.Equal(t, []int{1, 0}, root.Symbols)

	err := resolveErr(writer, `{"type": "enum", "name": "E", "symbols": ["A", "C"]}`)
	require.ErrorIs(t, err, errs.ErrUnknownSymbol)
	var re *errs.ResolutionError
	require.ErrorAs(t, err, &re)
	require.Equal(t, "B", re.Symbol)
}

func TestResolve_Fixed(t *testing.T) {
	mustResolve(t, `{"type": "fixed", "name": "F", "size": 4}`, `{"type": "fixed", "name": "F", "size": 4}`)

	require.ErrorIs(t, resolveErr(
		`{"type": "fixed", "name": "F", "size": 4}`,
		`{"type": "fixed", "name": "F", "size": 8}`,
	), errs.ErrSizeMismatch)
	require.ErrorIs(t, resolveErr(
		`{"type": "fixed", "name": "F", "size": 4}`,
		`{"type": "fixed", "name": "G", "size": 4}`,
	), errs.ErrNameMismatch)
}

func TestResolve_Decimal(t *testing.T) {
	mustResolve(t,
		`{"type": "bytes", "logicalType": "decimal", "precision": 9, "scale": 2}`,
		`{"type": "bytes", "logicalType": "decimal", "precision": 9, "scale": 2}`,
	)
	require.ErrorIs(t, resolveErr(
		`{"type": "bytes", "logicalType": "decimal", "precision": 9, "scale": 2}`,
		`{"type": "bytes", "logicalType": "decimal", "precision": 9, "scale": 3}`,
	), errs.ErrDecimalMismatch)

	res := mustResolve(t, `"bytes"`, `{"type": "bytes", "logicalType": "decimal", "precision": 4}`)
	require.Equal(t, Direct, res.Root().Action)
}

func TestResolve_UnionBranchReordering(t *testing.T) {
	root := mustResolve(t, `["null", "int"]`, `["int", "null"]`).Root()
	require.Equal(t, WriterUnion, root.Action)
	require.Len(t, root.Branches, 2)

	nullBranch := root.Branches[0]
	require.Equal(t, ReaderUnion, nullBranch.Action)
	require.Equal(t, 1, nullBranch.Branch)

	intBranch := root.Branches[1]
	require.Equal(t, ReaderUnion, intBranch.Action)
	require.Equal(t, 0, intBranch.Branch)
}

func TestResolve_ReaderUnionPrefersExactBranch(t *testing.T) {
	root := mustResolve(t, `"int"`, `["null", "long", "int"]`).Root()
	require.Equal(t, ReaderUnion, root.Action)
	require.Equal(t, 2, root.Branch)

	root = mustResolve(t, `"int"`, `["null", "double", "long"]`).Root()
	require.Equal(t, 1, root.Branch, "first promotable branch when no exact match")

	require.ErrorIs(t, resolveErr(`"boolean"`, `["null", "string"]`), errs.ErrNoMatchingBranch)
}

func TestResolve_WriterUnionDefersBranchErrors(t *testing.T) {
	root := mustResolve(t, `["null", "boolean", "int"]`, `["null", "long"]`).Root()
	require.Equal(t, WriterUnion, root.Action)
	require.NotNil(t, root.Branches[0])
	require.Nil(t, root.Branches[1])
	require.ErrorIs(t, root.BranchErrs[1], errs.ErrNoMatchingBranch)
	require.NotNil(t, root.Branches[2])

	// Writer union against a non-union reader.
	root = mustResolve(t, `["null", "string"]`, `"string"`).Root()
	require.Error(t, root.BranchErrs[0])
	require.Equal(t, Direct, root.Branches[1].Action)
}

func TestResolve_Recursive(t *testing.T) {
	const list = `{"type": "record", "name": "List", "fields": [
		{"name": "value", "type": "int"},
		{"name": "next", "type": ["null", "List"]}
	]}`
	const wide = `{"type": "record", "name": "List", "fields": [
		{"name": "value", "type": "long"},
		{"name": "next", "type": ["null", "List"]}
	]}`
	root := mustResolve(t, list, wide).Root()

	next := root.Fields[1].Node
	require.Equal(t, WriterUnion, next.Action)
	require.Equal(t, ReaderUnion, next.Branches[1].Action)
	require.Same(t, root, next.Branches[1].Inner, "recursive pair resolves to the same plan")
}

func TestWalk_VisitsEachNodeOnce(t *testing.T) {
	const list = `{"type": "record", "name": "List", "fields": [
		{"name": "value", "type": "int"},
		{"name": "tags", "type": {"type": "array", "items": "string"}},
		{"name": "next", "type": ["null", "List"]}
	]}`
	root := mustResolve(t, list, list).Root()

	visits := map[*Node]int{}
	actions := map[Action]int{}
	Walk(root, func(n *Node) {
		visits[n]++
		actions[n.Action]++
	})

	require.Equal(t, 1, visits[root])
	for n, c := range visits {
		require.Equal(t, 1, c, "node %s visited more than once", n.Action)
	}
	require.Equal(t, 1, actions[Record])
	require.Equal(t, 1, actions[Array])
	require.Equal(t, 1, actions[WriterUnion])
}

func TestCache(t *testing.T) {
	writer := schema.MustParse(`{"type": "record", "name": "R", "fields": [{"name": "a", "type": "int"}]}`)
	reader := schema.MustParse(`{"type": "record", "name": "R", "fields": [{"name": "a", "type": "long"}]}`)
	other := schema.MustParse(`{"type": "record", "name": "R", "fields": [{"name": "a", "type": "long"}]}`)

	c := NewCache()
	var wg sync.WaitGroup
	results := make([]*Resolved, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.Resolve(writer, reader)
			if err == nil {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		require.Same(t, results[0], res)
	}
	require.Equal(t, 1, c.Len())

	again, err := c.Resolve(writer, other)
	require.NoError(t, err)
	require.Same(t, results[0], again, "structurally identical schemas share an entry")

	_, err = c.Resolve(reader, schema.MustParse(`"string"`))
	require.True(t, errors.Is(err, errs.ErrTypeMismatch))
	require.Equal(t, 1, c.Len(), "failures are not cached")

	c.Purge()
	require.Zero(t, c.Len())
}

func TestCache_HashCollisionKeepsPairsApart(t *testing.T) {
	c := NewCache()
	c.keyFn = func(string, string) uint64 { return 1 }

	intToLong, err := c.Resolve(schema.MustParse(`"int"`), schema.MustParse(`"long"`))
	require.NoError(t, err)
	floatToDouble, err := c.Resolve(schema.MustParse(`"float"`), schema.MustParse(`"double"`))
	require.NoError(t, err)

	require.NotSame(t, intToLong, floatToDouble)
	require.Equal(t, 2, c.Len())
	require.Equal(t, 1, c.Collisions())

	again, err := c.Resolve(schema.MustParse(`"float"`), schema.MustParse(`"double"`))
	require.NoError(t, err)
	require.Same(t, floatToDouble, again)

	first, err := c.Resolve(schema.MustParse(`"int"`), schema.MustParse(`"long"`))
	require.NoError(t, err)
	require.Same(t, intToLong, first)
	require.Equal(t, 2, c.Len())

	c.Purge()
	require.Zero(t, c.Len())
	require.Zero(t, c.Collisions())
}

const (
	failedRecursionWriter = `{"type": "record", "name": "Root", "fields": [
		{"name": "x", "type": ["null", {"type": "record", "name": "A", "fields": [
			{"name": "c", "type": {"type": "record", "name": "C", "fields": [
				{"name": "back", "type": ["null", "A"]}
			]}},
			{"name": "bad", "type": "int"}
		]}]},
		{"name": "y", "type": "C"}
	]}`
	failedRecursionReader = `{"type": "record", "name": "Root", "fields": [
		{"name": "x", "type": ["null", {"type": "record", "name": "A", "fields": [
			{"name": "c", "type": {"type": "record", "name": "C", "fields": [
				{"name": "back", "type": ["null", "A"]}
			]}},
			{"name": "bad", "type": "boolean"}
		]}]},
		{"name": "y", "type": "C"}
	]}`
)

func TestResolve_FailedNamedTypeDropsDependentPlans(t *testing.T) {
	res := mustResolve(t, failedRecursionWriter, failedRecursionReader)

	Walk(res.Root(), func(n *Node) {
		for _, f := range n.Fields {
			if !f.Skip {
				require.NotNil(t, f.Node, "field %s has no plan", f.Name)
			}
		}
		for i, b := range n.Branches {
			if b == nil {
				require.Error(t, n.BranchErrs[i])
			}
		}
	})

	x := res.Root().Fields[0].Node
	require.Equal(t, WriterUnion, x.Action)
	require.Nil(t, x.Branches[1])
	require.ErrorIs(t, x.BranchErrs[1], errs.ErrNoMatchingBranch)

	c := res.Root().Fields[1].Node
	require.Equal(t, Record, c.Action)
	back := c.Fields[0].Node
	require.Equal(t, WriterUnion, back.Action)
	require.Nil(t, back.Branches[1], "C resolved afresh sees A as unreadable")
	require.ErrorIs(t, back.BranchErrs[1], errs.ErrNoMatchingBranch)
}
