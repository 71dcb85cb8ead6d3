package docstore

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jsondocs/internal/value"
)

func makeDocs(n int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		docs[i] = testDoc(fmt.Sprintf("doc-%04d", i), value.P("n", value.Int(i)))
	}
	return docs
}

func TestCreate_Single(t *testing.T) {
	s := createTestStore(t, 0)
	flushes := recordFlushes(s)

	doc := testDoc("one",
		value.P("title", value.String(`say "hi"`)),
		value.P("gone", value.Null{}),
		value.P("tags", value.Strings("a", "b")),
	)
	require.NoError(t, s.CreateOne(context.Background(), doc))

	assert.Equal(t, `{"id":"one","title":"say \"hi\"","tags":["a","b"]}`, readBody(t, s, "one"))
	assert.Equal(t, []int{1}, *flushes)
}

func TestCreate_Empty(t *testing.T) {
	s := createTestStore(t, 0)
	flushes := recordFlushes(s)

	require.NoError(t, s.Create(context.Background(), nil))
	require.NoError(t, s.Create(context.Background(), []Document{}))

	assert.Empty(t, *flushes)
	assert.Equal(t, 0, countDocs(t, s))
}

func TestCreate_NilBodyStoredAsEmptyObject(t *testing.T) {
	s := createTestStore(t, 0)

	require.NoError(t, s.CreateOne(context.Background(), Document{ID: "bare"}))
	assert.Equal(t, "{}", readBody(t, s, "bare"))
}

func TestCreate_BatchFlushPoints(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{1, []int{1}},
		{2, []int{2}},
		{99, []int{99}},
		{100, []int{100}},
		{101, []int{100, 1}},
		{200, []int{100, 100}},
		{250, []int{100, 100, 50}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			s := createTestStore(t, 0)
			flushes := recordFlushes(s)

			docs := makeDocs(tt.n)
			require.NoError(t, s.Create(context.Background(), docs))

			assert.Equal(t, tt.want, *flushes)
			assert.Len(t, *flushes, (tt.n+DefaultBatchSize-1)/DefaultBatchSize)
			assert.Equal(t, tt.n, countDocs(t, s))
		})
	}
}

func TestCreate_PreservesOrder(t *testing.T) {
	s := createTestStore(t, 3)
	flushes := recordFlushes(s)

	ids := []string{"g", "c", "a", "f", "b", "e", "d"}
	docs := make([]Document, len(ids))
	for i, id := range ids {
		docs[i] = testDoc(id)
	}
	require.NoError(t, s.Create(context.Background(), docs))

	assert.Equal(t, []int{3, 3, 1}, *flushes)
	assert.Equal(t, ids, storedIDs(t, s))
}

func TestCreate_DuplicateInLaterBatchKeepsEarlierFlushes(t *testing.T) {
	s := createTestStore(t, 2)
	flushes := recordFlushes(s)

	docs := []Document{testDoc("a"), testDoc("b"), testDoc("c"), testDoc("a")}
	err := s.Create(context.Background(), docs)
	require.Error(t, err)
	assert.True(t, IsStorageError(err))

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "create", se.Op)
	assert.NotNil(t, se.Unwrap())

	// First batch was flushed and is not rolled back.
	assert.Equal(t, []int{2}, *flushes)
	assert.Equal(t, []string{"a", "b"}, storedIDs(t, s))
}

func TestCreate_DuplicateOfExistingRow(t *testing.T) {
	s := createTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.CreateOne(ctx, testDoc("dup")))
	err := s.CreateOne(ctx, testDoc("dup"))
	require.Error(t, err)
	assert.True(t, IsStorageError(err))
	assert.Contains(t, strings.ToLower(err.Error()), "unique")
}

func TestCreate_InvalidIDRejectedBeforeSQL(t *testing.T) {
	s := createTestStore(t, 0)
	flushes := recordFlushes(s)

	for _, id := range []string{"", strings.Repeat("x", MaxIDLength+1)} {
		err := s.Create(context.Background(), []Document{testDoc("ok"), {ID: id}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidDocument)
		assert.False(t, IsStorageError(err))
	}

	assert.Empty(t, *flushes)
	assert.Equal(t, 0, countDocs(t, s))
}

func TestCreate_MaxLengthIDAccepted(t *testing.T) {
	s := createTestStore(t, 0)
	id := strings.Repeat("é", MaxIDLength)

	require.NoError(t, s.CreateOne(context.Background(), Document{ID: id}))
	assert.Equal(t, []string{id}, storedIDs(t, s))
}

func TestCreate_EncodingFailureAbortsPendingBatch(t *testing.T) {
	s := createTestStore(t, 2)
	flushes := recordFlushes(s)

	docs := []Document{
		testDoc("a"),
		testDoc("b"),
		testDoc("c"),
		testDoc("d", value.P("bad", value.Float(math.NaN()))),
		testDoc("e"),
	}
	err := s.Create(context.Background(), docs)
	require.Error(t, err)
	assert.True(t, value.IsUnsupportedValueType(err))
	assert.False(t, IsStorageError(err))

	// a,b flushed; c was pending when d failed and is not written.
	assert.Equal(t, []int{2}, *flushes)
	assert.Equal(t, []string{"a", "b"}, storedIDs(t, s))
}

func TestDelete_EmptySetRunsNoStatement(t *testing.T) {
	s := createTestStore(t, 0)
	// A closed connection fails any statement, so success proves none ran.
	s.Shutdown()

	require.NoError(t, s.Delete(context.Background(), nil))
	require.NoError(t, s.Delete(context.Background(), []string{}))

	err := s.Delete(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.True(t, IsStorageError(err))
}

func TestDelete_Single(t *testing.T) {
	s := createTestStore(t, 0)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, []Document{testDoc("a"), testDoc("b")}))

	require.NoError(t, s.Delete(ctx, []string{"a"}))
	assert.Equal(t, []string{"b"}, storedIDs(t, s))
}

func TestDelete_Many(t *testing.T) {
	s := createTestStore(t, 0)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, []Document{testDoc("a"), testDoc("b"), testDoc("c")}))

	require.NoError(t, s.Delete(ctx, []string{"c", "a"}))
	assert.Equal(t, []string{"b"}, storedIDs(t, s))
}

func TestDelete_MissingIDsAreNotAnError(t *testing.T) {
	s := createTestStore(t, 0)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, []Document{testDoc("a"), testDoc("b")}))

	require.NoError(t, s.Delete(ctx, []string{"a", "ghost", "a"}))
	require.NoError(t, s.Delete(ctx, []string{"ghost"}))
	assert.Equal(t, []string{"b"}, storedIDs(t, s))
}

func TestUniqueIDs(t *testing.T) {
	assert.Nil(t, uniqueIDs(nil))
	assert.Equal(t, []string{"a"}, uniqueIDs([]string{"a"}))
	assert.Equal(t, []string{"b", "a", "c"}, uniqueIDs([]string{"b", "a", "b", "c", "a"}))
}

func TestDeleteSQL(t *testing.T) {
	lite := sqliteDialect{}
	assert.Equal(t, "DELETE FROM documents WHERE id = ?", deleteSQL(lite, 1))
	assert.Equal(t, "DELETE FROM documents WHERE id IN (?, ?)", deleteSQL(lite, 2))
	assert.Equal(t, "DELETE FROM documents WHERE id IN (?, ?, ?)", deleteSQL(lite, 3))

	pg := postgresDialect{}
	assert.Equal(t, "DELETE FROM documents WHERE id = $1", deleteSQL(pg, 1))
	assert.Equal(t, "DELETE FROM documents WHERE id IN ($1, $2)", deleteSQL(pg, 2))
}

func TestInsertSQL(t *testing.T) {
	assert.Equal(t, "INSERT INTO documents(id, doc) VALUES (?, ?)", insertSQL(sqliteDialect{}, 1))
	assert.Equal(t, "INSERT INTO documents(id, doc) VALUES (?, ?), (?, ?)", insertSQL(sqliteDialect{}, 2))
	assert.Equal(t, "INSERT INTO documents(id, doc) VALUES ($1, $2::jsonb)", insertSQL(postgresDialect{}, 1))
	assert.Equal(t, "INSERT INTO documents(id, doc) VALUES ($1, $2::jsonb), ($3, $4::jsonb)", insertSQL(postgresDialect{}, 2))
}

func storedMap(t *testing.T, s *Store, id string) *value.Map {
	t.Helper()
	m, err := value.DecodeMap([]byte(readBody(t, s, id)))
	require.NoError(t, err)
	return m
}

func TestUpdate_SetRemoveAndKeep(t *testing.T) {
	s := createTestStore(t, 0)
	ctx := context.Background()
	require.NoError(t, s.CreateOne(ctx, testDoc("u1",
		value.P("title", value.String("old")),
		value.P("keep", value.Int(1)),
		value.P("drop", value.Bool(true)),
		value.P("meta", value.NewMap(value.P("a", value.Int(1)), value.P("b", value.Int(2)))),
	)))

	diff := value.NewMap(
		value.P("title", value.String(`new "title"`)),
		value.P("drop", value.Null{}),
		value.P("meta", value.NewMap(value.P("c", value.Int(3)))),
		value.P("added", value.List{value.Int(1), value.Int(2)}),
	)
	require.NoError(t, s.Update(ctx, "u1", diff, nil))

	got := storedMap(t, s, "u1")
	assert.Equal(t, []string{"id", "title", "keep", "meta", "added"}, got.Keys())
	enc, err := value.Encode(got)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"u1","title":"new \"title\"","keep":1,"meta":{"c":3},"added":[1,2]}`, enc)
}

func TestUpdate_EmptyDiffRunsNoStatement(t *testing.T) {
	s := createTestStore(t, 0)
	s.Shutdown()

	require.NoError(t, s.Update(context.Background(), "any", nil, nil))
	require.NoError(t, s.Update(context.Background(), "any", value.NewMap(), nil))
}

func TestUpdate_NotFound(t *testing.T) {
	s := createTestStore(t, 0)

	err := s.Update(context.Background(), "ghost", value.NewMap(value.P("x", value.Int(1))), nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestUpdate_ChangeToken(t *testing.T) {
	s := createTestStore(t, 0)
	ctx := context.Background()
	require.NoError(t, s.CreateOne(ctx, testDoc("ct",
		value.P(KeyChangeToken, value.Int(3)),
		value.P("v", value.String("a")),
	)))

	// Mismatch: nothing changes.
	err := s.Update(ctx, "ct", value.NewMap(value.P("v", value.String("b"))), &ChangeTokenCheck{Expected: 2})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "ct", ce.ID)
	assert.Equal(t, int64(2), ce.Expected)

	v, _ := storedMap(t, s, "ct").GetString("v")
	assert.Equal(t, "a", v)

	// Match: the diff may advance the token itself.
	diff := value.NewMap(value.P("v", value.String("b")), value.P(KeyChangeToken, value.Int(4)))
	require.NoError(t, s.Update(ctx, "ct", diff, &ChangeTokenCheck{Expected: 3}))

	got := storedMap(t, s, "ct")
	v, _ = got.GetString("v")
	assert.Equal(t, "b", v)
	token, _ := got.Get(KeyChangeToken)
	assert.Equal(t, value.Int(4), token)
}

func TestUpdate_ChangeTokenOnMissingDocument(t *testing.T) {
	s := createTestStore(t, 0)

	err := s.Update(context.Background(), "ghost", value.NewMap(value.P("x", value.Int(1))), &ChangeTokenCheck{Expected: 1})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
}

func TestUpdate_EscapedKeys(t *testing.T) {
	s := createTestStore(t, 0)
	ctx := context.Background()
	require.NoError(t, s.CreateOne(ctx, testDoc("esc",
		value.P(`a\b`, value.Int(1)),
		value.P(`q"k`, value.Int(1)),
		value.P("x", value.Int(0)),
	)))

	diff := value.NewMap(value.P(`a\b`, value.Int(2)), value.P(`q"k`, value.String("v")))
	require.NoError(t, s.Update(ctx, "esc", diff, nil))

	got := storedMap(t, s, "esc")
	assert.Equal(t, []string{"id", `a\b`, `q"k`, "x"}, got.Keys())
	v, _ := got.Get(`a\b`)
	assert.Equal(t, value.Int(2), v)
	v, _ = got.Get(`q"k`)
	assert.Equal(t, value.String("v"), v)

	diff = value.NewMap(value.P(`a\b`, value.Null{}), value.P(`q"k`, value.Null{}))
	require.NoError(t, s.Update(ctx, "esc", diff, nil))
	assert.Equal(t, []string{"id", "x"}, storedMap(t, s, "esc").Keys())
}

func TestUpdate_RejectsIDKey(t *testing.T) {
	s := createTestStore(t, 0)
	ctx := context.Background()
	require.NoError(t, s.CreateOne(ctx, testDoc("keep-id")))

	for _, v := range []value.Value{value.String("other"), value.Null{}} {
		err := s.Update(ctx, "keep-id", value.NewMap(value.P(KeyID, v)), nil)
		assert.ErrorIs(t, err, ErrInvalidDocument)
	}
	id, _ := storedMap(t, s, "keep-id").GetString(KeyID)
	assert.Equal(t, "keep-id", id)
}

func TestUpdate_ChangeTokenStoredAsFloat(t *testing.T) {
	s := createTestStore(t, 0)
	ctx := context.Background()
	require.NoError(t, s.CreateOne(ctx, testDoc("ft", value.P(KeyChangeToken, value.Float(3)))))

	diff := value.NewMap(value.P("v", value.Int(1)))
	require.NoError(t, s.Update(ctx, "ft", diff, &ChangeTokenCheck{Expected: 3}))

	v, _ := storedMap(t, s, "ft").Get("v")
	assert.Equal(t, value.Int(1), v)
}

func TestJSONPath(t *testing.T) {
	assert.Equal(t, `$."plain"`, jsonPath("plain"))
	assert.Equal(t, `$."a\\b"`, jsonPath(`a\b`))
	assert.Equal(t, `$."q\"k"`, jsonPath(`q"k`))
}

func TestUpdate_EncodingFailure(t *testing.T) {
	s := createTestStore(t, 0)
	require.NoError(t, s.CreateOne(context.Background(), testDoc("f")))

	err := s.Update(context.Background(), "f", value.NewMap(value.P("x", value.Float(math.Inf(1)))), nil)
	require.Error(t, err)
	assert.True(t, value.IsUnsupportedValueType(err))
}

func TestPostgresDialect_UpdateSQL(t *testing.T) {
	d := postgresDialect{}
	set := value.NewMap(value.P("title", value.String("t")))

	query, args, err := d.updateSQL([]string{"drop"}, set, "id1", nil)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE documents SET doc = (doc - $1::text[]) || $2::jsonb WHERE id = $3", query)
	require.Len(t, args, 3)
	assert.Equal(t, `{"title":"t"}`, args[1])
	assert.Equal(t, "id1", args[2])

	query, args, err = d.updateSQL(nil, set, "id1", &ChangeTokenCheck{Expected: 7})
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE documents SET doc = (doc - $1::text[]) || $2::jsonb WHERE id = $3 AND (doc->'changeToken') = to_jsonb($4::bigint)",
		query)
	assert.Equal(t, int64(7), args[3])
}

func TestSQLiteDialect_UpdateSQL(t *testing.T) {
	d := sqliteDialect{}
	set := value.NewMap(value.P("n", value.Int(5)))

	query, args, err := d.updateSQL([]string{"a", "b"}, set, "id1", &ChangeTokenCheck{Expected: 9})
	require.NoError(t, err)
	assert.Equal(t,
		`UPDATE documents SET doc = json_set(json_remove(doc, ?, ?), ?, json(?)) WHERE id = ? AND json_extract(doc, '$.changeToken') = ?`,
		query)
	assert.Equal(t, []any{`$."a"`, `$."b"`, `$."n"`, "5", "id1", int64(9)}, args)
}
