package backupcode_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mfakit/pkg/backupcode"
)

var codeFormat = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{5}-[A-HJ-NP-Z2-9]{5}$`)

func newManager(t *testing.T) *backupcode.Manager {
	t.Helper()
	m, err := backupcode.New("test-pepper")
	require.NoError(t, err)
	return m
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := backupcode.New("")
	assert.ErrorIs(t, err, backupcode.ErrPepperNotSet)
	assert.Panics(t, func() { backupcode.MustNew("") })
	assert.NotPanics(t, func() { backupcode.MustNew("pepper") })
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{name: "Generate default batch", count: backupcode.DefaultCount},
		{name: "Generate 1 code", count: 1},
		{name: "Generate max", count: backupcode.MaxCount},
		{name: "Generate 0 codes", count: 0, wantErr: true},
		{name: "Generate negative codes", count: -1, wantErr: true},
		{name: "Generate too many", count: backupcode.MaxCount + 1, wantErr: true},
	}

	m := newManager(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			records, err := m.Generate(tt.count)
			if tt.wantErr {
				assert.ErrorIs(t, err, backupcode.ErrInvalidCount)
				assert.Nil(t, records)
				return
			}

			require.NoError(t, err)
			require.Len(t, records, tt.count)

			codes := make(map[string]bool)
			hashes := make(map[backupcode.Hash]bool)
			for _, r := range records {
				assert.Regexp(t, codeFormat, r.Code)
				assert.Len(t, string(r.Hash), 64)
				assert.Equal(t, m.Hash(r.Code), r.Hash)
				assert.False(t, codes[r.Code], "duplicate code")
				assert.False(t, hashes[r.Hash], "duplicate hash")
				codes[r.Code] = true
				hashes[r.Hash] = true
			}
		})
	}
}

func TestHash(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	h := m.Hash("ABCDE-FGHJK")
	assert.Equal(t, h, m.Hash("abcdefghjk"))
	assert.Equal(t, h, m.Hash(" abcde fghjk \n"))
	assert.NotEqual(t, h, m.Hash("ABCDE-FGHJM"))

	other, err := backupcode.New("another-pepper")
	require.NoError(t, err)
	assert.NotEqual(t, h, other.Hash("ABCDE-FGHJK"), "pepper must key the digest")
	assert.NotContains(t, string(h), "ABCDE")
}

func TestConsume(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	records, err := m.Generate(2)
	require.NoError(t, err)
	h1, h2 := records[0].Hash, records[1].Hash
	hashes := []backupcode.Hash{h1, h2}

	next, ok := m.Consume(records[0].Code, hashes)
	require.True(t, ok)
	assert.Equal(t, []backupcode.Hash{h2}, next)
	assert.Equal(t, []backupcode.Hash{h1, h2}, hashes, "input must not be modified")

	again, ok := m.Consume(records[0].Code, next)
	assert.False(t, ok)
	assert.Nil(t, again)

	last, ok := m.Consume(strings.ToLower(records[1].Code), next)
	require.True(t, ok)
	assert.Empty(t, last)
	assert.NotNil(t, last)
}

func TestConsume_NoMatch(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	records, err := m.Generate(3)
	require.NoError(t, err)
	hashes := []backupcode.Hash{records[0].Hash, records[1].Hash, records[2].Hash}

	for _, code := range []string{"", "AAAAA-AAAAA", "not a code", string(records[0].Hash)} {
		next, ok := m.Consume(code, hashes)
		assert.False(t, ok, code)
		assert.Nil(t, next)
	}

	other := backupcode.MustNew("different-pepper")
	_, ok := other.Consume(records[0].Code, hashes)
	assert.False(t, ok)
}

func TestConsume_Exhausted(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	for _, hashes := range [][]backupcode.Hash{nil, {}} {
		next, ok := m.Consume("ABCDE-FGHJK", hashes)
		assert.False(t, ok)
		assert.Nil(t, next)
	}
}

func TestConsume_DrainBatch(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	records, err := m.Generate(5)
	require.NoError(t, err)

	hashes := make([]backupcode.Hash, 0, len(records))
	for _, r := range records {
		hashes = append(hashes, r.Hash)
	}

	for i, r := range records {
		next, ok := m.Consume(r.Code, hashes)
		require.True(t, ok)
		require.Len(t, next, len(records)-i-1)
		hashes = next
	}
	assert.Empty(t, hashes)

	next, ok := m.Consume(records[0].Code, hashes)
	assert.False(t, ok)
	assert.Nil(t, next)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ABCDEFGHJK", backupcode.Normalize(" abcde-fghjk\n"))
	assert.Equal(t, "ABCDEFGHJK", backupcode.Normalize("ABCDE FGHJK"))
	assert.Equal(t, "", backupcode.Normalize(" - "))
}

func BenchmarkConsume(b *testing.B) {
	m := backupcode.MustNew("bench-pepper")
	records, _ := m.Generate(backupcode.DefaultCount)
	hashes := make([]backupcode.Hash, 0, len(records))
	for _, r := range records {
		hashes = append(hashes, r.Hash)
	}
	code := records[len(records)-1].Code

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Consume(code, hashes)
	}
}
