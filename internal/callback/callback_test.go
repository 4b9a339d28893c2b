package callback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want Data
	}{
		{name: "plain", raw: "abcd1234^^^3^^^next", want: Data{CID: "abcd1234", Index: 3, Op: OpNext}},
		{name: "one flag", raw: "abcd1234^^^0^^^add^^st=a", want: Data{CID: "abcd1234", Index: 0, Op: OpAdd, Flags: []Flag{{Key: "st", Value: "a"}}}},
		{
			name: "ordered flags",
			raw:  "abcd1234^^^1^^^add^^tt=5&td=1",
			want: Data{CID: "abcd1234", Index: 1, Op: OpAdd, Flags: []Flag{{Key: "tt", Value: "5"}, {Key: "td", Value: "1"}}},
		},
		{name: "escaped", raw: "c^^^0^^^add^^p=%2Fmnt%2Ftv", want: Data{CID: "c", Op: OpAdd, Flags: []Flag{{Key: "p", Value: "/mnt/tv"}}}},
		{name: "user id", raw: "c^^^123456789^^^remove_admin", want: Data{CID: "c", Index: 123456789, Op: OpRemoveAdmin}},
		{name: "blank flag skipped", raw: "c^^^0^^^add^^q=", want: Data{CID: "c", Op: OpAdd}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "abc", "abc^^^1", "^^^1^^^next", "abc^^^x^^^next", "abc^^^1^^^", "a^^^1^^^b^^^c"} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrMalformed, raw)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	d := New("abcd1234", 2, OpAdd).With("tt", "12").With("td", "1")
	raw := Encode(d)
	assert.Equal(t, "abcd1234^^^2^^^add^^tt=12&td=1", raw)
	parsed, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
	assert.Equal(t, "abcd1234", CID(raw))
}

func TestWithDoesNotShareFlags(t *testing.T) {
	t.Parallel()

	base := New("c", 0, OpAdd).With("q", "1")
	a := base.With("p", "1")
	b := base.With("p", "2")
	assert.Equal(t, "1", a.Flags[1].Value)
	assert.Equal(t, "2", b.Flags[1].Value)
	assert.Len(t, base.Flags, 1)
}

func TestTypicalPayloadsFitTelegramLimit(t *testing.T) {
	t.Parallel()

	payloads := []Data{
		New("abcd1234", 49, OpAdd).With("tt", "1234"),
		New("abcd1234", 9007199254740991, OpRemoveAdmin),
		New("abcd1234", 0, OpAdd).With("td", "1"),
	}
	for _, d := range payloads {
		assert.LessOrEqual(t, len(Encode(d)), 64, Encode(d))
	}
}

func TestKnown(t *testing.T) {
	t.Parallel()

	assert.True(t, OpMakeAdmin.Known())
	assert.False(t, Op("explode").Known())
}
