package markdown

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyEdits_SingleReplacement(t *testing.T) {
	src := []byte(`<img src="_static/foo.png">` + "\n")
	old := []byte("_static/foo.png")
	idx := bytes.Index(src, old)
	require.NotEqual(t, -1, idx)

	out, err := ApplyEdits(src, []Edit{{Start: idx, End: idx + len(old), Replacement: []byte("../../_static/orchestrator/foo.png")}})
	require.NoError(t, err)
	require.Equal(t, `<img src="../../_static/orchestrator/foo.png">`+"\n", string(out))
	require.Equal(t, `<img src="_static/foo.png">`+"\n", string(src), "source must not be modified")
}

func TestApplyEdits_UnorderedEdits(t *testing.T) {
	src := []byte("A: _static/a.png\r\nB: _static/b.png\r\n")
	a := bytes.Index(src, []byte("_static/a.png"))
	b := bytes.Index(src, []byte("_static/b.png"))

	out, err := ApplyEdits(src, []Edit{
		{Start: b, End: b + len("_static/b.png"), Replacement: []byte("B")},
		{Start: a, End: a + len("_static/a.png"), Replacement: []byte("../_static/x/a.png")},
	})
	require.NoError(t, err)
	require.Equal(t, "A: ../_static/x/a.png\r\nB: B\r\n", string(out))
}

func TestApplyEdits_NoEdits(t *testing.T) {
	src := []byte("unchanged")
	out, err := ApplyEdits(src, nil)
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestApplyEdits_RejectsInvalidEdits(t *testing.T) {
	src := []byte("abcdef")
	_, err := ApplyEdits(src, []Edit{
		{Start: 1, End: 4, Replacement: []byte("X")},
		{Start: 3, End: 5, Replacement: []byte("Y")},
	})
	require.Error(t, err)

	_, err = ApplyEdits(src, []Edit{{Start: 4, End: 2}})
	require.Error(t, err)

	_, err = ApplyEdits(src, []Edit{{Start: 2, End: 99}})
	require.Error(t, err)
}
