package lib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHexBytesJSON(t *testing.T) {
	expected := HexBytes{0x02, 0xab}
	bz, err := MarshalJSON(expected)
	require.NoError(t, err)
	require.Equal(t, `"02ab"`, string(bz))
	got := new(HexBytes)
	require.NoError(t, UnmarshalJSON(bz, got))
	require.Equal(t, expected, *got)
	// invalid hex
	require.Error(t, UnmarshalJSON([]byte(`"zz"`), got))
}

func TestJoinAndDecodeLenPrefix(t *testing.T) {
	tests := []struct {
		name     string
		detail   string
		segments [][]byte
	}{
		{
			name:     "single",
			detail:   "one segment round trips",
			segments: [][]byte{[]byte("reg")},
		},
		{
			name:     "multiple",
			detail:   "segments keep their boundaries",
			segments: [][]byte{[]byte("vote"), []byte("voter"), []byte("candidate")},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.segments, DecodeLengthPrefixed(JoinLenPrefix(test.segments...)))
		})
	}
	// nil segments are skipped
	require.Equal(t, JoinLenPrefix([]byte("a")), JoinLenPrefix([]byte("a"), nil))
	// a truncated key decodes to nothing
	require.Nil(t, DecodeLengthPrefixed([]byte{5, 'a'}))
}

func TestSaveAndReadJSONFile(t *testing.T) {
	dir := t.TempDir()
	type object struct {
		Name  string   `json:"name"`
		Bytes HexBytes `json:"bytes"`
	}
	expected := object{Name: "mn", Bytes: HexBytes{1, 2}}
	require.NoError(t, SaveJSONToFile(expected, dir, "object.json"))
	got := object{}
	require.NoError(t, NewJSONFromFile(&got, dir, "object.json"))
	require.Equal(t, expected, got)
	// missing file
	err := NewJSONFromFile(&got, dir, "missing.json")
	require.Error(t, err)
	require.Equal(t, CodeReadFile, err.Code())
}

func TestSortedKeys(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 3, "a": 1, "b": 2}))
	require.Empty(t, SortedKeys(map[string]int{}))
}

func TestErrorIdentity(t *testing.T) {
	err := NewError(CodeAlreadyVoted, StateMachineModule, "bad-validator-already-voted")
	require.Contains(t, err.Error(), "bad-validator-already-voted")
	require.True(t, IsErrorCode(err, StateMachineModule, CodeAlreadyVoted))
	require.False(t, IsErrorCode(err, StoreModule, CodeAlreadyVoted))
	require.False(t, IsErrorCode(nil, StateMachineModule, CodeAlreadyVoted))
	require.True(t, err.Is(NewError(CodeAlreadyVoted, StateMachineModule, "other message")))
}
