package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_AtLeast(t *testing.T) {
	assert.True(t, RoleOwner.AtLeast(RoleAdmin))
	assert.True(t, RoleEditor.AtLeast(RoleEditor))
	assert.False(t, RoleViewer.AtLeast(RoleEditor))
	assert.False(t, Role("").AtLeast(RoleViewer))
	assert.False(t, Role("guest").AtLeast(Role("guest")))

	assert.False(t, RoleOwner.Assignable())
	assert.True(t, RoleViewer.Assignable())
}

func TestApplyOps(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ops     []Op
		want    string
	}{
		{"insert at end", "hello", []Op{{Type: OpInsert, Pos: 5, Text: " world"}}, "hello world"},
		{"insert at start", "world", []Op{{Type: OpInsert, Pos: 0, Text: "hello "}}, "hello world"},
		{"delete", "hello world", []Op{{Type: OpDelete, Pos: 5, Length: 6}}, "hello"},
		{"replace", "hello world", []Op{{Type: OpReplace, Pos: 6, Length: 5, Text: "there"}}, "hello there"},
		{"code points", "héllo 👋", []Op{{Type: OpReplace, Pos: 6, Length: 1, Text: "🌍"}}, "héllo 🌍"},
		{
			"ops see earlier ops",
			"abc",
			[]Op{
				{Type: OpInsert, Pos: 3, Text: "def"},
				{Type: OpDelete, Pos: 0, Length: 1},
				{Type: OpReplace, Pos: 4, Length: 1, Text: "F"},
			},
			"bcdeF",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyOps(tt.content, tt.ops)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyOps_RejectsWholeBatch(t *testing.T) {
	bad := [][]Op{
		nil,
		{{Type: OpInsert, Pos: 6, Text: "x"}},
		{{Type: OpInsert, Pos: -1, Text: "x"}},
		{{Type: OpDelete, Pos: 3, Length: 3}},
		{{Type: OpDelete, Pos: 0, Length: 0}},
		{{Type: OpInsert, Pos: 0, Text: ""}},
		{{Type: "move", Pos: 0}},
		{{Type: OpInsert, Pos: 0, Text: "ok"}, {Type: OpDelete, Pos: 10, Length: 1}},
	}
	for _, ops := range bad {
		_, err := ApplyOps("hello", ops)
		assert.ErrorIs(t, err, ErrInvalidOp, "%+v", ops)
	}
}
