package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Status
		wantErr bool
	}{
		{name: "todo", in: "Todo", want: StatusTodo},
		{name: "doing", in: "Doing", want: StatusDoing},
		{name: "done", in: "Done", want: StatusDone},
		{name: "lowercase is not accepted", in: "todo", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "unknown", in: "Blocked", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColumns(t *testing.T) {
	tasks := []Task{
		{ID: "b", Status: StatusTodo, Position: 1},
		{ID: "a", Status: StatusTodo, Position: 0},
		{ID: "x", Status: StatusDone, Position: 0},
		{ID: "junk", Status: Status("Archived"), Position: 0},
	}

	cols := Columns(tasks)

	require.Len(t, cols, 3)
	assert.Equal(t, []string{"a", "b"}, ids(cols[StatusTodo]))
	assert.Empty(t, cols[StatusDoing])
	assert.Equal(t, []string{"x"}, ids(cols[StatusDone]))
}

func TestColumn_NextPosition(t *testing.T) {
	tests := []struct {
		name string
		col  Column
		want int
	}{
		{name: "empty", col: Column{}, want: 0},
		{name: "dense", col: Column{{Position: 0}, {Position: 1}, {Position: 2}}, want: 3},
		{name: "gap left by a move", col: Column{{Position: 0}, {Position: 2}}, want: 3},
		{name: "gap at the head", col: Column{{Position: 1}, {Position: 2}}, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.col.NextPosition())
		})
	}
}

func ids(c Column) []string {
	out := make([]string, 0, len(c))
	for _, t := range c {
		out = append(out, t.ID)
	}
	return out
}
