package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListQuery_OrderClause(t *testing.T) {
	cases := []struct {
		col, dir, want string
	}{
		{"", "", "h.save_date DESC"},
		{"save_date", "asc", "h.save_date ASC"},
		{"h.version_id", "ASC", "h.version_id ASC"},
		{"VERSION_NOTE", "desc", "h.version_note DESC"},
		{"editor_user_id", "sideways", "h.editor_user_id DESC"},
		{"version_data; DROP TABLE users", "ASC", "h.save_date ASC"},
		{"h.keep_forever", "", "h.save_date DESC"},
	}
	for _, c := range cases {
		q := ListQuery{ItemID: 1, TypeID: 1, OrderBy: c.col, Direction: c.dir}
		require.Equal(t, c.want, q.OrderClause(), "col=%q dir=%q", c.col, c.dir)
	}
}

func TestListQuery_NormalizedKeepsIDs(t *testing.T) {
	n := ListQuery{ItemID: 5, TypeID: 2, OrderBy: "note", Direction: "up"}.Normalized()
	require.Equal(t, ListQuery{ItemID: 5, TypeID: 2, OrderBy: DefaultOrderColumn, Direction: OrderDesc}, n)
}
