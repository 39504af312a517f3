package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestBuildPostWhere(t *testing.T) {
	groupID := int64(7)
	author := "author-1"
	follower := "follower-1"

	tests := []struct {
		name      string
		filter    PostFilter
		wantWhere string
		wantArgs  []interface{}
	}{
		{
			name:      "no filter",
			filter:    PostFilter{},
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:      "group",
			filter:    PostFilter{GroupID: &groupID},
			wantWhere: " WHERE p.group_id = $1",
			wantArgs:  []interface{}{int64(7)},
		},
		{
			name:      "author",
			filter:    PostFilter{AuthorID: &author},
			wantWhere: " WHERE p.author_id = $1",
			wantArgs:  []interface{}{"author-1"},
		},
		{
			name:      "followed",
			filter:    PostFilter{FollowerID: &follower},
			wantWhere: " WHERE p.author_id IN (SELECT f.author_id FROM follows f WHERE f.user_id = $1)",
			wantArgs:  []interface{}{"follower-1"},
		},
		{
			name:      "group and author",
			filter:    PostFilter{GroupID: &groupID, AuthorID: &author},
			wantWhere: " WHERE p.group_id = $1 AND p.author_id = $2",
			wantArgs:  []interface{}{int64(7), "author-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildPostWhere(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestMapError(t *testing.T) {
	unique := &pq.Error{Code: "23505", Constraint: "unique_follow"}
	check := &pq.Error{Code: "23514", Constraint: "no_self_follow"}
	plain := errors.New("connection reset")

	assert.ErrorIs(t, mapError(unique), ErrDuplicate)
	assert.ErrorIs(t, mapError(fmt.Errorf("insert: %w", unique)), ErrDuplicate)
	assert.Equal(t, check, mapError(check))
	assert.Equal(t, plain, mapError(plain))
	assert.NoError(t, mapError(nil))
}
