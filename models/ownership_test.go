package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanModify(t *testing.T) {
	post := &Post{ID: 9, AuthorID: 2}
	comment := &Comment{ID: 4, AuthorID: 3}
	profile := &User{ID: 2}

	cases := []struct {
		name   string
		target Owned
		viewer uint
		want   bool
	}{
		{"post owner", post, 2, true},
		{"post stranger", post, 3, false},
		{"post anonymous", post, 0, false},
		{"comment owner", comment, 3, true},
		{"comment post author is not the comment owner", comment, 2, false},
		{"profile owner", profile, 2, true},
		{"profile stranger", profile, 7, false},
		{"nil target", nil, 2, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanModify(tc.target, tc.viewer))
		})
	}
}

func TestAnonymousOwnerNeverMatches(t *testing.T) {
	// a row with a zero author must not become editable by anonymous viewers
	assert.False(t, CanModify(&Post{AuthorID: 0}, 0))
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{Username: "ada", FirstName: "Ada", LastName: "Lovelace"}).FullName())
	assert.Equal(t, "ada", (&User{Username: "ada"}).FullName())
}
