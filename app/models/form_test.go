package models

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostFormValidation(t *testing.T) {
	tests := []struct {
		name       string
		values     url.Values
		wantErrors []string
	}{
		{
			name:   "valid post",
			values: url.Values{"user": {"bob"}, "title": {"Hi"}, "content": {"First!"}},
		},
		{
			name:       "empty user",
			values:     url.Values{"user": {""}, "title": {"Hi"}, "content": {"First!"}},
			wantErrors: []string{"Please enter a non-empty user name."},
		},
		{
			name:   "all fields empty",
			values: url.Values{"user": {""}, "title": {" "}, "content": {"\n\t"}},
			wantErrors: []string{
				"Please enter a non-empty user name.",
				"Please enter a non-empty title.",
				"Please enter a non-empty message.",
			},
		},
		{
			name:   "absent fields",
			values: url.Values{},
			wantErrors: []string{
				"Please enter a non-empty user name.",
				"Please enter a non-empty title.",
				"Please enter a non-empty message.",
			},
		},
		{
			name:       "title too long",
			values:     url.Values{"user": {"bob"}, "title": {strings.Repeat("a", 201)}, "content": {"x"}},
			wantErrors: []string{"Your title must not exceed 200 characters."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewPostForm(tt.values).Validate()
			assert.Equal(t, tt.wantErrors, state.Errors)
			assert.Equal(t, len(tt.wantErrors) > 0, state.HasErrors())
		})
	}
}

func TestPostFormTrimsValues(t *testing.T) {
	form := NewPostForm(url.Values{"user": {"  alice  "}, "title": {" Hi "}, "content": {"body\n"}})
	assert.Equal(t, "alice", form.User)
	assert.Equal(t, "Hi", form.Title)
	assert.Equal(t, "body", form.Content)

	state := form.Validate()
	assert.False(t, state.HasErrors())
	assert.Equal(t, "alice", state.Value("user"))
}

func TestCommentFormValidation(t *testing.T) {
	t.Run("empty content keeps user", func(t *testing.T) {
		state := NewCommentForm(url.Values{"user": {"carol"}, "content": {"   "}}).Validate()
		assert.Equal(t, []string{"Please enter a non-empty message."}, state.Errors)
		assert.Equal(t, "carol", state.Value("user"))
		assert.Equal(t, "", state.Value("content"))
	})

	t.Run("valid comment", func(t *testing.T) {
		state := NewCommentForm(url.Values{"user": {"carol"}, "content": {"nice"}}).Validate()
		assert.Empty(t, state.Errors)
	})
}

func TestEmptyForm(t *testing.T) {
	form := EmptyForm()
	assert.False(t, form.HasErrors())
	assert.Equal(t, "", form.Value("user"))

	var nilForm *FormState
	assert.Equal(t, "", nilForm.Value("user"))
	assert.False(t, nilForm.HasErrors())
}
