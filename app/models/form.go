package models

import (
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their form name so messages can be looked up per field.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FormState is the in-flight state of a submission attempt: the values the
// user entered and the validation errors, in field order. It lives for a
// single request only.
type FormState struct {
	Values map[string]string `json:"values"`
	Errors []string          `json:"errors"`
}

// EmptyForm returns the state used when a page is displayed directly.
func EmptyForm() *FormState {
	return &FormState{Values: map[string]string{}}
}

// Value returns the preserved value of the named field.
func (f *FormState) Value(name string) string {
	if f == nil {
		return ""
	}
	return f.Values[name]
}

// HasErrors reports whether the submission failed validation.
func (f *FormState) HasErrors() bool {
	return f != nil && len(f.Errors) > 0
}

// PostForm holds the fields of the create-post form.
type PostForm struct {
	User    string `form:"user" validate:"required,max=64"`
	Title   string `form:"title" validate:"required,max=200"`
	Content string `form:"content" validate:"required,max=10000"`
}

// CommentForm holds the fields of the create-comment form.
type CommentForm struct {
	User    string `form:"user" validate:"required,max=64"`
	Content string `form:"content" validate:"required,max=10000"`
}

// NewPostForm extracts and trims the post fields. Absent fields are empty.
func NewPostForm(values url.Values) PostForm {
	return PostForm{
		User:    field(values, "user"),
		Title:   field(values, "title"),
		Content: field(values, "content"),
	}
}

// NewCommentForm extracts and trims the comment fields. Absent fields are empty.
func NewCommentForm(values url.Values) CommentForm {
	return CommentForm{
		User:    field(values, "user"),
		Content: field(values, "content"),
	}
}

// Validate checks every field and returns the resulting form state.
func (f PostForm) Validate() *FormState {
	return check(f, map[string]string{
		"user":    f.User,
		"title":   f.Title,
		"content": f.Content,
	})
}

// Validate checks every field and returns the resulting form state.
func (f CommentForm) Validate() *FormState {
	return check(f, map[string]string{
		"user":    f.User,
		"content": f.Content,
	})
}

func field(values url.Values, name string) string {
	return strings.TrimSpace(values.Get(name))
}

func check(form interface{}, values map[string]string) *FormState {
	state := &FormState{Values: values}

	err := validate.Struct(form)
	if err == nil {
		return state
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		state.Errors = append(state.Errors, "The submitted form could not be checked.")
		return state
	}
	for _, fe := range verrs {
		state.Errors = append(state.Errors, message(fe))
	}
	return state
}

var fieldNames = map[string]string{
	"user":    "user name",
	"title":   "title",
	"content": "message",
}

func message(fe validator.FieldError) string {
	name, ok := fieldNames[fe.Field()]
	if !ok {
		name = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return "Please enter a non-empty " + name + "."
	case "max":
		return "Your " + name + " must not exceed " + fe.Param() + " characters."
	default:
		return "Please enter a valid " + name + "."
	}
}
