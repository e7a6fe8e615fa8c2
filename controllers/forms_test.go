package controllers

import (
	"errors"
	"testing"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePubDate(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	got, err := parsePubDate("", now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = parsePubDate("2026-06-01T09:30", now)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 6, 1, 9, 30, 0, 0, time.Local)))
	assert.Equal(t, time.UTC, got.Location())

	_, err = parsePubDate("next tuesday", now)
	assert.ErrorIs(t, err, errPubDate)
}

func TestFormatPubDateRoundTrip(t *testing.T) {
	ts := time.Date(2026, 6, 1, 9, 30, 0, 0, time.Local)
	got, err := parsePubDate(formatPubDate(ts), time.Now())
	require.NoError(t, err)
	assert.True(t, got.Equal(ts))
	assert.Empty(t, formatPubDate(time.Time{}))
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                      "/",
		"/posts/1/":             "/posts/1/",
		"/profile/a/?page=2":    "/profile/a/?page=2",
		"//evil.example":        "/",
		"/\\evil.example":       "/",
		"https://evil.example/": "/",
		"javascript:alert(1)":   "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeNext(in), in)
	}
}

func TestChecked(t *testing.T) {
	for _, v := range []string{"on", "true", "1", "yes", " ON "} {
		assert.True(t, checked(v), v)
	}
	for _, v := range []string{"", "off", "false", "0"} {
		assert.False(t, checked(v), v)
	}
}

func TestCapitalized(t *testing.T) {
	assert.Equal(t, "Select a valid choice.", capitalized(errUnknownChoice))
	assert.Equal(t, "", capitalized(errors.New("")))
}

func TestBindErrorsUsesFormFieldNames(t *testing.T) {
	form := registrationForm{Username: "bad name", Password1: "long-enough", Password2: "different!"}
	err := binding.Validator.ValidateStruct(&form)
	require.Error(t, err)

	errs := bindErrors(err)
	assert.Contains(t, errs, "username")
	assert.Contains(t, errs, "password2")
	assert.Equal(t, "The two password fields didn't match.", errs["password2"])

	assert.Equal(t, "The submitted form could not be read.", bindErrors(errors.New("boom"))[nonFieldErrors])
}

func TestBlankPostFieldsAreRequired(t *testing.T) {
	form := postForm{Title: "   ", Text: "\n\t", Category: "1"}
	err := binding.Validator.ValidateStruct(&form)
	require.Error(t, err)

	errs := bindErrors(err)
	assert.Equal(t, "This field is required.", errs["title"])
	assert.Equal(t, "This field is required.", errs["text"])

	ok := postForm{Title: " Trip ", Text: "body", Category: "1"}
	assert.NoError(t, binding.Validator.ValidateStruct(&ok))
}
