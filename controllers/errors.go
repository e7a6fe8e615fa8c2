package controllers

import (
	"errors"
	"strings"
)

var (
	errPubDate       = errors.New("enter a valid date/time")
	errImageType     = errors.New("upload a valid image: jpg, jpeg, png, gif or webp")
	errImageSize     = errors.New("image is too large")
	errUsernameTaken = errors.New("a user with that username already exists")
	errUnknownChoice = errors.New("select a valid choice")
	errBadCaptcha    = errors.New("captcha answer is wrong or expired")
	errBadLogin      = errors.New("please enter a correct username and password; both fields may be case-sensitive")
	errOldPassword   = errors.New("your old password was entered incorrectly")
)

// capitalized renders a sentinel as a form message.
func capitalized(err error) string {
	s := err.Error()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
