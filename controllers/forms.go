package controllers

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// formErrors maps a form field (or "__all__") to its message.
type formErrors map[string]string

func (e formErrors) add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e formErrors) any() bool { return len(e) > 0 }

const nonFieldErrors = "__all__"

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	// report the form/json field name instead of the Go field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// bindErrors converts a binding error into per-field messages.
func bindErrors(err error) formErrors {
	out := formErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.add(nonFieldErrors, "The submitted form could not be read.")
		return out
	}
	for _, fe := range verrs {
		out.add(fe.Field(), fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return "The two password fields didn't match."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	default:
		return "Enter a valid value."
	}
}

// postForm is the create/edit form of a post. Author is never part of it.
type postForm struct {
	Title       string `form:"title" binding:"required,notblank,max=256"`
	Text        string `form:"text" binding:"required,notblank"`
	PubDate     string `form:"pub_date"`
	Location    string `form:"location"`
	Category    string `form:"category" binding:"required"`
	IsPublished string `form:"is_published"`
	ClearImage  string `form:"image-clear"`
}

// checked reports whether a checkbox value was submitted as ticked.
func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// commentForm carries only the text; post and author come from the URL and the session.
type commentForm struct {
	Text string `form:"text" binding:"required,notblank,max=5000"`
}

type profileForm struct {
	FirstName string `form:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" binding:"max=150"`
	Username  string `form:"username" binding:"required,max=150,username"`
	Email     string `form:"email" binding:"omitempty,email,max=254"`
	UserInfo  string `form:"user_info" binding:"max=5000"`
}

type registrationForm struct {
	Username      string `form:"username" binding:"required,max=150,username"`
	Email         string `form:"email" binding:"omitempty,email,max=254"`
	FirstName     string `form:"first_name" binding:"max=150"`
	LastName      string `form:"last_name" binding:"max=150"`
	Password1     string `form:"password1" binding:"required,min=8,max=128"`
	Password2     string `form:"password2" binding:"required,eqfield=Password1"`
	CaptchaID     string `form:"captcha_id"`
	CaptchaAnswer string `form:"captcha_answer"`
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

type passwordChangeForm struct {
	OldPassword  string `form:"old_password" binding:"required"`
	NewPassword1 string `form:"new_password1" binding:"required,min=8,max=128"`
	NewPassword2 string `form:"new_password2" binding:"required,eqfield=NewPassword1"`
}

// datetime-local inputs and the formats people type by hand
var pubDateLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02 15:04:05"}

// parsePubDate reads a pub_date field in server local time. Empty means now.
func parsePubDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, nil
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errPubDate
}

// formatPubDate renders t for a datetime-local input.
func formatPubDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format("2006-01-02T15:04")
}
