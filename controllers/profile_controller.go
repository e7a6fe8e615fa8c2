package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// ProfileController renders user profiles and the profile edit form.
type ProfileController struct {
	db *gorm.DB
}

// NewProfileController creates a new ProfileController instance.
func NewProfileController(db *gorm.DB) *ProfileController {
	return &ProfileController{db: db}
}

// Show renders the user's info and their posts: every post for the owner, public ones for others.
func (p *ProfileController) Show(ctx *gin.Context) {
	profile, ok := p.profileByUsername(ctx)
	if !ok {
		return
	}

	posts, page, err := listVisiblePosts(ctx, p.db, func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.author_id = ?", profile.ID)
	})
	if err != nil {
		respondListError(ctx, "list profile posts", err)
		return
	}
	render(ctx, http.StatusOK, "profile.html", gin.H{
		"Profile": profile,
		"Posts":   posts,
		"Page":    page,
		"IsOwner": models.CanModify(profile, getUserID(ctx)),
	})
}

// EditForm shows the profile form to the profile's owner.
func (p *ProfileController) EditForm(ctx *gin.Context) {
	profile, ok := p.ownedProfile(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "user.html", gin.H{
		"Profile": profile,
		"Form": profileForm{
			FirstName: profile.FirstName,
			LastName:  profile.LastName,
			Username:  profile.Username,
			Email:     profile.Email,
			UserInfo:  profile.UserInfo,
		},
		"Errors": formErrors{},
	})
}

// Edit saves the profile. A renamed user gets a fresh session carrying the new username.
func (p *ProfileController) Edit(ctx *gin.Context) {
	profile, ok := p.ownedProfile(ctx)
	if !ok {
		return
	}

	var form profileForm
	errs := formErrors{}
	if err := ctx.ShouldBind(&form); err != nil {
		errs = bindErrors(err)
	}
	form.Username = strings.TrimSpace(form.Username)
	if _, bad := errs["username"]; !bad && form.Username != profile.Username {
		taken, err := usernameTaken(p.db, form.Username, profile.ID)
		if err != nil {
			serverError(ctx, "check username", err)
			return
		}
		if taken {
			errs.add("username", capitalized(errUsernameTaken))
		}
	}
	if errs.any() {
		render(ctx, http.StatusBadRequest, "user.html", gin.H{"Profile": profile, "Form": form, "Errors": errs})
		return
	}

	err := p.db.Model(&models.User{ID: profile.ID}).Updates(map[string]interface{}{
		"first_name": strings.TrimSpace(form.FirstName),
		"last_name":  strings.TrimSpace(form.LastName),
		"username":   form.Username,
		"email":      strings.TrimSpace(form.Email),
		"user_info":  form.UserInfo,
	}).Error
	if err != nil {
		serverError(ctx, "update profile", err, "user_id", profile.ID)
		return
	}

	if form.Username != profile.Username {
		token, expiresAt, err := utils.GenerateToken(profile.ID, form.Username, time.Duration(config.Get().TokenTTLHours)*time.Hour)
		if err != nil {
			serverError(ctx, "reissue session", err, "user_id", profile.ID)
			return
		}
		if old, ok := ctx.Get(middleware.ContextTokenExpiresKey); ok {
			utils.RevokeToken(ctx.GetString(middleware.ContextTokenIDKey), old.(time.Time))
		}
		middleware.SetSession(ctx, token, expiresAt)
	}
	ctx.Redirect(http.StatusFound, profileURL(form.Username))
}

func (p *ProfileController) profileByUsername(ctx *gin.Context) (*models.User, bool) {
	username := ctx.Param("username")
	var profile models.User
	if err := p.db.Where("username = ?", username).Take(&profile).Error; err != nil {
		lookupFailed(ctx, "load profile", err, "username", username)
		return nil, false
	}
	return &profile, true
}

// ownedProfile loads the profile in the URL; only its owner passes the gate.
func (p *ProfileController) ownedProfile(ctx *gin.Context) (*models.User, bool) {
	profile, ok := p.profileByUsername(ctx)
	if !ok {
		return nil, false
	}
	if !authorizeOwner(ctx, profile, profileURL(profile.Username)) {
		return nil, false
	}
	return profile, true
}

// usernameTaken reports whether another account already uses username.
func usernameTaken(db *gorm.DB, username string, exceptID uint) (bool, error) {
	var other models.User
	err := db.Where("username = ? AND id <> ?", username, exceptID).Take(&other).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}
