package controllers

import (
	"errors"
	"html/template"
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

// AuthController handles registration, login, logout and password change.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// RegistrationForm shows the sign-up form.
func (a *AuthController) RegistrationForm(ctx *gin.Context) {
	a.renderRegistration(ctx, http.StatusOK, registrationForm{}, formErrors{})
}

// Register creates a local account with a bcrypt password hash and sends the visitor to the feed.
func (a *AuthController) Register(ctx *gin.Context) {
	cfg := config.Get()
	ip := middleware.ClientIP(ctx)

	// anti-abuse: ban check, cooldown, per-IP daily limit
	if utils.RegistrationIsBanned(ip) {
		ctx.String(http.StatusTooManyRequests, "registration from this address is temporarily blocked")
		return
	}
	if !utils.RegistrationCooldownTry(ip) {
		ctx.String(http.StatusTooManyRequests, "too many attempts, please wait")
		return
	}
	if !utils.RegistrationDailyLimitCheck(ip) {
		ctx.String(http.StatusTooManyRequests, "daily registration limit reached")
		return
	}

	var form registrationForm
	errs := formErrors{}
	if err := ctx.ShouldBind(&form); err != nil {
		errs = bindErrors(err)
	}
	form.Username = strings.TrimSpace(form.Username)

	if cfg.RegisterCaptchaEnabled && !utils.VerifyCaptcha(strings.TrimSpace(form.CaptchaID), strings.TrimSpace(form.CaptchaAnswer)) {
		errs.add("captcha_answer", capitalized(errBadCaptcha))
	}
	if _, bad := errs["username"]; !bad {
		taken, err := usernameTaken(a.db, form.Username, 0)
		if err != nil {
			serverError(ctx, "check username", err)
			return
		}
		if taken {
			errs.add("username", capitalized(errUsernameTaken))
		}
	}
	if errs.any() {
		if fails := utils.RegistrationFailRecord(ip); fails >= max(cfg.RegisterFailedMaxPerIPPerHour, 1) {
			utils.RegistrationBan(ip)
		}
		form.Password1, form.Password2 = "", ""
		a.renderRegistration(ctx, http.StatusBadRequest, form, errs)
		return
	}

	hash, err := utils.HashPassword(form.Password1)
	if err != nil {
		serverError(ctx, "hash password", err)
		return
	}
	user := models.User{
		Username:     form.Username,
		Email:        strings.TrimSpace(form.Email),
		FirstName:    strings.TrimSpace(form.FirstName),
		LastName:     strings.TrimSpace(form.LastName),
		PasswordHash: hash,
		RegisterIP:   ip,
	}
	if err := a.db.Create(&user).Error; err != nil {
		serverError(ctx, "create user", err, "username", user.Username)
		return
	}
	utils.RegistrationDailyIncrement(ip)
	utils.Sugar.Infow("user registered", "user_id", user.ID, "username", user.Username, "ip", ip)

	ctx.Redirect(http.StatusFound, "/")
}

// Captcha returns a fresh captcha id and base64 image (data URI).
func (a *AuthController) Captcha(ctx *gin.Context) {
	id, b64, err := utils.GenerateCaptcha()
	if err != nil {
		utils.Sugar.Errorw("captcha generation failed", "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to generate captcha")
		return
	}
	utils.Success(ctx, gin.H{"id": id, "image": b64})
}

// LoginForm shows the login form.
func (a *AuthController) LoginForm(ctx *gin.Context) {
	render(ctx, http.StatusOK, "login.html", gin.H{"Form": loginForm{Next: ctx.Query("next")}, "Errors": formErrors{}})
}

// Login verifies credentials, sets the session cookie and follows next when it is local.
func (a *AuthController) Login(ctx *gin.Context) {
	var form loginForm
	errs := formErrors{}
	if err := ctx.ShouldBind(&form); err != nil {
		errs = bindErrors(err)
	}
	if form.Next == "" {
		form.Next = ctx.Query("next")
	}

	var user models.User
	if !errs.any() {
		err := a.db.Where("username = ?", strings.TrimSpace(form.Username)).Take(&user).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			serverError(ctx, "load user", err)
			return
		}
		if err != nil || !utils.CheckPassword(user.PasswordHash, form.Password) {
			errs.add(nonFieldErrors, capitalized(errBadLogin))
		}
	}
	if errs.any() {
		form.Password = ""
		render(ctx, http.StatusBadRequest, "login.html", gin.H{"Form": form, "Errors": errs})
		return
	}

	if !a.startSession(ctx, &user) {
		return
	}
	ctx.Redirect(http.StatusFound, safeNext(form.Next))
}

// Logout revokes the presented token until its natural expiry and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	if exp, ok := ctx.Get(middleware.ContextTokenExpiresKey); ok {
		utils.RevokeToken(ctx.GetString(middleware.ContextTokenIDKey), exp.(time.Time))
	}
	middleware.ClearSession(ctx)
	ctx.Redirect(http.StatusFound, "/")
}

// PasswordChangeForm shows the password change form.
func (a *AuthController) PasswordChangeForm(ctx *gin.Context) {
	render(ctx, http.StatusOK, "password_change.html", gin.H{"Errors": formErrors{}})
}

// PasswordChange replaces the password after checking the old one.
func (a *AuthController) PasswordChange(ctx *gin.Context) {
	user, ok := loadSessionUser(ctx, a.db)
	if !ok {
		return
	}

	var form passwordChangeForm
	errs := formErrors{}
	if err := ctx.ShouldBind(&form); err != nil {
		errs = bindErrors(err)
	}
	if _, bad := errs["old_password"]; !bad && !utils.CheckPassword(user.PasswordHash, form.OldPassword) {
		errs.add("old_password", capitalized(errOldPassword))
	}
	if errs.any() {
		render(ctx, http.StatusBadRequest, "password_change.html", gin.H{"Errors": errs})
		return
	}

	hash, err := utils.HashPassword(form.NewPassword1)
	if err != nil {
		serverError(ctx, "hash password", err)
		return
	}
	if err := a.db.Model(&models.User{ID: user.ID}).Update("password_hash", hash).Error; err != nil {
		serverError(ctx, "update password", err, "user_id", user.ID)
		return
	}
	ctx.Redirect(http.StatusFound, "/auth/password_change/done/")
}

// PasswordChangeDone confirms the change.
func (a *AuthController) PasswordChangeDone(ctx *gin.Context) {
	render(ctx, http.StatusOK, "password_change_done.html", nil)
}

func (a *AuthController) startSession(ctx *gin.Context, user *models.User) bool {
	token, expiresAt, err := utils.GenerateToken(user.ID, user.Username, time.Duration(config.Get().TokenTTLHours)*time.Hour)
	if err != nil {
		serverError(ctx, "issue session", err, "user_id", user.ID)
		return false
	}
	middleware.SetSession(ctx, token, expiresAt)
	return true
}

func (a *AuthController) renderRegistration(ctx *gin.Context, status int, form registrationForm, errs formErrors) {
	data := gin.H{"Form": form, "Errors": errs, "CaptchaEnabled": config.Get().RegisterCaptchaEnabled}
	if config.Get().RegisterCaptchaEnabled {
		id, image, err := utils.GenerateCaptcha()
		if err != nil {
			serverError(ctx, "generate captcha", err)
			return
		}
		data["CaptchaID"] = id
		// the data URI is produced by the captcha library, never by the visitor
		data["CaptchaImage"] = template.URL(image)
	}
	render(ctx, status, "registration.html", data)
}
