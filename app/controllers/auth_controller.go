package controllers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/session"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CoursePay/app/models"
	"github.com/ManuelReschke/CoursePay/app/repository"
	"github.com/ManuelReschke/CoursePay/internal/pkg/config"
	"github.com/ManuelReschke/CoursePay/internal/pkg/usercontext"
)

const loginFailedMessage = "There is a problem with the login process"

// AuthController handles registration, login and logout.
type AuthController struct {
	cfg      *config.Config
	users    repository.UserRepository
	sessions *session.Store
}

func NewAuthController(cfg *config.Config, users repository.UserRepository, sessions *session.Store) *AuthController {
	return &AuthController{cfg: cfg, users: users, sessions: sessions}
}

func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		if isLoggedIn(c) {
			return c.Redirect("/courses", fiber.StatusSeeOther)
		}
		return c.Render("login", pageData(c, "Login", ac.cfg.IsDev(), nil), layoutMain)
	}

	// notice: in production you should not inform the user
	// with detailed messages about login failures
	user, err := ac.users.GetByEmail(c.FormValue("email"))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Auth] login lookup failed: %v", err)
		}
		return flashError(c, loginFailedMessage, "/login")
	}
	if !user.CheckPassword(c.FormValue("password")) {
		return flashError(c, loginFailedMessage, "/login")
	}

	sess, err := ac.sessions.Get(c)
	if err != nil {
		return flashError(c, fmt.Sprintf("something went wrong: %s", err), "/login")
	}

	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyEmail, user.Email)
	sess.Set(usercontext.KeyIsAdmin, user.IsAdmin() || ac.cfg.IsAdminEmail(user.Email))

	if err := sess.Save(); err != nil {
		return flashError(c, fmt.Sprintf("something went wrong: %s", err), "/login")
	}

	if err := ac.users.TouchLastLogin(user.ID); err != nil {
		log.Warnf("[Auth] could not update last login for user %d: %v", user.ID, err)
	}

	return flashSuccess(c, "Welcome back!", "/courses")
}

func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	sess, err := ac.sessions.Get(c)
	if err != nil {
		return flashError(c, "logged out (no sess)", "/login")
	}

	if err := sess.Destroy(); err != nil {
		return flashError(c, fmt.Sprintf("something went wrong: %s", err), "/login")
	}

	usercontext.Set(c, usercontext.UserContext{})

	return flashSuccess(c, "You have been logged out.", "/login")
}

func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		if isLoggedIn(c) {
			return c.Redirect("/courses", fiber.StatusSeeOther)
		}
		return c.Render("register", pageData(c, "Register", ac.cfg.IsDev(), nil), layoutMain)
	}

	user, err := models.CreateUser(c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return flashError(c, "Please enter a valid email and a password of at least 6 characters", "/register")
		}
		return flashError(c, fmt.Sprintf("something went wrong: %s", err), "/register")
	}

	if err := ac.users.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return flashError(c, "This email is already registered", "/register")
		}
		log.Errorf("[Auth] register failed: %v", err)
		return flashError(c, fmt.Sprintf("something went wrong: %s", err), "/register")
	}

	return flashSuccess(c, "Registration complete, please log in.", "/login")
}
