package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/CoursePay/internal/pkg/usercontext"
)

// UserContextMiddleware loads the logged-in user from the session store and
// publishes it as the request's user context.
func UserContextMiddleware(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		anonymous := func() error {
			usercontext.Set(c, usercontext.UserContext{})
			return c.Next()
		}

		sess, err := store.Get(c)
		if err != nil {
			return anonymous()
		}

		if authenticated, _ := sess.Get(usercontext.AuthKey).(bool); !authenticated {
			return anonymous()
		}
		userID, ok := sess.Get(usercontext.KeyUserID).(uint)
		if !ok || userID == 0 {
			return anonymous()
		}

		email, _ := sess.Get(usercontext.KeyEmail).(string)
		isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)

		usercontext.Set(c, usercontext.UserContext{
			UserID:     userID,
			Email:      email,
			IsLoggedIn: true,
			IsAdmin:    isAdmin,
		})

		return c.Next()
	}
}
