package middleware

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const sessionName = "stayrare_session"

var store = sessions.NewCookieStore([]byte(sessionSecret()))

func sessionSecret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "dev-session-secret"
}

// GuestSession mints a stable session id for anonymous visitors so their cart
// survives across requests. Logged-in users are keyed by user id instead, but
// the session id is still set for the login-time cart merge.
func GuestSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := store.Get(c.Request, sessionName)
		if err != nil {
			log.Printf("⚠️ Session decode failed, starting fresh: %v", err)
		}

		id, _ := session.Values["session_id"].(string)
		if id == "" {
			id = uuid.NewString()
			session.Values["session_id"] = id
			session.Options = &sessions.Options{
				Path:     "/",
				MaxAge:   86400 * 30,
				HttpOnly: true,
			}
			if err := session.Save(c.Request, c.Writer); err != nil {
				log.Printf("⚠️ Could not persist session: %v", err)
			}
		}

		c.Set("session_id", id)
		c.Next()
	}
}
