package auth

import (
	"net/http"
	"time"
)

const (
	CookieName     = "jwt"
	LoggedOutValue = "loggedout"
)

func SessionCookie(token string, exp time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// LoggedOutCookie replaces the session cookie with an expired placeholder.
// Tokens captured before logout stay valid until they expire on their own.
func LoggedOutCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    LoggedOutValue,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}
