package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ContactCookie holds the sealed contact block.
const ContactCookie = "lcm_contact"

// cookieStore adapts an echo request/response pair to contactvault.Store.
type cookieStore struct {
	c      echo.Context
	secure bool
}

func (s cookieStore) Load() (string, bool) {
	ck, err := s.c.Cookie(ContactCookie)
	if err != nil {
		return "", false
	}
	return ck.Value, true
}

func (s cookieStore) Save(value string, expires time.Time) {
	s.c.SetCookie(s.cookie(value, expires))
}

func (s cookieStore) Clear() {
	ck := s.cookie("", time.Unix(0, 0))
	ck.MaxAge = -1
	s.c.SetCookie(ck)
}

func (s cookieStore) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     ContactCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
