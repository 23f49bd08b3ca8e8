package identity

import (
	"net/http"
	"time"
)

const cookieMaxAge = 400 * 24 * time.Hour

// CookieStorage keeps values in browser cookies for the lifetime of one request.
// Writes are visible to later reads in the same request.
type CookieStorage struct {
	r       *http.Request
	w       http.ResponseWriter
	secure  bool
	written map[string]*string
}

func NewCookieStorage(w http.ResponseWriter, r *http.Request, secure bool) *CookieStorage {
	return &CookieStorage{r: r, w: w, secure: secure, written: make(map[string]*string)}
}

func (c *CookieStorage) Value(key string) (string, bool, error) {
	if v, ok := c.written[key]; ok {
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	}
	cookie, err := c.r.Cookie(key)
	if err != nil {
		return "", false, nil
	}
	return cookie.Value, true, nil
}

func (c *CookieStorage) SetValue(key, value string) error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.written[key] = &value
	return nil
}

func (c *CookieStorage) DeleteValue(key string) error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.written[key] = nil
	return nil
}
