package auth

import "net/http"

// SetAuthCookies attaches the access and refresh tokens as httpOnly cookies.
// secure should be true in a production configuration.
func SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken string, secure bool) {
	http.SetCookie(w, authCookie(AccessCookie, accessToken, secure))
	http.SetCookie(w, authCookie(RefreshCookie, refreshToken, secure))
}

// ClearAuthCookies expires both token cookies.
func ClearAuthCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		c := authCookie(name, "", secure)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func authCookie(name, value string, secure bool) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	}
}
