package session

import (
	"net/http"
	"time"
)

// Cookie names. AttemptCookie vive solo durante el round-trip de
// autorización; ClientStateCookie es la media-sesión legible por el front
// que alimenta la resolución híbrida de identidad.
const (
	SessionCookie     = "cl_session"
	AttemptCookie     = "cl_attempt"
	ClientStateCookie = "cl_chat_state"
)

// SetSession coloca la cookie de sesión primaria (HttpOnly).
func SetSession(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession borra la cookie de sesión.
func ClearSession(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetAttempt coloca la cookie de attempt. SameSite=Lax alcanza porque el
// provider redirige con GET top-level.
func SetAttempt(w http.ResponseWriter, id string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AttemptCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAttempt borra la cookie de attempt (post-callback).
func ClearAttempt(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AttemptCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetClientState coloca la media-sesión de chat. NO es HttpOnly: el front
// la lee para mostrar la identidad de chat sin round-trip.
func SetClientState(w http.ResponseWriter, encoded string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     ClientStateCookie,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearClientState borra la media-sesión de chat.
func ClearClientState(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     ClientStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
