package echoapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	flashCookie = "flash"
	flashKey    = "flashes"

	flashSuccess = "success"
	flashDanger  = "danger"
	flashInfo    = "info"
)

// Flash is a one-time message shown on the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

func pendingFlashes(ctx echo.Context) []Flash {
	if flashes, ok := ctx.Get(flashKey).([]Flash); ok {
		return flashes
	}

	cookie, err := ctx.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err = json.Unmarshal(data, &flashes); err != nil {
		return nil
	}
	return flashes
}

func addFlash(ctx echo.Context, category, msg string) {
	flashes := append(pendingFlashes(ctx), Flash{Category: category, Message: msg})
	ctx.Set(flashKey, flashes)

	data, _ := json.Marshal(flashes)
	ctx.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes returns the pending messages and forgets them.
func popFlashes(ctx echo.Context) []Flash {
	flashes := pendingFlashes(ctx)
	ctx.Set(flashKey, []Flash{})
	if len(flashes) > 0 {
		ctx.SetCookie(&http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1, HttpOnly: true})
	}
	return flashes
}
