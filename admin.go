package blogcontent

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(a.Config.Info(), false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		a.loginLimiter.Reset(ip)
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	c.Logger().Warnf("failed admin login from %s", ip)
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(a.Config.Info(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// handleAdminSync re-reads the content directory.
func (a *App) handleAdminSync(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	run, err := a.Sync(c.Request().Context())
	msg := fmt.Sprintf("Synced %d documents with %d warnings.", run.Documents, len(run.Warnings))
	if err != nil {
		c.Logger().Errorf("sync: %v", err)
		msg = "Sync failed: " + err.Error()
	}
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	ctx := c.Request().Context()
	posts, err := a.Cache.Posts(ctx, BlogCollection)
	if err != nil {
		return err
	}
	problems, err := a.problemsByID(ctx)
	if err != nil {
		return err
	}
	page := AdminPage{
		Site:      a.Config.Info(),
		Posts:     posts,
		Problems:  problems,
		Message:   msg,
		CSRFToken: CsrfToken(c),
	}
	last, err := a.Store.LastSync(ctx)
	switch {
	case err == nil:
		page.LastSync = &last
	case !errors.Is(err, ErrNotFound):
		return err
	}
	return a.render(c, "admin", a.Views.AdminDashboard(page))
}
