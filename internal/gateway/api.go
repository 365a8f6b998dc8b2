// ABOUTME: HTTP API routes mapping each endpoint onto one app operation
// ABOUTME: Successes are JSON bodies; failures are {"message": ...} with the resolved status

package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/2389/folio/internal/auth"
	"github.com/2389/folio/internal/sessioning"
)

// call is one API request as seen by a route handler.
type call struct {
	w http.ResponseWriter
	r *http.Request
	s *sessioning.SessionDoc
	p *params
}

func (c *call) ctx() context.Context { return c.r.Context() }

type routeFunc func(c *call) (any, error)

// route adapts a routeFunc to net/http.
func (g *Gateway) route(fn routeFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := readParams(w, r)
		if err != nil {
			g.sendError(w, r, err)
			return
		}
		out, err := fn(&call{w: w, r: r, s: auth.FromContext(r.Context()), p: p})
		if err != nil {
			g.sendError(w, r, err)
			return
		}
		g.sendJSON(w, http.StatusOK, out)
	}
}

// sendJSON writes a JSON response.
func (g *Gateway) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		g.logger.Error("failed to encode response", "error", err)
	}
}

// sendError resolves err to a status and display message.
func (g *Gateway) sendError(w http.ResponseWriter, r *http.Request, err error) {
	res := g.app.Errors().Resolve(r.Context(), err)
	if res.Status >= http.StatusInternalServerError {
		g.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "kind", res.Kind, "error", res.Detail)
	}
	g.sendJSON(w, res.Status, map[string]string{"message": res.Message})
}

// setSession reissues or clears the cookie after the session changed.
func (g *Gateway) setSession(c *call) error {
	return g.cookies.Set(c.w, c.s)
}

func (g *Gateway) registerAPIRoutes(mux *http.ServeMux) {
	a := g.app

	// Users and sessions
	mux.HandleFunc("GET /api/session", g.route(func(c *call) (any, error) {
		return a.GetSessionUser(c.ctx(), c.s)
	}))
	mux.HandleFunc("GET /api/users", g.route(func(c *call) (any, error) {
		return a.GetUsers(c.ctx())
	}))
	mux.HandleFunc("GET /api/users/{username}", g.route(func(c *call) (any, error) {
		return a.GetUser(c.ctx(), c.p.path("username"))
	}))
	mux.HandleFunc("POST /api/users", g.route(func(c *call) (any, error) {
		return a.CreateUser(c.ctx(), c.s, c.p.str("username"), c.p.str("password"))
	}))
	mux.HandleFunc("PATCH /api/users/username", g.route(func(c *call) (any, error) {
		return a.UpdateUsername(c.ctx(), c.s, c.p.str("username"))
	}))
	mux.HandleFunc("PATCH /api/users/password", g.route(func(c *call) (any, error) {
		return a.UpdatePassword(c.ctx(), c.s, c.p.str("currentPassword"), c.p.str("newPassword"))
	}))
	mux.HandleFunc("DELETE /api/users", g.route(func(c *call) (any, error) {
		out, err := a.DeleteUser(c.ctx(), c.s)
		if err != nil {
			return nil, err
		}
		return out, g.setSession(c)
	}))
	mux.HandleFunc("POST /api/login", g.route(func(c *call) (any, error) {
		out, err := a.LogIn(c.ctx(), c.s, c.p.str("username"), c.p.str("password"))
		if err != nil {
			return nil, err
		}
		return out, g.setSession(c)
	}))
	mux.HandleFunc("POST /api/logout", g.route(func(c *call) (any, error) {
		out, err := a.LogOut(c.ctx(), c.s)
		if err != nil {
			return nil, err
		}
		return out, g.setSession(c)
	}))

	// Friends
	mux.HandleFunc("GET /api/friends", g.route(func(c *call) (any, error) {
		return a.GetFriends(c.ctx(), c.s)
	}))
	mux.HandleFunc("DELETE /api/friends/{friend}", g.route(func(c *call) (any, error) {
		return a.RemoveFriend(c.ctx(), c.s, c.p.path("friend"))
	}))
	mux.HandleFunc("GET /api/friend/requests", g.route(func(c *call) (any, error) {
		return a.GetRequests(c.ctx(), c.s)
	}))
	mux.HandleFunc("POST /api/friend/requests/{to}", g.route(func(c *call) (any, error) {
		return a.SendFriendRequest(c.ctx(), c.s, c.p.path("to"))
	}))
	mux.HandleFunc("DELETE /api/friend/requests/{to}", g.route(func(c *call) (any, error) {
		return a.RemoveFriendRequest(c.ctx(), c.s, c.p.path("to"))
	}))
	mux.HandleFunc("PUT /api/friend/accept/{from}", g.route(func(c *call) (any, error) {
		return a.AcceptFriendRequest(c.ctx(), c.s, c.p.path("from"))
	}))
	mux.HandleFunc("PUT /api/friend/reject/{from}", g.route(func(c *call) (any, error) {
		return a.RejectFriendRequest(c.ctx(), c.s, c.p.path("from"))
	}))

	// Journals
	mux.HandleFunc("GET /api/journals", g.route(func(c *call) (any, error) {
		return a.GetJournals(c.ctx(), c.s, c.p.str("author"))
	}))
	mux.HandleFunc("GET /api/journals/{id}", g.route(func(c *call) (any, error) {
		return a.GetJournal(c.ctx(), c.s, c.p.path("id"))
	}))
	mux.HandleFunc("POST /api/journals", g.route(func(c *call) (any, error) {
		privacy, err := c.p.boolean("privacy")
		if err != nil {
			return nil, err
		}
		return a.CreateJournal(c.ctx(), c.s, c.p.str("name"), privacy)
	}))
	mux.HandleFunc("PATCH /api/journals", g.route(func(c *call) (any, error) {
		privacy, err := c.p.optBool("privacy")
		if err != nil {
			return nil, err
		}
		return a.UpdateJournal(c.ctx(), c.s, c.p.str("journalid"), c.p.optStr("name"), privacy)
	}))
	mux.HandleFunc("DELETE /api/journals", g.route(func(c *call) (any, error) {
		return a.DeleteJournal(c.ctx(), c.s, c.p.str("journalid"))
	}))

	// Posts
	mux.HandleFunc("GET /api/posts", g.route(func(c *call) (any, error) {
		return a.GetPosts(c.ctx(), c.s, c.p.str("author"))
	}))
	mux.HandleFunc("POST /api/posts", g.route(func(c *call) (any, error) {
		return a.CreatePost(c.ctx(), c.s, c.p.str("journalid"), c.p.str("content"))
	}))
	mux.HandleFunc("PATCH /api/posts/{id}", g.route(func(c *call) (any, error) {
		return a.UpdatePost(c.ctx(), c.s, c.p.path("id"), c.p.optStr("parentid"), c.p.optStr("content"))
	}))
	mux.HandleFunc("DELETE /api/posts/{id}", g.route(func(c *call) (any, error) {
		return a.DeletePost(c.ctx(), c.s, c.p.path("id"))
	}))

	// Highlights
	mux.HandleFunc("GET /api/highlights", g.route(func(c *call) (any, error) {
		return a.GetHighlights(c.ctx(), c.s, c.p.str("postid"))
	}))
	mux.HandleFunc("POST /api/highlights", g.route(func(c *call) (any, error) {
		return a.CreateHighlight(c.ctx(), c.s, c.p.str("postid"), c.p.str("comment"), c.p.optStr("quote"))
	}))
	mux.HandleFunc("PATCH /api/highlights/{id}", g.route(func(c *call) (any, error) {
		return a.UpdateHighlight(c.ctx(), c.s, c.p.path("id"), c.p.optStr("comment"), c.p.optStr("quote"))
	}))
	mux.HandleFunc("DELETE /api/highlights/{id}", g.route(func(c *call) (any, error) {
		return a.DeleteHighlight(c.ctx(), c.s, c.p.path("id"))
	}))

	// Stickers
	mux.HandleFunc("GET /api/stickers", g.route(func(c *call) (any, error) {
		return a.GetStickers(c.ctx(), c.s, c.p.str("postid"))
	}))
	mux.HandleFunc("POST /api/stickers", g.route(func(c *call) (any, error) {
		return a.CreateSticker(c.ctx(), c.s, c.p.str("postid"), c.p.str("sticker"))
	}))
	mux.HandleFunc("PATCH /api/stickers", g.route(func(c *call) (any, error) {
		return a.UpdateSticker(c.ctx(), c.s, c.p.str("id"), c.p.optStr("sticker"))
	}))
	mux.HandleFunc("DELETE /api/stickers", g.route(func(c *call) (any, error) {
		return a.DeleteSticker(c.ctx(), c.s, c.p.str("id"))
	}))

	// Bookmarks
	mux.HandleFunc("GET /api/bookmarks", g.route(func(c *call) (any, error) {
		return a.GetBookmarks(c.ctx(), c.s, c.p.str("author"))
	}))
	mux.HandleFunc("POST /api/bookmarks", g.route(func(c *call) (any, error) {
		return a.AddBookmark(c.ctx(), c.s, c.p.str("postid"))
	}))
	mux.HandleFunc("DELETE /api/bookmarks/{id}", g.route(func(c *call) (any, error) {
		return a.RemoveBookmark(c.ctx(), c.s, c.p.path("id"))
	}))
}
