package http

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// Robots caches robots.txt policies per host.
//
// A robots.txt that cannot be fetched allows everything; a 4xx answer
// allows everything and a 5xx answer disallows everything.
type Robots struct {
	session *Session
	agent   string

	mu    sync.Mutex
	hosts map[string]*robotstxt.Group
}

func newRobots(s *Session, agent string) *Robots {
	return &Robots{session: s, agent: agent, hosts: make(map[string]*robotstxt.Group)}
}

// Allowed reports whether rawURL may be fetched.
func (r *Robots) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	group := r.group(ctx, u)
	if group == nil {
		return true
	}
	return group.Test(u.RequestURI())
}

func (r *Robots) group(ctx context.Context, u *url.URL) *robotstxt.Group {
	key := u.Scheme + "://" + u.Host

	r.mu.Lock()
	g, ok := r.hosts[key]
	r.mu.Unlock()
	if ok {
		return g
	}

	g = r.load(ctx, key+"/robots.txt")

	r.mu.Lock()
	r.hosts[key] = g
	r.mu.Unlock()
	return g
}

func (r *Robots) load(ctx context.Context, robotsURL string) *robotstxt.Group {
	ctx, cancel := context.WithTimeout(ctx, r.session.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.session.userAgent)

	resp, err := r.session.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return data.FindGroup(r.agent)
}
