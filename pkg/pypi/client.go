// Package pypi is a client for the JSON API of PyPI-compatible package
// indexes. Responses are cached through the shared cache layer; all
// methods are safe for concurrent use.
package pypi

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pyven-dev/pyven/pkg/cache"
	"github.com/pyven-dev/pyven/pkg/errors"
	"github.com/pyven-dev/pyven/pkg/pep440"
)

// DefaultIndexURL is the JSON API root of the public index.
const DefaultIndexURL = "https://pypi.org/pypi"

const httpTimeout = 10 * time.Second

// PackageInfo holds metadata for one package release.
//
// Dependencies lists direct runtime dependencies as normalized names;
// extras-gated and platform-foreign requirements are excluded.
type PackageInfo struct {
	Name           string   `json:"name"`    // normalized package name
	Version        string   `json:"version"` // release version
	Summary        string   `json:"summary,omitempty"`
	License        string   `json:"license,omitempty"`
	Author         string   `json:"author,omitempty"`
	HomePage       string   `json:"home_page,omitempty"`
	RequiresPython string   `json:"requires_python,omitempty"`
	Dependencies   []string `json:"dependencies,omitempty"`
}

// Client queries one package index.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	baseURL string
	ttl     time.Duration
}

// NewClient creates an index client. backend and keyer may be nil to
// disable response caching; indexURL "" means the public index.
func NewClient(backend cache.Cache, keyer cache.Keyer, indexURL string, ttl time.Duration) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if indexURL == "" {
		indexURL = DefaultIndexURL
	}
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		cache:   backend,
		keyer:   keyer,
		baseURL: strings.TrimRight(indexURL, "/"),
		ttl:     ttl,
	}
}

// FetchPackage retrieves metadata for a package release. version ""
// fetches the latest release document.
//
// Returns a PACKAGE_NOT_FOUND or VERSION_NOT_FOUND error when the index
// does not know the package or release, and a NETWORK_ERROR for HTTP
// failures; the cache sentinels remain in the chain.
func (c *Client) FetchPackage(ctx context.Context, pkg, version string, refresh bool) (*PackageInfo, error) {
	name := pep440.Normalize(pkg)
	key := c.keyer.PackageKey(c.baseURL, name, version)

	url := fmt.Sprintf("%s/%s/json", c.baseURL, name)
	if version != "" {
		url = fmt.Sprintf("%s/%s/%s/json", c.baseURL, name, version)
	}

	var info PackageInfo
	err := c.cached(ctx, key, refresh, &info, func() error {
		var data apiResponse
		if err := c.get(ctx, url, &data); err != nil {
			return err
		}
		info = PackageInfo{
			Name:           pep440.Normalize(data.Info.Name),
			Version:        data.Info.Version,
			Summary:        data.Info.Summary,
			License:        licenseOf(data.Info),
			Author:         data.Info.Author,
			HomePage:       data.Info.HomePage,
			RequiresPython: data.Info.RequiresPython,
			Dependencies:   extractDeps(data.Info.RequiresDist),
		}
		return nil
	})
	if err != nil {
		return nil, describeFetchError(err, name, version)
	}
	return &info, nil
}

// FetchVersions retrieves every release version the index knows for a
// package, sorted ascending. Releases whose files are all yanked are
// omitted.
func (c *Client) FetchVersions(ctx context.Context, pkg string, refresh bool) ([]string, error) {
	name := pep440.Normalize(pkg)
	key := c.keyer.VersionsKey(c.baseURL, name)

	var versions []string
	err := c.cached(ctx, key, refresh, &versions, func() error {
		var data apiResponse
		if err := c.get(ctx, fmt.Sprintf("%s/%s/json", c.baseURL, name), &data); err != nil {
			return err
		}
		versions = versions[:0]
		for version, files := range data.Releases {
			if !pep440.IsValid(version) || allYanked(files) {
				continue
			}
			versions = append(versions, version)
		}
		sort.Slice(versions, func(i, j int) bool {
			a, _ := pep440.Parse(versions[i])
			b, _ := pep440.Parse(versions[j])
			return pep440.Compare(a, b) < 0
		})
		return nil
	})
	if err != nil {
		return nil, describeFetchError(err, name, "")
	}
	return versions, nil
}

// describeFetchError attaches a structured code to an index failure. The
// cache sentinels stay in the chain for errors.Is callers.
func describeFetchError(err error, name, version string) error {
	switch {
	case stderrors.Is(err, cache.ErrNotFound) && version != "":
		return errors.Wrap(errors.ErrCodeVersionNotFound, err, "%s has no release %s", name, version)
	case stderrors.Is(err, cache.ErrNotFound):
		return errors.Wrap(errors.ErrCodePackageNotFound, err, "package %s not found on index", name)
	case stderrors.Is(err, cache.ErrNetwork):
		return errors.Wrap(errors.ErrCodeNetwork, err, "index request for %s failed", name)
	}
	return err
}

// cached reads v from cache or runs fetch (with retries) and stores the
// result. refresh bypasses the cache read but still writes.
func (c *Client) cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	if !refresh {
		if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
			if json.Unmarshal(data, v) == nil {
				return nil
			}
		}
	}
	if err := cache.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return err
	}
	return json.NewDecoder(io.LimitReader(resp.Body, 32<<20)).Decode(v)
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return cache.ErrNotFound
	case code >= 500:
		return cache.Retryable(fmt.Errorf("%w: status %d", cache.ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", cache.ErrNetwork, code)
	}
}

type apiResponse struct {
	Info     apiInfo                 `json:"info"`
	Releases map[string][]apiRelease `json:"releases"`
}

type apiInfo struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Summary        string   `json:"summary"`
	License        string   `json:"license"`
	Author         string   `json:"author"`
	HomePage       string   `json:"home_page"`
	RequiresPython string   `json:"requires_python"`
	Classifiers    []string `json:"classifiers"`
	RequiresDist   []string `json:"requires_dist"`
}

type apiRelease struct {
	Yanked bool `json:"yanked"`
}

func allYanked(files []apiRelease) bool {
	if len(files) == 0 {
		return false
	}
	for _, f := range files {
		if !f.Yanked {
			return false
		}
	}
	return true
}

// licenseOf prefers the short classifier form over the free-text license
// field, which often holds an entire license body.
func licenseOf(info apiInfo) string {
	for _, c := range info.Classifiers {
		if rest, ok := strings.CutPrefix(c, "License :: OSI Approved :: "); ok {
			return rest
		}
	}
	if len(info.License) > 60 {
		return strings.SplitN(info.License, "\n", 2)[0]
	}
	return info.License
}

// extractDeps pulls normalized runtime dependency names out of the
// requires_dist array, skipping extras-gated and platform-foreign
// entries.
func extractDeps(requires []string) []string {
	seen := make(map[string]bool)
	var deps []string
	for _, raw := range requires {
		spec, marker, _ := strings.Cut(raw, ";")
		if strings.Contains(marker, "extra") {
			continue
		}
		spec = strings.NewReplacer("(", "", ")", "").Replace(spec)
		req, err := pep440.ParseRequirement(strings.TrimSpace(spec))
		if err != nil || req.Name == "" {
			continue
		}
		name := req.Normalized()
		if !seen[name] {
			seen[name] = true
			deps = append(deps, name)
		}
	}
	return deps
}
