package gateways

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/ochairo/pkgbump/internal/domain/entities"
	"github.com/ochairo/pkgbump/internal/domain/interfaces"
	"gopkg.in/yaml.v3"
)

// DefaultContentDispositionPattern captures a dotted version from an attachment file name
const DefaultContentDispositionPattern = `filename="[^"]*?(\d+\.\d+\.\d+)[^"]*"`

// defaultVersionPattern finds a dotted version anywhere in a URL
const defaultVersionPattern = `(\d+(?:\.\d+)+)`

// GitHubAPIURL is the default GitHub REST endpoint
const GitHubAPIURL = "https://api.github.com"

// UpstreamFetcher implements gateways.UpstreamSource for every supported upstream kind
type UpstreamFetcher struct {
	fetcher   *HTTPFetcher
	logger    interfaces.Logger
	githubAPI string
	token     string
}

// NewUpstreamFetcher creates an upstream fetcher. GITHUB_TOKEN or GH_TOKEN,
// when set, authenticate GitHub API calls.
func NewUpstreamFetcher(fetcher *HTTPFetcher, logger interfaces.Logger) *UpstreamFetcher {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GH_TOKEN")
	}
	return &UpstreamFetcher{
		fetcher:   fetcher,
		logger:    logger,
		githubAPI: GitHubAPIURL,
		token:     token,
	}
}

// WithGitHubAPI points github-release lookups at another API root
func (u *UpstreamFetcher) WithGitHubAPI(base string) *UpstreamFetcher {
	u.githubAPI = strings.TrimSuffix(base, "/")
	return u
}

// FetchUpstream returns the latest published build. Every failure, after
// retries, is reported as ErrUpstreamUnavailable.
func (u *UpstreamFetcher) FetchUpstream(ctx context.Context, def *entities.Definition) (entities.BuildIdentity, error) {
	var id entities.BuildIdentity
	err := u.fetcher.Retry(ctx, "upstream "+def.Upstream.Kind, func(ctx context.Context) error {
		var err error
		id, err = u.fetchOnce(ctx, &def.Upstream)
		return err
	})
	if err != nil {
		return entities.UnknownIdentity, fmt.Errorf("%w: %w", entities.ErrUpstreamUnavailable, err)
	}

	u.logger.Debug("upstream resolved",
		interfaces.F("version", id.Version),
		interfaces.F("source", id.SourceLocation))
	return id, nil
}

func (u *UpstreamFetcher) fetchOnce(ctx context.Context, up *entities.UpstreamConfig) (entities.BuildIdentity, error) {
	var (
		id  entities.BuildIdentity
		err error
	)

	switch up.Kind {
	case entities.UpstreamContentDisposition:
		id, err = u.fetchContentDisposition(ctx, up)
	case entities.UpstreamRedirect:
		id, err = u.fetchRedirect(ctx, up)
	case entities.UpstreamJSON:
		id, err = u.fetchJSON(ctx, up)
	case entities.UpstreamElectronYAML:
		id, err = u.fetchElectronYAML(ctx, up)
	case entities.UpstreamGitHubRelease:
		id, err = u.fetchGitHubRelease(ctx, up)
	case entities.UpstreamText:
		id, err = u.fetchText(ctx, up)
	default:
		return id, permanent(fmt.Errorf("unsupported upstream kind %q", up.Kind))
	}
	if err != nil {
		return entities.UnknownIdentity, err
	}

	if up.Cleanup != "" {
		id.Version, err = transformVersion(id.Version, up.Cleanup)
		if err != nil {
			return entities.UnknownIdentity, permanent(fmt.Errorf("version transformation failed: %w", err))
		}
	}
	id.Version = strings.TrimSpace(id.Version)
	if id.Version == "" {
		return entities.UnknownIdentity, fmt.Errorf("upstream response carries no version")
	}

	if id.SourceLocation == "" {
		id.SourceLocation = up.RenderSource(id.Version)
	}

	return id, nil
}

func (u *UpstreamFetcher) headers(up *entities.UpstreamConfig) map[string]string {
	return map[string]string{"User-Agent": up.UserAgent}
}

// fetchContentDisposition reads the attachment name without downloading the body
func (u *UpstreamFetcher) fetchContentDisposition(ctx context.Context, up *entities.UpstreamConfig) (entities.BuildIdentity, error) {
	resp, err := u.fetcher.Get(ctx, up.URL, u.headers(up), false)
	if err != nil {
		return entities.UnknownIdentity, err
	}

	header := resp.Header.Get("Content-Disposition")
	if header == "" {
		return entities.UnknownIdentity, fmt.Errorf("response has no Content-Disposition header")
	}

	pattern := up.ExtractPattern
	if pattern == "" {
		pattern = DefaultContentDispositionPattern
	}
	version, err := extractVersion(header, pattern)
	if err != nil {
		return entities.UnknownIdentity, err
	}

	return entities.BuildIdentity{Version: version, SourceLocation: resp.FinalURL}, nil
}

// fetchRedirect follows redirects and reads the version from the final URL
func (u *UpstreamFetcher) fetchRedirect(ctx context.Context, up *entities.UpstreamConfig) (entities.BuildIdentity, error) {
	resp, err := u.fetcher.Get(ctx, up.URL, u.headers(up), false)
	if err != nil {
		return entities.UnknownIdentity, err
	}

	// The default pattern only looks at the file name so host and port
	// numbers cannot match
	target, pattern := resp.FinalURL, up.ExtractPattern
	if pattern == "" {
		target, pattern = fileName(resp.FinalURL), defaultVersionPattern
	}
	version, err := extractVersion(target, pattern)
	if err != nil {
		return entities.UnknownIdentity, err
	}

	return entities.BuildIdentity{Version: version, SourceLocation: resp.FinalURL}, nil
}

// fetchJSON reads version, URL and checksum from dotted paths in a JSON document
func (u *UpstreamFetcher) fetchJSON(ctx context.Context, up *entities.UpstreamConfig) (entities.BuildIdentity, error) {
	resp, err := u.fetcher.Get(ctx, up.URL, u.headers(up), true)
	if err != nil {
		return entities.UnknownIdentity, err
	}

	var doc any
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return entities.UnknownIdentity, fmt.Errorf("failed to parse JSON: %w", err)
	}

	var id entities.BuildIdentity
	if id.Version, err = lookupString(doc, up.VersionField); err != nil {
		return entities.UnknownIdentity, err
	}
	if up.ExtractPattern != "" {
		if id.Version, err = extractVersion(id.Version, up.ExtractPattern); err != nil {
			return entities.UnknownIdentity, err
		}
	}
	if up.URLField != "" {
		if id.SourceLocation, err = lookupString(doc, up.URLField); err != nil {
			return entities.UnknownIdentity, err
		}
	}
	if up.ChecksumField != "" {
		raw, err := lookupString(doc, up.ChecksumField)
		if err != nil {
			return entities.UnknownIdentity, err
		}
		encoding := up.ChecksumEncoding
		if encoding == "" {
			encoding = "hex"
		}
		if id.Checksum, err = normalizeChecksum(raw, encoding); err != nil {
			return entities.UnknownIdentity, err
		}
	}

	return id, nil
}

// electronFeed is the latest-linux.yml document written by electron-builder
type electronFeed struct {
	Version string `yaml:"version"`
	Path    string `yaml:"path"`
	SHA512  string `yaml:"sha512"`
	Files   []struct {
		URL    string `yaml:"url"`
		SHA512 string `yaml:"sha512"`
	} `yaml:"files"`
}

// fetchElectronYAML reads an electron-builder update feed
func (u *UpstreamFetcher) fetchElectronYAML(ctx context.Context, up *entities.UpstreamConfig) (entities.BuildIdentity, error) {
	resp, err := u.fetcher.Get(ctx, up.URL, u.headers(up), true)
	if err != nil {
		return entities.UnknownIdentity, err
	}

	var feed electronFeed
	if err := yaml.Unmarshal(resp.Body, &feed); err != nil {
		return entities.UnknownIdentity, fmt.Errorf("failed to parse update feed: %w", err)
	}

	file, sum := feed.Path, feed.SHA512
	for _, f := range feed.Files {
		if strings.HasSuffix(f.URL, ".AppImage") {
			file, sum = f.URL, f.SHA512
			break
		}
	}

	id := entities.BuildIdentity{Version: feed.Version}
	if up.SourceTemplate == "" && file != "" {
		id.SourceLocation, err = resolveReference(resp.FinalURL, file)
		if err != nil {
			return entities.UnknownIdentity, err
		}
	}
	if sum != "" {
		if id.Checksum, err = normalizeChecksum(sum, "base64"); err != nil {
			return entities.UnknownIdentity, err
		}
	}

	return id, nil
}

// githubReleaseResponse is the subset of the releases API this tool reads
type githubReleaseResponse struct {
	TagName string `json:"tag_name"`
	Draft   bool   `json:"draft"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
		Digest             string `json:"digest"`
	} `json:"assets"`
}

// fetchGitHubRelease fetches the latest release from GitHub
func (u *UpstreamFetcher) fetchGitHubRelease(ctx context.Context, up *entities.UpstreamConfig) (entities.BuildIdentity, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/releases/latest", u.githubAPI, up.Repo)
	headers := u.headers(up)
	headers["Accept"] = "application/vnd.github+json"
	if u.token != "" {
		headers["Authorization"] = "Bearer " + u.token
	}

	resp, err := u.fetcher.Get(ctx, endpoint, headers, true)
	if err != nil {
		return entities.UnknownIdentity, err
	}

	var release githubReleaseResponse
	if err := json.Unmarshal(resp.Body, &release); err != nil {
		return entities.UnknownIdentity, fmt.Errorf("failed to parse GitHub response: %w", err)
	}
	if release.Draft {
		return entities.UnknownIdentity, fmt.Errorf("latest release is a draft")
	}

	id := entities.BuildIdentity{Version: strings.TrimPrefix(release.TagName, "v")}
	if up.ExtractPattern != "" {
		if id.Version, err = extractVersion(release.TagName, up.ExtractPattern); err != nil {
			return entities.UnknownIdentity, err
		}
	}

	if up.AssetPattern != "" {
		re, err := regexp.Compile(up.AssetPattern)
		if err != nil {
			return entities.UnknownIdentity, permanent(fmt.Errorf("invalid asset pattern: %w", err))
		}
		for _, asset := range release.Assets {
			if !re.MatchString(asset.Name) {
				continue
			}
			id.SourceLocation = asset.BrowserDownloadURL
			// The API reports digests as "sha256:<hex>"
			if digest, ok := strings.CutPrefix(asset.Digest, "sha256:"); ok {
				id.Checksum = strings.ToLower(digest)
			}
			break
		}
		if id.SourceLocation == "" {
			return entities.UnknownIdentity, fmt.Errorf("no asset of release %s matches %s", release.TagName, up.AssetPattern)
		}
	}

	return id, nil
}

// fetchText extracts the version from any text document
func (u *UpstreamFetcher) fetchText(ctx context.Context, up *entities.UpstreamConfig) (entities.BuildIdentity, error) {
	resp, err := u.fetcher.Get(ctx, up.URL, u.headers(up), true)
	if err != nil {
		return entities.UnknownIdentity, err
	}

	version, err := extractVersion(string(resp.Body), up.ExtractPattern)
	if err != nil {
		return entities.UnknownIdentity, err
	}
	return entities.BuildIdentity{Version: version}, nil
}

// extractVersion extracts version using regex
func extractVersion(input, pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", permanent(fmt.Errorf("invalid regex pattern: %w", err))
	}

	matches := re.FindStringSubmatch(input)
	if len(matches) == 0 {
		return "", fmt.Errorf("no match found for pattern: %s", pattern)
	}

	// Prefer the first non-empty capture group, fall back to the full match
	if len(matches) > 1 && matches[1] != "" {
		return matches[1], nil
	}

	return matches[0], nil
}

// transformVersion applies sed-like transformations or simple string replacements
func transformVersion(input, sedPattern string) (string, error) {
	// Support simple "find:replace" syntax (e.g., "v:" to remove "v", "_:." to replace "_" with ".")
	if !strings.HasPrefix(sedPattern, "s") && strings.Contains(sedPattern, ":") {
		find, replace, _ := strings.Cut(sedPattern, ":")
		return strings.ReplaceAll(input, find, replace), nil
	}

	// Support sed with different separators: s/.../ or s|...| or s;...;
	if !strings.HasPrefix(sedPattern, "s") || len(sedPattern) < 4 {
		return "", fmt.Errorf("unsupported sed pattern (must start with s or use find:replace syntax): %s", sedPattern)
	}

	separator := rune(sedPattern[1])
	parts := splitBySeparator(sedPattern[2:], separator)
	if len(parts) < 2 {
		return "", fmt.Errorf("invalid sed pattern format: %s", sedPattern)
	}

	re, err := regexp.Compile(parts[0])
	if err != nil {
		return "", fmt.Errorf("invalid regex in sed pattern: %w", err)
	}
	replacement := parts[1]

	if len(parts) > 2 && strings.Contains(parts[2], "g") {
		return re.ReplaceAllString(input, replacement), nil
	}

	// Replace only first match
	loc := re.FindStringIndex(input)
	if loc == nil {
		return input, nil
	}
	return input[:loc[0]] + re.ReplaceAllString(input[loc[0]:loc[1]], replacement) + input[loc[1]:], nil
}

// splitBySeparator splits a string by a separator character, keeping escaped
// separators and backslashes intact for the regex
func splitBySeparator(s string, sep rune) []string {
	var parts []string
	var current strings.Builder
	escaped := false

	for _, ch := range s {
		if escaped {
			if ch != sep {
				current.WriteRune('\\')
			}
			current.WriteRune(ch)
			escaped = false
			continue
		}

		if ch == '\\' {
			escaped = true
			continue
		}

		if ch == sep {
			parts = append(parts, current.String())
			current.Reset()
			continue
		}

		current.WriteRune(ch)
	}

	parts = append(parts, current.String())
	return parts
}

// lookupString walks a dotted path through decoded JSON. Numeric segments
// index into arrays.
func lookupString(doc any, field string) (string, error) {
	cur := doc
	for _, key := range strings.Split(field, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[key]
			if !ok {
				return "", fmt.Errorf("field %s not found", field)
			}
			cur = next
		case []any:
			var idx int
			if _, err := fmt.Sscanf(key, "%d", &idx); err != nil || idx < 0 || idx >= len(node) {
				return "", fmt.Errorf("field %s: bad index %q", field, key)
			}
			cur = node[idx]
		default:
			return "", fmt.Errorf("field %s not found", field)
		}
	}

	switch v := cur.(type) {
	case string:
		return v, nil
	case float64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("field %s is not a scalar", field)
	}
}

// normalizeChecksum converts a published digest to lowercase hex
func normalizeChecksum(raw, encoding string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch encoding {
	case "hex":
		if _, err := hex.DecodeString(raw); err != nil {
			return "", fmt.Errorf("checksum is not hex: %w", err)
		}
		return strings.ToLower(raw), nil
	case "base64":
		sum, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return "", fmt.Errorf("checksum is not base64: %w", err)
		}
		return hex.EncodeToString(sum), nil
	default:
		return "", permanent(fmt.Errorf("unknown checksum encoding %q", encoding))
	}
}

// fileName returns the last path segment of a URL
func fileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return path.Base(u.Path)
}

func resolveReference(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %s: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid artifact path %s: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
