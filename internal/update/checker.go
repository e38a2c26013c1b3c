// Package update checks the release feed for newer tinythis builds and
// applies them through a detached helper process.
package update

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRepo is the release feed queried for new builds.
const DefaultRepo = "wraithsoul/tinythis"

const githubAPIBase = "https://api.github.com"

// ErrNoUpdateAvailable reports that no published release is newer than
// the running build.
var ErrNoUpdateAvailable = errors.New("no update available")

// Info describes an available update: the versions involved and the two
// release assets needed to apply it.
type Info struct {
	Repo        string
	Current     Version
	Latest      Version
	Tag         string
	ExeURL      string
	ChecksumURL string
}

type githubRelease struct {
	TagName    string        `json:"tag_name"`
	Draft      bool          `json:"draft"`
	Prerelease bool          `json:"prerelease"`
	Assets     []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Checker queries the release feed.
type Checker struct {
	logger  zerolog.Logger
	client  *http.Client
	apiBase string

	// current is the running build's version string; failing to parse it
	// is a broken build, not a user error.
	current string
}

// NewChecker creates a Checker for the running build version.
func NewChecker(currentVersion string, logger *zerolog.Logger) *Checker {
	return &Checker{
		logger: logger.With().Str("service", "update").Logger(),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiBase: githubAPIBase,
		current: currentVersion,
	}
}

// ExeAssetName is the platform-specific executable asset filename
// expected in a release.
func ExeAssetName() string {
	return fmt.Sprintf("tinythis-%s-%s.exe", runtime.GOOS, runtime.GOARCH)
}

// ChecksumAssetName is the checksum sibling of the executable asset.
func ChecksumAssetName() string {
	return ExeAssetName() + ".sha256"
}

// CheckLatest queries the repo's release feed for the most recent
// published release carrying both required assets. It returns
// ErrNoUpdateAvailable when that release is not strictly newer than the
// running build.
func (c *Checker) CheckLatest(repo string) (*Info, error) {
	current, err := ParseVersion(c.current)
	if err != nil {
		return nil, fmt.Errorf("invalid build version %q: %w", c.current, err)
	}

	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	releases, err := c.fetchReleases(owner, name)
	if err != nil {
		return nil, err
	}

	for i := range releases {
		rel := &releases[i]
		if rel.Draft || rel.Prerelease {
			continue
		}

		exeURL, sumURL := findAssets(rel.Assets)
		if exeURL == "" || sumURL == "" {
			continue
		}

		latest, err := ParseVersion(rel.TagName)
		if err != nil {
			c.logger.Debug().Str("tag", rel.TagName).Msg("skipping release with unparsable tag")
			continue
		}

		if !latest.GreaterThan(current) {
			return nil, ErrNoUpdateAvailable
		}

		return &Info{
			Repo:        repo,
			Current:     current,
			Latest:      latest,
			Tag:         rel.TagName,
			ExeURL:      exeURL,
			ChecksumURL: sumURL,
		}, nil
	}

	return nil, ErrNoUpdateAvailable
}

func (c *Checker) fetchReleases(owner, name string) ([]githubRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=20", c.apiBase, owner, name)
	req, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "tinythis/"+c.current)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release feed returned status %d", resp.StatusCode)
	}

	var releases []githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("failed to decode release feed: %w", err)
	}
	return releases, nil
}

func findAssets(assets []githubAsset) (exeURL, sumURL string) {
	exeName := ExeAssetName()
	sumName := ChecksumAssetName()
	for i := range assets {
		switch assets[i].Name {
		case exeName:
			exeURL = assets[i].BrowserDownloadURL
		case sumName:
			sumURL = assets[i].BrowserDownloadURL
		}
	}
	return exeURL, sumURL
}

func splitRepo(repo string) (owner, name string, err error) {
	repo = strings.TrimSpace(repo)
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("invalid repo: %q", repo)
	}
	return owner, name, nil
}
