package inspect

import (
	"fmt"
	"strings"
)

// GitHubLinks is the canonical set of URLs derived from whatever a student
// pasted into the submission box.
type GitHubLinks struct {
	Username    string
	RepoName    string
	RepoLink    string
	LiveLink    string
	ProfileLink string
}

// ParseGitHubURLs derives username, repo name, repo URL and live-site URL from
// submitted links. Students paste anything: repo pages, deep links into blobs,
// github.io pages with query strings, or their profile. The first username and
// repo name seen win; a bare profile link maps to the profile repo convention
// (username/username).
func ParseGitHubURLs(urlsIn []string, classroomHost string) GitHubLinks {
	var urls []string
	for _, u := range urlsIn {
		if classroomHost != "" && strings.Contains(u, classroomHost) {
			continue
		}
		u = strings.ReplaceAll(u, "www.github.com", "github.com")
		u = strings.TrimSpace(u)
		u = strings.TrimSuffix(u, "/")
		u = strings.TrimSuffix(u, ".git")
		u = strings.TrimPrefix(u, "http://")
		u = strings.TrimPrefix(u, "https://")
		urls = append(urls, u)
	}

	var repoURLs, siteURLs []string
	for _, u := range urls {
		if strings.Contains(u, "github.com") {
			if i := strings.Index(u, "?"); i >= 0 {
				u = u[:i]
			}
			repoURLs = append(repoURLs, u)
		}
		if i := strings.Index(u, "."); i >= 0 && strings.HasPrefix(u[i:], ".github.io") {
			siteURLs = append(siteURLs, u)
		}
	}

	var usernames, reponames []string
	appendNew := func(list []string, v string) []string {
		for _, existing := range list {
			if existing == v {
				return list
			}
		}
		return append(list, v)
	}
	for _, u := range repoURLs {
		parts := strings.Split(u, "/")
		for i, p := range parts {
			if p != "github.com" {
				continue
			}
			if i+1 < len(parts) {
				usernames = appendNew(usernames, parts[i+1])
			}
			if i+2 < len(parts) {
				reponames = appendNew(reponames, parts[i+2])
			}
			break
		}
	}
	for _, u := range siteURLs {
		parts := strings.Split(u, "/")
		usernames = appendNew(usernames, strings.SplitN(parts[0], ".", 2)[0])
		if len(parts) > 1 {
			reponames = appendNew(reponames, parts[1])
		}
	}

	var username, reponame string
	if len(usernames) > 0 {
		username = usernames[0]
	}
	if len(reponames) > 0 {
		reponame = reponames[0]
	}

	links := GitHubLinks{
		Username:    username,
		RepoName:    reponame,
		ProfileLink: fmt.Sprintf("https://github.com/%s", username),
	}
	bare := contains(urls, "github.com/"+username) || contains(urls, fmt.Sprintf("github.com/%s/%s", username, username))
	if reponame == "" && bare {
		links.RepoLink = fmt.Sprintf("https://github.com/%s/%s", username, username)
		links.LiveLink = links.ProfileLink
	} else {
		links.RepoLink = fmt.Sprintf("https://github.com/%s/%s", username, reponame)
		links.LiveLink = fmt.Sprintf("https://%s.github.io/%s", strings.ToLower(username), reponame)
	}
	return links
}

// IsProfileRepo reports whether the derived repo is the special username/
// username profile repository.
func (l GitHubLinks) IsProfileRepo() bool {
	return strings.Contains(l.RepoLink, l.Username+"/"+l.Username)
}

// SubmittedLink reports whether any of the raw submitted URLs points at the
// given canonical link.
func SubmittedLink(urls []string, canonical string) bool {
	want := strings.ToLower(strings.TrimPrefix(canonical, "https://"))
	for _, u := range urls {
		if strings.HasSuffix(strings.ToLower(strings.TrimSuffix(u, "/")), want) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
