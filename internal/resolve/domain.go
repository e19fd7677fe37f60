package resolve

import "strings"

// NormalizeDomain reduces a website URL or bare hostname to a comparable
// domain: protocol, www prefix, path, query, and port are stripped and
// the result is lowercased. Empty input yields "".
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.IndexByte(d, ':'); i >= 0 {
		d = d[:i]
	}
	return d
}

// DomainOfEmail extracts the normalized domain of an email address.
// Returns "" when the input has no "@".
func DomainOfEmail(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	i := strings.LastIndexByte(addr, '@')
	if i < 0 || i == len(addr)-1 {
		return ""
	}
	return NormalizeDomain(addr[i+1:])
}

// BaseDomain returns the last two dot-separated labels of a hostname
// (mail.acme.com -> acme.com). Hostnames with fewer than two labels are
// returned unchanged.
func BaseDomain(domain string) string {
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return domain
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// LinkByDomain reports whether any source domain links to any candidate
// domain. Two domains link when they are equal after normalization, share
// a base domain, or one contains the other as a substring (covers www.
// and path variants not fully stripped upstream).
func LinkByDomain(domains, candidates []string) bool {
	for _, d := range domains {
		nd := NormalizeDomain(d)
		if nd == "" {
			continue
		}
		for _, c := range candidates {
			nc := NormalizeDomain(c)
			if nc == "" {
				continue
			}
			if nd == nc || BaseDomain(nd) == BaseDomain(nc) {
				return true
			}
			if strings.Contains(nd, nc) || strings.Contains(nc, nd) {
				return true
			}
		}
	}
	return false
}

// SharesEmail reports whether two email address sets intersect after
// trimming and case folding. Used to decide that two records are the
// same identity.
func SharesEmail(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, addr := range a {
		if e := strings.ToLower(strings.TrimSpace(addr)); e != "" {
			seen[e] = struct{}{}
		}
	}
	for _, addr := range b {
		if e := strings.ToLower(strings.TrimSpace(addr)); e != "" {
			if _, ok := seen[e]; ok {
				return true
			}
		}
	}
	return false
}
