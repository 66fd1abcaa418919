package build

import (
	"fmt"
	"strconv"
	"strings"
)

// TagValues are the inputs tag templates resolve against. Tag strings are
// deterministic functions of these values: identical inputs always produce
// identical tags.
type TagValues struct {
	SHA        string // full commit sha
	Branch     string
	Repository string // "owner/name"
	Version    *VersionInfo
}

// ResolveTags expands tag templates against trigger and version values.
//
// Supported templates:
//
//	{sha}            → full commit sha
//	{sha:7}          → first 7 chars of the sha
//	{branch}         → "main" (sanitized for OCI tags)
//	{version}        → "1.2.3"
//	{major}          → "1"
//	{minor}          → "2"
//	{patch}          → "3"
//	latest           → "latest" (literal passthrough)
func ResolveTags(templates []string, v TagValues) []string {
	tags := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		tags = append(tags, resolveOne(tmpl, v))
	}
	return tags
}

// ResolvePath expands path templates. {repo} resolves to "owner/name".
func ResolvePath(path string, v TagValues) string {
	return strings.ReplaceAll(path, "{repo}", strings.ToLower(v.Repository))
}

func resolveOne(tmpl string, v TagValues) string {
	tag := tmpl
	tag = replaceSHA(tag, v.SHA)
	tag = strings.ReplaceAll(tag, "{branch}", sanitizeTag(v.Branch))
	if ver := v.Version; ver != nil {
		tag = strings.ReplaceAll(tag, "{version}", ver.Version)
		tag = strings.ReplaceAll(tag, "{major}", ver.Major)
		tag = strings.ReplaceAll(tag, "{minor}", ver.Minor)
		tag = strings.ReplaceAll(tag, "{patch}", ver.Patch)
	}
	return tag
}

// replaceSHA handles both {sha} and the width-controlled {sha:N} form.
// Tokens that merely start with "sha" ({shave}, {sha:x}) are not templates
// and pass through untouched.
func replaceSHA(tag, sha string) string {
	var out strings.Builder
	for {
		start := strings.Index(tag, "{sha")
		if start < 0 {
			break
		}
		end := strings.IndexByte(tag[start:], '}')
		if end < 0 {
			break
		}
		end += start

		value, ok := shaValue(tag[start+1:end], sha)
		if !ok {
			out.WriteString(tag[:end+1])
			tag = tag[end+1:]
			continue
		}
		out.WriteString(tag[:start])
		out.WriteString(value)
		tag = tag[end+1:]
	}
	out.WriteString(tag)
	return out.String()
}

// shaValue resolves a "sha" or "sha:N" token.
func shaValue(token, sha string) (string, bool) {
	if token == "sha" {
		return sha, true
	}
	width, ok := strings.CutPrefix(token, "sha:")
	if !ok {
		return "", false
	}
	n, err := strconv.Atoi(width)
	if err != nil || n <= 0 {
		return "", false
	}
	if n < len(sha) {
		return sha[:n], true
	}
	return sha, true
}

// sanitizeTag replaces characters not allowed in OCI tags.
func sanitizeTag(s string) string {
	r := strings.NewReplacer(
		"/", "-",
		" ", "-",
	)
	return r.Replace(s)
}

// QualifyRef composes a fully qualified image ref. Push refs must always
// carry the registry host; an empty host is a programming error upstream.
func QualifyRef(registryURL, path, tag string) string {
	return fmt.Sprintf("%s/%s:%s", registryURL, path, tag)
}
