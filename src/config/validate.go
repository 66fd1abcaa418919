package config

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Validation regexes based on the OCI Distribution Spec.
var (
	// OCI repository path: lowercase, digits, separators (-, _, ., /).
	ociPathRe = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*(?:/[a-z0-9]+(?:[._-][a-z0-9]+)*)*$`)

	// Env var prefix: uppercase letters, digits, underscore. Must start with a letter.
	envPrefixRe = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// Validate checks the whole configuration and returns all errors found,
// not just the first.
func (c *Config) Validate() []error {
	var errs []error

	if c.Cache.Mode != "" {
		switch c.Cache.Mode {
		case CacheAuto, CacheGHA, CacheRegistry, CacheOff:
		default:
			errs = append(errs, fmt.Errorf("cache mode %q is unknown (valid: auto, gha, registry, off)", c.Cache.Mode))
		}
		if c.Cache.Mode == CacheRegistry && c.Cache.Ref == "" {
			errs = append(errs, fmt.Errorf("cache mode registry requires cache.ref"))
		}
	}

	for _, p := range c.Gate.Branches {
		if err := validatePattern(p); err != nil {
			errs = append(errs, fmt.Errorf("gate branches: %w", err))
		}
	}

	for i, reg := range c.Registries {
		for _, err := range validateRegistry(reg) {
			errs = append(errs, fmt.Errorf("registries[%d]: %w", i, err))
		}
	}

	return errs
}

func validateRegistry(reg RegistryConfig) []error {
	var errs []error

	if err := validateRegistryURL(reg.URL); err != nil {
		errs = append(errs, err)
	}
	if err := validateImagePath(reg.Path); err != nil {
		errs = append(errs, err)
	}
	if len(reg.Tags) == 0 {
		errs = append(errs, fmt.Errorf("no tags configured"))
	}
	for _, t := range reg.Tags {
		if err := validateTagTemplate(t); err != nil {
			errs = append(errs, err)
		}
	}
	if err := validateCredentials(reg.Credentials); err != nil {
		errs = append(errs, err)
	}

	return errs
}

// validateRegistryURL checks that a registry host is well-formed. A push
// target without a registry host would publish to the implicit default
// registry, which the pipeline forbids.
func validateRegistryURL(u string) error {
	if u == "" {
		return fmt.Errorf("registry URL is empty (push refs must be registry-qualified)")
	}
	if containsControlChars(u) {
		return fmt.Errorf("registry URL %q contains control characters", u)
	}
	if strings.ContainsAny(u, " \t\n\r") {
		return fmt.Errorf("registry URL %q contains whitespace", u)
	}

	host := u
	if idx := strings.Index(host, "://"); idx >= 0 {
		scheme := host[:idx]
		if scheme != "http" && scheme != "https" {
			return fmt.Errorf("registry URL %q has invalid scheme %q (expected http or https)", u, scheme)
		}
		host = host[idx+3:]
	}
	if idx := strings.IndexByte(host, '/'); idx >= 0 {
		host = host[:idx]
	}
	if host == "" {
		return fmt.Errorf("registry URL %q has empty host", u)
	}
	if strings.ContainsAny(host, " \t{}[]<>\"'`") {
		return fmt.Errorf("registry URL %q has invalid host characters", u)
	}

	return nil
}

// validateImagePath checks that a repository path conforms to the OCI spec.
// Template blocks ({repo}, {env:VAR}) are stripped before validating the
// literal parts.
func validateImagePath(path string) error {
	if path == "" {
		return fmt.Errorf("image path is empty")
	}
	if containsControlChars(path) {
		return fmt.Errorf("image path %q contains control characters", path)
	}
	if len(path) > 256 {
		return fmt.Errorf("image path %q exceeds 256 characters", path)
	}

	literal := stripTemplates(path)
	if literal != "" && !ociPathRe.MatchString(literal) {
		return fmt.Errorf("image path %q contains invalid characters (OCI spec: lowercase, digits, -, _, ., /)", path)
	}

	return nil
}

// validateTagTemplate checks that an unresolved tag template is structurally
// valid. Allows {var} and {var:param} syntax.
func validateTagTemplate(tmpl string) error {
	if tmpl == "" {
		return fmt.Errorf("tag template is empty")
	}
	if containsControlChars(tmpl) {
		return fmt.Errorf("tag template %q contains control characters", tmpl)
	}
	if strings.ContainsAny(tmpl, " \t\n\r") {
		return fmt.Errorf("tag template %q contains whitespace", tmpl)
	}

	depth := 0
	for i, c := range tmpl {
		switch c {
		case '{':
			depth++
			if depth > 1 {
				return fmt.Errorf("tag template %q has nested braces at position %d", tmpl, i)
			}
		case '}':
			depth--
			if depth < 0 {
				return fmt.Errorf("tag template %q has unmatched closing brace at position %d", tmpl, i)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("tag template %q has unclosed brace", tmpl)
	}

	return nil
}

// validateCredentials checks that a credential prefix is a valid env var name.
func validateCredentials(prefix string) error {
	if prefix == "" {
		return nil // empty = ambient CI identity
	}
	upper := strings.ToUpper(prefix)
	if !envPrefixRe.MatchString(upper) {
		return fmt.Errorf("credentials prefix %q is not a valid env var name (expected: [A-Z][A-Z0-9_]*)", prefix)
	}
	return nil
}

func validatePattern(pattern string) error {
	p := strings.TrimPrefix(pattern, "!")
	if p == "" {
		return nil
	}
	if _, err := regexp.Compile(p); err != nil {
		return fmt.Errorf("pattern %q is not valid regex: %w", pattern, err)
	}
	return nil
}

// containsControlChars returns true if the string has any ASCII control characters.
func containsControlChars(s string) bool {
	for _, r := range s {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
		if r == unicode.ReplacementChar {
			return true
		}
	}
	return false
}

// stripTemplates removes all {…} blocks from a string, returning only
// literal parts.
func stripTemplates(s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '{' {
			j := i + 1
			for j < len(s) && s[j] != '}' {
				j++
			}
			if j < len(s) {
				i = j + 1
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}
