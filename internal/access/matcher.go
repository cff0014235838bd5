// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package access

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tomtom215/flixpilot/internal/cache"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/models"
)

const (
	regexCacheSize = 256
	regexCacheTTL  = time.Hour
)

// Verdict is the outcome of evaluating a client name.
type Verdict int

const (
	Allowed Verdict = iota
	Blacklisted
	NotWhitelisted
)

func (v Verdict) String() string {
	switch v {
	case Allowed:
		return "allowed"
	case Blacklisted:
		return "blacklist"
	case NotWhitelisted:
		return "whitelist"
	default:
		return "unknown"
	}
}

// Decision is a Verdict plus the blacklist rule that caused it, if any.
type Decision struct {
	Verdict Verdict
	Rule    *models.ClientRule
}

// Allowed reports whether the client may connect.
func (d Decision) Allowed() bool {
	return d.Verdict == Allowed
}

// Matcher evaluates client names against rule sets. It is safe for
// concurrent use.
type Matcher struct {
	regexes *cache.LRU[string, *regexp.Regexp]
}

// NewMatcher returns a Matcher with an empty regex cache.
func NewMatcher() *Matcher {
	return &Matcher{regexes: cache.New[string, *regexp.Regexp](regexCacheSize, regexCacheTTL)}
}

// Match reports whether rule matches client.
func (m *Matcher) Match(rule *models.ClientRule, client string) bool {
	if client == "" {
		return false
	}
	if !rule.IsRegex {
		return strings.Contains(strings.ToLower(client), strings.ToLower(rule.Pattern))
	}
	re := m.compile(rule.Pattern)
	return re != nil && re.MatchString(client)
}

// compile returns the cached case-insensitive expression, or nil for a
// pattern that does not compile. Failures are cached too.
func (m *Matcher) compile(pattern string) *regexp.Regexp {
	re, _ := m.regexes.GetOrAdd(pattern, func() (*regexp.Regexp, error) {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			logging.Warn().Str("component", "access").Str("pattern", pattern).Err(err).
				Msg("Ignoring client rule with invalid regex")
			return nil, nil
		}
		return re, nil
	})
	return re
}

// FirstMatch returns the first rule in rules that matches client.
func (m *Matcher) FirstMatch(rules []models.ClientRule, client string) (*models.ClientRule, bool) {
	for i := range rules {
		if m.Match(&rules[i], client) {
			return &rules[i], true
		}
	}
	return nil, false
}

// Evaluate applies blacklist then whitelist.
func (m *Matcher) Evaluate(cfg *models.ClientConfig, client string) Decision {
	if rule, ok := m.FirstMatch(cfg.Blacklist, client); ok {
		return Decision{Verdict: Blacklisted, Rule: rule}
	}
	if len(cfg.Whitelist) == 0 {
		return Decision{Verdict: Allowed}
	}
	if _, ok := m.FirstMatch(cfg.Whitelist, client); ok {
		return Decision{Verdict: Allowed}
	}
	return Decision{Verdict: NotWhitelisted}
}

// Check is Evaluate phrased for the device API.
func (m *Matcher) Check(cfg *models.ClientConfig, client string) models.ClientCheck {
	switch m.Evaluate(cfg, client).Verdict {
	case Blacklisted:
		return models.ClientCheck{Allowed: false, Reason: fmt.Sprintf("客户端 %s 在黑名单中", client)}
	case NotWhitelisted:
		return models.ClientCheck{Allowed: false, Reason: fmt.Sprintf("客户端 %s 不在白名单中", client)}
	default:
		return models.ClientCheck{Allowed: true}
	}
}

// ValidatePattern rejects empty patterns and regexes that do not compile.
func ValidatePattern(pattern string, isRegex bool) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("pattern is empty")
	}
	if !isRegex {
		return nil
	}
	if _, err := regexp.Compile("(?i)" + pattern); err != nil {
		return fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return nil
}
