// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

/*
Package access decides whether an Emby client name is allowed to connect.

A rule matches when its pattern is a case-insensitive substring of the client
name, or, for regex rules, when the case-insensitive expression matches.
Evaluation checks the blacklist first; any hit denies. An empty whitelist then
allows everything else, otherwise a whitelist hit is required.

Empty client names match no rule, and a regex that does not compile matches
nothing. Compiled expressions are kept in an LRU so monitor passes do not
recompile the rule set for every session.

Regex patterns use Go's RE2 syntax. Look-around and backreferences are
rejected by ValidatePattern when a rule is added.
*/
package access
