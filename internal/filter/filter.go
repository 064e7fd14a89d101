// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

// Package filter classifies and redacts freetext message content and
// blocks reserved flight identifiers at registration time.
package filter

import (
	"regexp"
	"strings"
)

// bannedFlightNumbers are reserved or sensitive flight numbers that may
// never register a connection. Team-reserved callsigns plus real-world
// disaster flight numbers.
var bannedFlightNumbers = []string{
	"DISPATCH",
	"DISPATCHER",
	"FBW",
	"FBWTEAM",

	"AAL11",
	"AAL77",
	"MAS17",
	"MH17",
	"MAS370",
	"MH370",
	"UA93",
	"UA175",
	"AF447",
	"MSR990",
	"MSR804",
	"SJ182",
	"SJY182",
}

// blockedMessagePhrases are substrings that shadow-block a message.
var blockedMessagePhrases = []string{
	// Frequent spam
	"LDS.ORG",
	"LDSORG",
	"COMEUNTOCHRIST",
	"COME UNTO CHRIST",
	"BOOKOFMORMON",
	"BOOK OF MORMON",
	"CHURCHOFJESUSCHRIST",

	// Tiny URLs
	"RB.GY",
	"CUTT.LY",
	"BIT.LY",
}

// defaultProfanity is the baseline profane word list; extra words can be
// added via config.
var defaultProfanity = []string{
	"arse", "arsehole", "ass", "asshole", "bastard", "bitch", "bollocks",
	"bullshit", "cock", "crap", "cunt", "damn", "dick", "dickhead",
	"douche", "fag", "faggot", "fuck", "fucked", "fucker", "fucking",
	"jackass", "motherfucker", "nigga", "nigger", "piss", "prick", "pussy",
	"shit", "shite", "slut", "twat", "wanker", "whore",
}

// wordPattern tokenizes message text for profanity matching. Apostrophes
// and hyphens stay inside a token so "fucker's" masks as one word.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}'-]+`)

// Filter is a stateless content classifier. The zero value is not usable;
// construct with New.
type Filter struct {
	profane map[string]struct{}
	banned  map[string]struct{}
	blocked []string
}

// New creates a Filter with the default lists plus any extra profane words.
func New(extraWords ...string) *Filter {
	f := &Filter{
		profane: make(map[string]struct{}, len(defaultProfanity)+len(extraWords)),
		banned:  make(map[string]struct{}, len(bannedFlightNumbers)),
		blocked: blockedMessagePhrases,
	}

	for _, w := range defaultProfanity {
		f.profane[w] = struct{}{}
	}
	for _, w := range extraWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			f.profane[w] = struct{}{}
		}
	}
	for _, id := range bannedFlightNumbers {
		f.banned[id] = struct{}{}
	}

	return f
}

// IsProfane reports whether any token of text matches the profane word list.
func (f *Filter) IsProfane(text string) bool {
	for _, token := range wordPattern.FindAllString(text, -1) {
		if _, ok := f.profane[strings.ToLower(token)]; ok {
			return true
		}
	}
	return false
}

// Redact masks every profane token with asterisks of the same length,
// leaving the rest of the text untouched.
func (f *Filter) Redact(text string) string {
	return wordPattern.ReplaceAllStringFunc(text, func(token string) string {
		if _, ok := f.profane[strings.ToLower(token)]; ok {
			return strings.Repeat("*", len(token))
		}
		return token
	})
}

// ContainsBlockedPhrase reports whether text contains any blocked phrase,
// case-insensitive substring match.
func (f *Filter) ContainsBlockedPhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range f.blocked {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// IsBannedIdentifier reports whether flight matches the reserved list,
// exact case-insensitive comparison.
func (f *Filter) IsBannedIdentifier(flight string) bool {
	_, ok := f.banned[strings.ToUpper(flight)]
	return ok
}
