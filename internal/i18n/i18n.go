// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i18n translates UI strings and flash messages into the supported
// languages (English and Russian).
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

//go:embed locales
var localesFS embed.FS

// DefaultLanguage is used when nothing better matches.
const DefaultLanguage = "en"

// SupportedLanguages lists the UI languages.
var SupportedLanguages = []string{"en", "ru"}

// Message is one entry of a messages.json file.
type Message struct {
	ID          string `json:"id"`
	Translation string `json:"translation"`
}

// MessageFile is the structure of a messages.json file.
type MessageFile struct {
	Language string    `json:"language"`
	Messages []Message `json:"messages"`
}

// Catalog holds translations for every supported language.
type Catalog struct {
	mu           sync.RWMutex
	translations map[string]map[string]string // lang -> key -> text
	matcher      language.Matcher
	supported    []language.Tag
	logger       *slog.Logger
}

var (
	catalogMu sync.RWMutex
	catalog   *Catalog
)

// Init loads the embedded catalogs and installs them globally.
func Init(logger *slog.Logger) error {
	c, err := Load(logger)
	if err != nil {
		return err
	}
	catalogMu.Lock()
	catalog = c
	catalogMu.Unlock()

	if logger != nil {
		logger.Info("i18n initialized", "languages", SupportedLanguages)
	}
	return nil
}

// Load reads the embedded catalogs into a new Catalog.
func Load(logger *slog.Logger) (*Catalog, error) {
	c := &Catalog{
		translations: make(map[string]map[string]string, len(SupportedLanguages)),
		logger:       logger,
	}
	for _, lang := range SupportedLanguages {
		c.supported = append(c.supported, language.MustParse(lang))
		if err := c.loadLanguage(lang); err != nil {
			return nil, fmt.Errorf("loading language %s: %w", lang, err)
		}
	}
	c.matcher = language.NewMatcher(c.supported)
	return c, nil
}

func (c *Catalog) loadLanguage(lang string) error {
	path := "locales/" + lang + "/messages.json"
	data, err := localesFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file MessageFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	m := make(map[string]string, len(file.Messages))
	for _, msg := range file.Messages {
		m[msg.ID] = msg.Translation
	}

	c.mu.Lock()
	c.translations[lang] = m
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Debug("loaded translations", "language", lang, "count", len(m))
	}
	return nil
}

// T translates key into lang, falling back to English and then to the key
// itself. Args are applied with fmt.Sprintf.
func (c *Catalog) T(lang, key string, args ...any) string {
	c.mu.RLock()
	text, ok := c.translations[lang][key]
	if !ok && lang != DefaultLanguage {
		text, ok = c.translations[DefaultLanguage][key]
		if ok && c.logger != nil {
			c.logger.Debug("missing translation, using default", "key", key, "lang", lang)
		}
	}
	c.mu.RUnlock()

	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

// Match returns the supported language that best fits an Accept-Language
// header or a bare language code.
func (c *Catalog) Match(accept string) string {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		tag, err := language.Parse(accept)
		if err != nil {
			return DefaultLanguage
		}
		tags = []language.Tag{tag}
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(c.supported) {
		return DefaultLanguage
	}
	base, _ := c.supported[idx].Base()
	return base.String()
}

// Count returns the number of translations loaded for lang.
func (c *Catalog) Count(lang string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.translations[lang])
}

func current() *Catalog {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	return catalog
}

// T translates with the global catalog. Before Init it returns key.
func T(lang, key string, args ...any) string {
	c := current()
	if c == nil {
		return key
	}
	return c.T(lang, key, args...)
}

// MatchLanguage matches with the global catalog.
func MatchLanguage(accept string) string {
	c := current()
	if c == nil {
		return DefaultLanguage
	}
	return c.Match(accept)
}

// IsSupported reports whether lang is a supported UI language.
func IsSupported(lang string) bool {
	return slices.Contains(SupportedLanguages, strings.ToLower(lang))
}

// TranslationCount returns the number of global translations for lang.
func TranslationCount(lang string) int {
	c := current()
	if c == nil {
		return 0
	}
	return c.Count(lang)
}
