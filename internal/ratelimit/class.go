// Package ratelimit implements per-client token buckets grouped into route classes.
package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// Class is a named bucket family with its own capacity and window.
type Class struct {
	Name    string
	Limit   int
	Window  time.Duration
	Message string
}

const (
	ClassLogin    = "login"
	ClassRegister = "register"
	ClassApply    = "apply"
	ClassGeneral  = "general"
)

func DefaultClasses() map[string]Class {
	return map[string]Class{
		ClassLogin: {
			Name: ClassLogin, Limit: 5, Window: time.Minute,
			Message: "Too many login attempts. Please try again in 1 minute.",
		},
		ClassRegister: {
			Name: ClassRegister, Limit: 3, Window: time.Hour,
			Message: "Too many registration attempts. Please try again in 1 hour.",
		},
		ClassApply: {
			Name: ClassApply, Limit: 10, Window: time.Hour,
			Message: "Too many job applications. Please try again in 1 hour.",
		},
		ClassGeneral: {
			Name: ClassGeneral, Limit: 100, Window: time.Minute,
			Message: "Rate limit exceeded. Please try again later.",
		},
	}
}

// Override replaces limit/window of a class; zero values keep the default.
type Override struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

type Classifier struct {
	classes map[string]Class
}

func NewClassifier(overrides map[string]Override) *Classifier {
	classes := DefaultClasses()
	for name, o := range overrides {
		c, ok := classes[name]
		if !ok {
			continue
		}
		if o.Limit > 0 {
			c.Limit = o.Limit
		}
		if o.Window > 0 {
			c.Window = o.Window
		}
		classes[name] = c
	}
	return &Classifier{classes: classes}
}

func (c *Classifier) Class(name string) Class { return c.classes[name] }

// Classify maps a request to its class. Rules are checked in order:
// login, register, apply, general.
func (c *Classifier) Classify(method, path string) Class {
	if method == http.MethodPost {
		switch {
		case strings.Contains(path, "/login"):
			return c.classes[ClassLogin]
		case strings.Contains(path, "/register"):
			return c.classes[ClassRegister]
		case strings.Contains(path, "/applications/apply"):
			return c.classes[ClassApply]
		}
	}
	return c.classes[ClassGeneral]
}

var bypassPrefixes = []string{"/css/", "/js/", "/images/", "/swagger-ui/", "/v3/api-docs/"}

// Bypass reports whether path is a static asset or docs route.
func Bypass(path string) bool {
	if path == "/favicon.ico" {
		return true
	}
	for _, p := range bypassPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
