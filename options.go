// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tribble

import (
	"github.com/go-kit/log"
)

// Option is a Reader configuration option.
type Option func(*config)

type config struct {
	requireIndex bool
	locator      Locator
	opener       Opener
	logger       log.Logger
	concurrency  int
	cacheSize    int
}

func defaultConfig() config {
	return config{
		locator:     DefaultLocator{},
		opener:      FileOpener{},
		logger:      log.NewNopLogger(),
		concurrency: 1,
	}
}

// RequireIndex sets whether Open fails when no index is found for
// the feature file. The default is false.
func RequireIndex(require bool) Option {
	return func(c *config) { c.requireIndex = require }
}

// WithLocator sets the Locator used to find the index of the feature
// file. The default is DefaultLocator{}.
func WithLocator(l Locator) Option {
	return func(c *config) {
		if l != nil {
			c.locator = l
		}
	}
}

// WithOpener sets the Opener used to open the feature file. The
// default is FileOpener{}.
func WithOpener(o Opener) Option {
	return func(c *config) {
		if o != nil {
			c.opener = o
		}
	}
}

// WithLogger sets the logger used to report reader activity at debug
// level. The default discards all logs.
func WithLogger(l log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithConcurrency sets the number of concurrent BGZF block
// decompressors used for block compressed files. Values less than
// one are treated as one.
func WithConcurrency(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = 1
		}
		c.concurrency = n
	}
}

// WithBlockCache sets the number of decompressed BGZF blocks cached by
// the reader shared between queries. Zero disables caching.
func WithBlockCache(n int) Option {
	return func(c *config) {
		if n < 0 {
			n = 0
		}
		c.cacheSize = n
	}
}
