// Package coretext is the platform-native macOS backend stub. It satisfies
// o4e.Backend and registers itself as "coretext" ahead of "portable" on
// darwin, per the C9 contract's OS-priority registry — but Shape, Render and
// EmitSVG return errs.BackendUnavailable (Segment delegates to the portable
// segmenter, and the cache methods are no-ops), since an actual CoreText
// binding is out of this module's scope (the facade is specified at the
// interface level only; see SPEC_FULL.md §4.8). Off darwin, this package
// registers nothing and Default() falls through to "portable".
package coretext
