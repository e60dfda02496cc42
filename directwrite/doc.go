// Package directwrite is the platform-native Windows backend stub. It
// satisfies o4e.Backend and registers itself as "directwrite" ahead of
// "portable" on windows, per the C9 contract's OS-priority registry — but
// every shaping/rendering method returns errs.BackendUnavailable, since an
// actual DirectWrite binding is out of this module's scope (see
// SPEC_FULL.md §4.8). Off windows, this package registers nothing and
// Default() falls through to "portable".
package directwrite
