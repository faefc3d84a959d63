// Package pipeline implements the text-level stages of a conversion.
//
// Everything here works on raw HTML strings with regular expressions and a
// tokenizer for single tags; no DOM tree is ever built, so bytes outside the
// edited spans come back exactly as they went in.
//
//   - Segments: the working string split into frozen and unfrozen runs
//   - Edits: non-overlapping (start, end, text) replacements applied in one pass
//   - Cleanup: error annotation removal, reference section carve-out
//   - Images: locating embedded tex images and their companion scripts
//   - PlainText: decoding captured markup to the text handed to TeX
package pipeline
