// Package assets provides the TeX document templates that wrap markup
// before it reaches the toolchain.
//
// Built-in templates are embedded. A base directory may add or override
// templates as {basePath}/templates/{name}.tex; the Resolver consults it
// first and falls back to the built-ins only when a name is missing there.
//
// Templates are text/templates with << and >> delimiters, so TeX braces
// never collide with actions. They receive ClassOptions, Preamble, Begin,
// Markup and End, and must write \jobname.dims next to the output.
//
// Names are bare identifiers; paths that resolve outside the base
// directory through symlinks are rejected.
package assets
