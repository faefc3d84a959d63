// Package texhtml converts TeX markup embedded in HTML fragments into
// images and back.
//
// # Quick Start
//
// Create a converter and convert a document:
//
//	conv, err := texhtml.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	doc := texhtml.NewDocument(`<p>Euler: $e^{i\pi}+1=0$</p>`, "")
//	out, err := conv.ConvertMarkupToImages(ctx, doc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Every match becomes an <img> carrying its source in a data-tex attribute,
// so the reverse conversion restores the markup:
//
//	src, err := conv.ConvertImagesToMarkup(ctx, doc)
//
// Both calls update doc, so calls can be chained on the same Document.
//
// # Editable Region
//
// A Document pairs the host's full HTML with the region being converted.
// Only the region is rewritten; the rest of the full text is untouched. An
// empty region selects the whole text, and a region that is no longer part
// of the full text fails with ErrSelectionNotFound.
//
// # Tag Rules
//
// Tag rules are evaluated in order: $$...$$, \[...\], \(...\) and $...$ by
// default. Each rule sees only text that no earlier rule replaced, and never
// matches inside existing <script> elements, existing tex images or the
// trailing reference section. Use WithTagRules for custom delimiters:
//
//	chem, _ := texhtml.NewTagRule("chem", "[ce]", "[/ce]", `$\ce{`, "}$")
//	conv, err := texhtml.NewConverter(
//	    texhtml.WithTagRules(append(texhtml.DefaultTagRules(), chem)...),
//	)
//
// # Rendering
//
// The built-in renderer runs an external TeX toolchain once per match:
// latex to produce DVI, then dvipng or dvisvgm. The document template writes
// a metrics side-file that gives the image's depth, so each image is
// aligned on the surrounding text's baseline. Configure it with
// WithToolchain and WithAssetPath, or replace it with WithRenderer.
//
// A match that fails to render keeps its source text, followed by an error
// annotation. The annotation is removed by the next conversion.
//
// # Image Storage
//
// By default images are inlined as base64 data URIs. WithImageStore writes
// them into a content-addressed directory instead and references them by
// file URL:
//
//	store, err := texhtml.OpenImageStore(dir)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	conv, err := texhtml.NewConverter(texhtml.WithImageStore(store))
//
// # Thread Safety
//
// A Converter is safe for concurrent use. A Document is not.
package texhtml
