package markdown

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// RefKind tells where an asset reference was found.
type RefKind string

const (
	RefKindImage RefKind = "image" // markdown image destination
	RefKindHTML  RefKind = "html"  // src attribute of embedded HTML
)

// AssetRef is one asset reference found in a document.
type AssetRef struct {
	Kind        RefKind
	Tag         string // HTML element for RefKindHTML, "img" otherwise
	Destination string
}

// srcTags are the HTML elements whose src attribute points at an asset.
var srcTags = map[string]bool{
	"img": true, "video": true, "audio": true, "source": true, "script": true, "iframe": true, "embed": true,
}

// ExtractAssetRefs parses a Markdown body and returns its image destinations
// and the src attributes of any raw HTML it embeds, in document order.
func ExtractAssetRefs(body []byte) []AssetRef {
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	refs := make([]AssetRef, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Image:
			refs = append(refs, AssetRef{Kind: RefKindImage, Tag: "img", Destination: string(node.Destination)})
		case *gmast.RawHTML:
			var buf bytes.Buffer
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				buf.Write(seg.Value(body))
			}
			refs = append(refs, htmlSrcRefs(&buf)...)
		case *gmast.HTMLBlock:
			var buf bytes.Buffer
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(body))
			}
			if node.HasClosure() {
				buf.Write(node.ClosureLine.Value(body))
			}
			refs = append(refs, htmlSrcRefs(&buf)...)
		}
		return gmast.WalkContinue, nil
	})
	return refs
}

// htmlSrcRefs tokenizes an HTML fragment and collects src attributes of
// asset-bearing elements, whatever their quoting.
func htmlSrcRefs(r io.Reader) []AssetRef {
	var refs []AssetRef
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return refs
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if !srcTags[tok.Data] {
				continue
			}
			for _, a := range tok.Attr {
				if a.Key == "src" && strings.TrimSpace(a.Val) != "" {
					refs = append(refs, AssetRef{Kind: RefKindHTML, Tag: tok.Data, Destination: a.Val})
				}
			}
		}
	}
}
