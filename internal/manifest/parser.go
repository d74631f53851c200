// Package manifest reads XML manifests into entries and files.
//
// A manifest looks like:
//
//	<entries>
//	  <entry name="pkgs">
//	    <file name="foo.tar.gz" destdir="dist" url="https://example.com/$(name)">
//	      <checksum algo="sha256" digest="9f86d0..."/>
//	    </file>
//	  </entry>
//	</entries>
//
// Unknown elements are logged and skipped. Structural problems such as a
// missing attribute or a checksum outside a file are reported as
// ErrMalformedManifest.
package manifest

import (
	"encoding/xml"
	"io"
	"log/slog"
	"os"

	"github.com/handiism/manifest-downloader/internal/model"
	"github.com/pkg/errors"
)

// ErrMalformedManifest is returned for manifests that do not have the expected shape.
var ErrMalformedManifest = errors.New("malformed manifest")

// element is a generic XML element as decoded by encoding/xml.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []element  `xml:",any"`
}

func (el element) attr(name string) (string, bool) {
	for _, a := range el.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

type nodeKind int

const (
	kindUnknown nodeKind = iota
	kindEntry
	kindFile
	kindChecksum
)

func (k nodeKind) String() string {
	switch k {
	case kindEntry:
		return "entry"
	case kindFile:
		return "file"
	case kindChecksum:
		return "checksum"
	default:
		return "unknown"
	}
}

// node is the parsed form of one element. Exactly the fields matching
// kind are set.
type node struct {
	kind   nodeKind
	entry  *model.Entry
	file   *model.File
	algo   string
	digest string
}

// Parser turns manifest documents into entries.
type Parser struct {
	rootDir string
	log     *slog.Logger
}

// NewParser creates a Parser resolving relative destination directories
// against rootDir.
func NewParser(rootDir string, log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{rootDir: rootDir, log: log}
}

// ParseFile parses the manifest at path.
func (p *Parser) ParseFile(path string) ([]*model.Entry, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open manifest")
	}
	defer fp.Close()

	entries, err := p.Parse(fp)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return entries, nil
}

// Parse reads a manifest document from r and returns its entries in
// document order.
func (p *Parser) Parse(r io.Reader) ([]*model.Entry, error) {
	var root element
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, errors.Wrapf(ErrMalformedManifest, "decode xml: %v", err)
	}
	if root.XMLName.Local != "entries" {
		return nil, errors.Wrapf(ErrMalformedManifest, "root element is <%s>, want <entries>", root.XMLName.Local)
	}

	var entries []*model.Entry
	for _, child := range root.Children {
		n, err := p.parseNode(child)
		if err != nil {
			return nil, err
		}
		switch n.kind {
		case kindEntry:
			entries = append(entries, n.entry)
		case kindUnknown:
		default:
			return nil, errors.Wrapf(ErrMalformedManifest, "<%s> outside of an entry", n.kind)
		}
	}
	return entries, nil
}

func (p *Parser) parseNode(el element) (node, error) {
	switch el.XMLName.Local {
	case "entry":
		return p.parseEntry(el)
	case "file":
		return p.parseFile(el)
	case "checksum":
		return p.parseChecksum(el)
	default:
		p.log.Warn("unknown tag", "tag", el.XMLName.Local)
		return node{kind: kindUnknown}, nil
	}
}

func (p *Parser) parseEntry(el element) (node, error) {
	attrs, err := p.require(el, "name")
	if err != nil {
		return node{}, err
	}

	entry := model.NewEntry(attrs["name"])
	for _, child := range el.Children {
		n, err := p.parseNode(child)
		if err != nil {
			return node{}, err
		}
		switch n.kind {
		case kindFile:
			entry.Add(n.file)
		case kindUnknown:
		default:
			return node{}, errors.Wrapf(ErrMalformedManifest, "entry %q: unexpected <%s>", entry.Name, n.kind)
		}
	}
	return node{kind: kindEntry, entry: entry}, nil
}

func (p *Parser) parseFile(el element) (node, error) {
	attrs, err := p.require(el, "name", "destdir", "url")
	if err != nil {
		return node{}, err
	}

	checksums := map[string]string{}
	for _, child := range el.Children {
		n, err := p.parseNode(child)
		if err != nil {
			return node{}, err
		}
		switch n.kind {
		case kindChecksum:
			if _, dup := checksums[n.algo]; dup {
				return node{}, errors.Wrapf(ErrMalformedManifest, "file %q: duplicate %s checksum", attrs["name"], n.algo)
			}
			checksums[n.algo] = n.digest
		case kindUnknown:
		default:
			return node{}, errors.Wrapf(ErrMalformedManifest, "file %q: unexpected <%s>", attrs["name"], n.kind)
		}
	}

	file, err := model.NewFile(p.rootDir, attrs["name"], attrs["destdir"], attrs["url"], checksums)
	if err != nil {
		return node{}, err
	}
	return node{kind: kindFile, file: file}, nil
}

func (p *Parser) parseChecksum(el element) (node, error) {
	attrs, err := p.require(el, "algo", "digest")
	if err != nil {
		return node{}, err
	}
	return node{kind: kindChecksum, algo: attrs["algo"], digest: attrs["digest"]}, nil
}

// require collects the named attributes of el, failing if one is absent.
func (p *Parser) require(el element, names ...string) (map[string]string, error) {
	attrs := make(map[string]string, len(names))
	for _, name := range names {
		v, ok := el.attr(name)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedManifest, "<%s> is missing the %q attribute", el.XMLName.Local, name)
		}
		attrs[name] = v
	}
	for _, a := range el.Attrs {
		if _, ok := attrs[a.Name.Local]; !ok {
			p.log.Debug("ignoring attribute", "tag", el.XMLName.Local, "attr", a.Name.Local)
		}
	}
	return attrs, nil
}
