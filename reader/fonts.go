package reader

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// FontInfo describes one font resource of a page, as declared in the
// page's resource dictionary. It carries everything the text decoder
// needs: the font's identity, its declared encoding, the descriptor
// flags, and the raw ToUnicode CMap stream when present.
type FontInfo struct {
	// Name is the resource name the content stream selects the font
	// by, e.g. "F1".
	Name string

	// BaseFont is the PostScript font name, e.g. "Helvetica-Bold" or
	// "ABCDEF+TimesNewRoman".
	BaseFont string

	// Subtype is the font dictionary subtype: Type1, TrueType, Type0,
	// Type3, MMType1.
	Subtype string

	// Encoding is the declared encoding name (WinAnsiEncoding,
	// MacRomanEncoding, Identity-H, ...) or empty when the encoding is
	// a dictionary or absent.
	Encoding string

	// Flags is the font descriptor flags bitfield. Zero when no
	// descriptor was found.
	Flags int

	// ToUnicode holds the decoded ToUnicode CMap stream, or nil.
	ToUnicode []byte
}

// PageFonts returns the font resources of a page keyed by resource
// name. Fonts that cannot be resolved are silently skipped; a page
// without font resources yields an empty map.
func (d *Document) PageFonts(pageNr int) (map[string]FontInfo, error) {
	if pageNr < 1 || pageNr > d.ctx.PageCount {
		return nil, fmt.Errorf("%w: page %d out of range 1..%d", ErrInvalidStructure, pageNr, d.ctx.PageCount)
	}

	fonts := map[string]FontInfo{}

	_, _, inh, err := d.ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, fmt.Errorf("page %d resources: %w", pageNr, err)
	}
	if inh == nil || inh.Resources == nil {
		return fonts, nil
	}

	obj, found := inh.Resources.Find("Font")
	if !found {
		return fonts, nil
	}
	fontDicts, err := d.ctx.DereferenceDict(obj)
	if err != nil || fontDicts == nil {
		return fonts, nil
	}

	for name, ref := range fontDicts {
		fd, err := d.ctx.DereferenceDict(ref)
		if err != nil || fd == nil {
			continue
		}
		fonts[name] = d.fontInfo(name, fd)
	}

	return fonts, nil
}

// fontInfo extracts the fields of interest from a font dictionary.
func (d *Document) fontInfo(name string, fd types.Dict) FontInfo {
	fi := FontInfo{Name: name}

	if s := fd.NameEntry("BaseFont"); s != nil {
		fi.BaseFont = *s
	}
	if s := fd.NameEntry("Subtype"); s != nil {
		fi.Subtype = *s
	}
	if s := fd.NameEntry("Encoding"); s != nil {
		fi.Encoding = *s
	} else if obj, found := fd.Find("Encoding"); found {
		// Encoding dictionaries carry an optional BaseEncoding name.
		if encDict, err := d.ctx.DereferenceDict(obj); err == nil && encDict != nil {
			if s := encDict.NameEntry("BaseEncoding"); s != nil {
				fi.Encoding = *s
			}
		}
	}

	fi.Flags = d.descriptorFlags(fd)

	if obj, found := fd.Find("ToUnicode"); found {
		fi.ToUnicode = d.streamBytes(obj)
	}

	return fi
}

// descriptorFlags resolves the font descriptor flags, following the
// DescendantFonts indirection for composite (Type0) fonts.
func (d *Document) descriptorFlags(fd types.Dict) int {
	desc := d.resolveDict(fd, "FontDescriptor")

	if desc == nil {
		if arr, found := fd.Find("DescendantFonts"); found {
			if descendants, err := d.ctx.DereferenceArray(arr); err == nil && len(descendants) > 0 {
				if df, err := d.ctx.DereferenceDict(descendants[0]); err == nil && df != nil {
					desc = d.resolveDict(df, "FontDescriptor")
				}
			}
		}
	}

	if desc == nil {
		return 0
	}
	if flags := desc.IntEntry("Flags"); flags != nil {
		return *flags
	}
	return 0
}

// resolveDict dereferences a dictionary-valued entry, or returns nil.
func (d *Document) resolveDict(dict types.Dict, key string) types.Dict {
	obj, found := dict.Find(key)
	if !found {
		return nil
	}
	res, err := d.ctx.DereferenceDict(obj)
	if err != nil {
		return nil
	}
	return res
}

// streamBytes dereferences and decodes a stream object, returning its
// uncompressed content or nil on any failure.
func (d *Document) streamBytes(obj types.Object) []byte {
	resolved, err := d.ctx.Dereference(obj)
	if err != nil {
		return nil
	}
	sd, ok := resolved.(types.StreamDict)
	if !ok {
		return nil
	}
	if err := sd.Decode(); err != nil {
		return nil
	}
	return sd.Content
}
