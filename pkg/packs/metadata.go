package packs

import (
	"io"
	"io/fs"
	"strconv"

	"github.com/arthur-debert/packsmith/pkg/compression"
	"github.com/arthur-debert/packsmith/pkg/errors"
	"github.com/beevik/etree"
)

const metadataVersion = "1"

// WriteMetadata serializes packs to the packs.xml resource format
func WriteMetadata(w io.Writer, packs []*Pack) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("packs")
	root.CreateAttr("version", metadataVersion)

	for _, p := range packs {
		el := root.CreateElement("pack")
		el.CreateAttr("name", p.Name)
		setAttr(el, "id", p.ID)
		el.CreateAttr("size", strconv.FormatInt(p.Size, 10))
		el.CreateAttr("filesize", strconv.FormatInt(p.FileSize, 10))
		setAttr(el, "langpack", p.LangPackID)
		setAttr(el, "condition", p.Condition)
		setBool(el, "required", p.Required)
		setBool(el, "preselected", p.Preselected)
		setBool(el, "hidden", p.Hidden)
		setBool(el, "external", p.External)

		if p.Description != "" {
			el.CreateElement("description").SetText(p.Description)
		}
		for _, dep := range p.Depends {
			el.CreateElement("depends").CreateAttr("packname", dep)
		}

		for _, f := range p.Files {
			fe := el.CreateElement("file")
			fe.CreateAttr("target", f.Target)
			fe.CreateAttr("size", strconv.FormatInt(f.Size, 10))
			fe.CreateAttr("mode", strconv.FormatUint(uint64(f.Mode.Perm()), 8))
			setAttr(fe, "compression", string(f.Compression))
			fe.CreateAttr("offset", strconv.FormatInt(f.Offset, 10))
			fe.CreateAttr("stored", strconv.FormatInt(f.StoredSize, 10))
			setAttr(fe, "condition", f.Condition)
			setBool(fe, "parse", f.Parse)
			if f.IsPack200() {
				fe.CreateAttr("pack200", strconv.Itoa(f.Pack200ID))
			}
			if f.Ref != nil {
				fe.CreateAttr("refpack", f.Ref.Pack)
				fe.CreateAttr("refoffset", strconv.FormatInt(f.Ref.Offset, 10))
			}
		}
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return errors.Wrap(err, errors.ErrArchiveWrite, "failed to write pack metadata")
	}
	return nil
}

// ReadMetadata parses the packs.xml resource
func ReadMetadata(r io.Reader) ([]*Pack, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, errors.Wrap(err, errors.ErrArchiveRead, "failed to parse pack metadata")
	}

	root := doc.SelectElement("packs")
	if root == nil {
		return nil, errors.New(errors.ErrArchiveRead, "pack metadata has no <packs> element")
	}

	var packs []*Pack
	for _, el := range root.SelectElements("pack") {
		p := &Pack{
			Name:        el.SelectAttrValue("name", ""),
			ID:          el.SelectAttrValue("id", ""),
			LangPackID:  el.SelectAttrValue("langpack", ""),
			Condition:   el.SelectAttrValue("condition", ""),
			Required:    boolAttr(el, "required"),
			Preselected: boolAttr(el, "preselected"),
			Hidden:      boolAttr(el, "hidden"),
			External:    boolAttr(el, "external"),
		}
		if p.Name == "" {
			return nil, errors.New(errors.ErrArchiveRead, "pack metadata entry has no name")
		}

		var err error
		if p.Size, err = intAttr(el, "size"); err != nil {
			return nil, err
		}
		if p.FileSize, err = intAttr(el, "filesize"); err != nil {
			return nil, err
		}
		if d := el.SelectElement("description"); d != nil {
			p.Description = d.Text()
		}
		for _, dep := range el.SelectElements("depends") {
			p.Depends = append(p.Depends, dep.SelectAttrValue("packname", ""))
		}

		for _, fe := range el.SelectElements("file") {
			f, err := readFile(fe)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrArchiveRead, "pack %q", p.Name)
			}
			p.Files = append(p.Files, f)
		}
		packs = append(packs, p)
	}

	return packs, nil
}

func readFile(fe *etree.Element) (*PackFile, error) {
	size, err := intAttr(fe, "size")
	if err != nil {
		return nil, err
	}
	mode, err := strconv.ParseUint(fe.SelectAttrValue("mode", "644"), 8, 32)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrArchiveRead, "invalid file mode")
	}

	f := NewPackFile("", fe.SelectAttrValue("target", ""), size, fs.FileMode(mode))
	f.Compression = compression.Format(fe.SelectAttrValue("compression", ""))
	f.Condition = fe.SelectAttrValue("condition", "")
	f.Parse = boolAttr(fe, "parse")

	if f.Offset, err = intAttr(fe, "offset"); err != nil {
		return nil, err
	}
	if f.StoredSize, err = intAttr(fe, "stored"); err != nil {
		return nil, err
	}
	if v := fe.SelectAttrValue("pack200", ""); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrArchiveRead, "invalid pack200 id")
		}
		f.Pack200ID = id
	}
	if refPack := fe.SelectAttrValue("refpack", ""); refPack != "" {
		off, err := intAttr(fe, "refoffset")
		if err != nil {
			return nil, err
		}
		f.Ref = &BackRef{Pack: refPack, Offset: off}
	}
	return f, nil
}

func setAttr(el *etree.Element, key, value string) {
	if value != "" {
		el.CreateAttr(key, value)
	}
}

func setBool(el *etree.Element, key string, value bool) {
	if value {
		el.CreateAttr(key, "true")
	}
}

func boolAttr(el *etree.Element, key string) bool {
	v, _ := strconv.ParseBool(el.SelectAttrValue(key, "false"))
	return v
}

func intAttr(el *etree.Element, key string) (int64, error) {
	raw := el.SelectAttrValue(key, "0")
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrArchiveRead, "invalid %s attribute %q", key, raw)
	}
	return v, nil
}
