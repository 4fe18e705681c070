package content

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/kmodctl/internal/content/tlv"
	"github.com/danmuck/kmodctl/internal/kmod"
)

// Field ids inside a package block.
const (
	FieldPackageName uint16 = 1
	FieldRuleName    uint16 = 2
	FieldRuleBody    uint16 = 3
)

const (
	countLen       = 4
	blockLenPrefix = 4

	DefaultMaxBlockBytes = 64 << 20
)

var (
	ErrNotAPackage    = errors.New("content: object is not a knowledge package")
	ErrBlockTooLarge  = errors.New("content: package block too large")
	ErrTruncatedBlock = errors.New("content: truncated package block")
)

// Rule is one compiled rule. Body is engine-specific.
type Rule struct {
	Name string
	Body []byte
}

// Package is a named group of compiled rules.
type Package struct {
	Name  string
	Rules []Rule
}

// Packages encodes a package list as a uint32 count followed by one
// length-prefixed TLV block per package.
type Packages struct {
	MaxBlockBytes uint32
}

var _ kmod.ContentCodec[[]Package] = Packages{}

func (c Packages) maxBlock() uint32 {
	if c.MaxBlockBytes == 0 {
		return DefaultMaxBlockBytes
	}
	return c.MaxBlockBytes
}

func (c Packages) Encode(w io.Writer, pkgs []Package) error {
	var hdr [countLen]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(pkgs)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	for i, p := range pkgs {
		block := encodePackage(p)
		if uint64(len(block)) > uint64(c.maxBlock()) {
			return fmt.Errorf("%w: package #%d (%s) is %d bytes", ErrBlockTooLarge, i+1, p.Name, len(block))
		}
		var l [blockLenPrefix]byte
		binary.BigEndian.PutUint32(l[:], uint32(len(block)))
		if _, err := w.Write(l[:]); err != nil {
			return err
		}
		if _, err := w.Write(block); err != nil {
			return err
		}
	}
	return nil
}

func (c Packages) Decode(r io.Reader, _ kmod.LoadContext) ([]Package, error) {
	var hdr [countLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: package count: %w", ErrTruncatedBlock, err)
	}
	count := binary.BigEndian.Uint32(hdr[:])

	pkgs := make([]Package, 0, min(count, 1024))
	for i := uint32(1); i <= count; i++ {
		var l [blockLenPrefix]byte
		if _, err := io.ReadFull(r, l[:]); err != nil {
			return nil, fmt.Errorf("%w: object #%d length: %w", ErrTruncatedBlock, i, err)
		}
		n := binary.BigEndian.Uint32(l[:])
		if n > c.maxBlock() {
			return nil, fmt.Errorf("%w: object #%d declares %d bytes", ErrBlockTooLarge, i, n)
		}
		block := make([]byte, n)
		if _, err := io.ReadFull(r, block); err != nil {
			return nil, fmt.Errorf("%w: object #%d: %w", ErrTruncatedBlock, i, err)
		}
		p, err := decodePackage(block)
		if err != nil {
			return nil, fmt.Errorf("%w: object #%d: %w", ErrNotAPackage, i, err)
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, nil
}

func encodePackage(p Package) []byte {
	fields := make([]tlv.Field, 0, 1+2*len(p.Rules))
	fields = append(fields, tlv.String(FieldPackageName, p.Name))
	for _, r := range p.Rules {
		fields = append(fields, tlv.String(FieldRuleName, r.Name), tlv.Bytes(FieldRuleBody, r.Body))
	}
	return tlv.EncodeFields(fields)
}

func decodePackage(block []byte) (Package, error) {
	fields, err := tlv.DecodeFields(block)
	if err != nil {
		return Package{}, err
	}
	if len(fields) == 0 {
		return Package{}, errors.New("missing package name")
	}
	if err := fields[0].Expect(FieldPackageName, tlv.TypeString); err != nil {
		return Package{}, err
	}
	p := Package{Name: string(fields[0].Value)}
	if p.Name == "" {
		return Package{}, errors.New("empty package name")
	}

	rest := fields[1:]
	if len(rest)%2 != 0 {
		return Package{}, fmt.Errorf("rule %d has no body", len(rest)/2+1)
	}
	for j := 0; j < len(rest); j += 2 {
		if err := rest[j].Expect(FieldRuleName, tlv.TypeString); err != nil {
			return Package{}, err
		}
		if err := rest[j+1].Expect(FieldRuleBody, tlv.TypeBytes); err != nil {
			return Package{}, err
		}
		p.Rules = append(p.Rules, Rule{Name: string(rest[j].Value), Body: rest[j+1].Value})
	}
	return p, nil
}
