package codec

import (
	"io"
	"reflect"
	"strings"
	"unicode"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"
)

// namingExtension renames untagged exported members according to a policy.
type namingExtension struct {
	jsoniter.DummyExtension
	policy NamingPolicy
}

func (e *namingExtension) UpdateStructDescriptor(sd *jsoniter.StructDescriptor) {
	if e.policy == NamingAsIs {
		return
	}
	for _, b := range sd.Fields {
		name := b.Field.Name()
		if unicode.IsLower(rune(name[0])) || name[0] == '_' {
			continue
		}
		if tag, ok := b.Field.Tag().Lookup("json"); ok {
			if tagName := strings.Split(tag, ",")[0]; tagName != "" {
				continue
			}
		}
		translated := e.policy.translate(name)
		b.ToNames = []string{translated}
		b.FromNames = []string{translated}
	}
}

// omitNullExtension drops members whose value is a nil pointer, map, slice or interface.
type omitNullExtension struct {
	jsoniter.DummyExtension
}

func (e *omitNullExtension) UpdateStructDescriptor(sd *jsoniter.StructDescriptor) {
	for _, b := range sd.Fields {
		typ := b.Field.Type()
		switch typ.Kind() {
		case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
			b.Encoder = &omitNullEncoder{ValEncoder: b.Encoder, typ: typ}
		}
	}
}

// omitNullEncoder reports nil members through jsoniter's IsEmbeddedPtrNil hook,
// which makes the struct encoder skip the member entirely.
type omitNullEncoder struct {
	jsoniter.ValEncoder
	typ reflect2.Type
}

func (e *omitNullEncoder) IsEmbeddedPtrNil(ptr unsafe.Pointer) bool {
	return e.typ.UnsafeIsNil(ptr)
}

// lenientNumberExtension lets numeric targets read "42" as 42.
type lenientNumberExtension struct {
	jsoniter.DummyExtension
}

func (e *lenientNumberExtension) DecorateDecoder(typ reflect2.Type, decoder jsoniter.ValDecoder) jsoniter.ValDecoder {
	switch typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return &lenientNumberDecoder{inner: decoder}
	}
	return decoder
}

type lenientNumberDecoder struct {
	inner jsoniter.ValDecoder
}

func (d *lenientNumberDecoder) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	if iter.WhatIsNext() != jsoniter.StringValue {
		d.inner.Decode(ptr, iter)
		return
	}
	str := strings.TrimSpace(iter.ReadString())
	if str == "" {
		iter.ReportError("lenientNumberDecoder", "empty string is not a number")
		return
	}
	sub := iter.Pool().BorrowIterator([]byte(str))
	defer iter.Pool().ReturnIterator(sub)

	d.inner.Decode(ptr, sub)
	if sub.Error != nil && sub.Error != io.EOF {
		iter.ReportError("lenientNumberDecoder", sub.Error.Error())
		return
	}
	// the whole string must be consumed: peeking past the number hits EOF
	sub.WhatIsNext()
	if sub.Error != io.EOF {
		iter.ReportError("lenientNumberDecoder", "invalid number string "+str)
	}
}

// depthExtension guards container and pointer encoders against runaway nesting.
type depthExtension struct {
	jsoniter.DummyExtension
}

func (e *depthExtension) DecorateEncoder(typ reflect2.Type, encoder jsoniter.ValEncoder) jsoniter.ValEncoder {
	switch typ.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return &depthEncoder{ValEncoder: encoder}
	}
	return encoder
}

type encodeState struct {
	depth    int
	exceeded bool
}

type depthEncoder struct {
	jsoniter.ValEncoder
}

func (e *depthEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	state, ok := stream.Attachment.(*encodeState)
	if !ok {
		e.ValEncoder.Encode(ptr, stream)
		return
	}
	if stream.Error != nil {
		return
	}
	state.depth++
	defer func() { state.depth-- }()
	if state.depth > maxEncodeDepth {
		state.exceeded = true
		stream.Error = ErrCyclic
		return
	}
	e.ValEncoder.Encode(ptr, stream)
}
