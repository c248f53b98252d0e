package openfoodfacts

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"
)

// json decodes Open Food Facts responses, which serve some numbers as strings
// ("nova_group": "4") and empty objects as []. The leniency lives in this
// config only; the shared jsoniter configs used elsewhere stay strict.
var json = newLenientConfig()

func newLenientConfig() jsoniter.API {
	api := jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
	}.Froze()
	api.RegisterExtension(&lenientExtension{})
	return api
}

type lenientExtension struct {
	jsoniter.DummyExtension
}

func (e *lenientExtension) CreateDecoder(typ reflect2.Type) jsoniter.ValDecoder {
	switch typ.Kind() {
	case reflect.String:
		return lenientStringDecoder{}
	case reflect.Int:
		return lenientIntDecoder{}
	case reflect.Float64:
		return lenientFloatDecoder{}
	}
	return nil
}

func (e *lenientExtension) DecorateDecoder(typ reflect2.Type, decoder jsoniter.ValDecoder) jsoniter.ValDecoder {
	if typ.Kind() == reflect.Struct {
		return emptyArrayDecoder{decoder: decoder}
	}
	return decoder
}

// readNumber returns a number, numeric string or bool as text; null reads as ""
func readNumber(iter *jsoniter.Iterator) string {
	switch iter.WhatIsNext() {
	case jsoniter.NumberValue:
		return string(iter.ReadNumber())
	case jsoniter.StringValue:
		return strings.TrimSpace(iter.ReadString())
	case jsoniter.BoolValue:
		if iter.ReadBool() {
			return "1"
		}
		return "0"
	case jsoniter.NilValue:
		iter.Skip()
		return ""
	default:
		iter.ReportError("lenient decode", "not a number or string")
		return ""
	}
}

type lenientFloatDecoder struct{}

func (lenientFloatDecoder) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	s := readNumber(iter)
	if s == "" {
		*(*float64)(ptr) = 0
		return
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		iter.ReportError("lenient decode float64", fmt.Sprintf("invalid number %q", s))
		return
	}
	*(*float64)(ptr) = f
}

type lenientIntDecoder struct{}

func (lenientIntDecoder) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	s := readNumber(iter)
	if s == "" {
		*(*int)(ptr) = 0
		return
	}
	if n, err := strconv.Atoi(s); err == nil {
		*(*int)(ptr) = n
		return
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f > math.MaxInt || f < math.MinInt {
		iter.ReportError("lenient decode int", fmt.Sprintf("invalid integer %q", s))
		return
	}
	*(*int)(ptr) = int(f)
}

type lenientStringDecoder struct{}

func (lenientStringDecoder) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	switch iter.WhatIsNext() {
	case jsoniter.StringValue:
		*(*string)(ptr) = iter.ReadString()
	case jsoniter.NumberValue:
		*(*string)(ptr) = string(iter.ReadNumber())
	case jsoniter.NilValue:
		iter.Skip()
		*(*string)(ptr) = ""
	default:
		iter.ReportError("lenient decode string", "not a number or string")
	}
}

type emptyArrayDecoder struct {
	decoder jsoniter.ValDecoder
}

func (d emptyArrayDecoder) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	if iter.WhatIsNext() != jsoniter.ArrayValue {
		d.decoder.Decode(ptr, iter)
		return
	}
	iter.Skip()
	empty := iter.Pool().BorrowIterator([]byte("{}"))
	defer iter.Pool().ReturnIterator(empty)
	d.decoder.Decode(ptr, empty)
}
