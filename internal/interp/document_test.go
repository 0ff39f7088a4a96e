package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDocumentNumbersStayExact(t *testing.T) {
	v, err := DecodeDocument([]byte(`{"count": 100000, "price": 19.99, "ratio": 1.50}`))
	require.NoError(t, err)
	obj, ok := v.(*Object)
	require.True(t, ok)

	count, _ := obj.Raw("count")
	assert.Equal(t, Int(100000), count)

	price, _ := obj.Raw("price")
	priceDec, ok := price.(Dec)
	require.True(t, ok)
	assert.Equal(t, "19.99", priceDec.D.String())

	ratio, _ := obj.Raw("ratio")
	ratioDec, ok := ratio.(Dec)
	require.True(t, ok)
	assert.Equal(t, "1.50", ratioDec.D.String())
}

func TestDecodeDocumentNestedArraysAndObjects(t *testing.T) {
	v, err := DecodeDocument([]byte(`{"items": [1, "two", {"three": true}], "empty": null}`))
	require.NoError(t, err)
	obj, ok := v.(*Object)
	require.True(t, ok)

	itemsRaw, _ := obj.Raw("items")
	items, ok := itemsRaw.(Array)
	require.True(t, ok)
	require.Len(t, items, 3)
	assert.Equal(t, Int(1), items[0])
	assert.Equal(t, Str("two"), items[1])

	nested, ok := items[2].(*Object)
	require.True(t, ok)
	three, _ := nested.Raw("three")
	assert.Equal(t, Bool(true), three)

	empty, _ := obj.Raw("empty")
	assert.Equal(t, Null{}, empty)
}

func TestDecodeDocumentKeyOrderIndependentOfSource(t *testing.T) {
	v1, err := DecodeDocument([]byte(`{"b": 1, "a": 2, "c": 3}`))
	require.NoError(t, err)
	v2, err := DecodeDocument([]byte(`{"c": 3, "a": 2, "b": 1}`))
	require.NoError(t, err)

	obj1 := v1.(*Object)
	obj2 := v2.(*Object)
	assert.Equal(t, obj1.Keys(), obj2.Keys())
}

func TestDecodeDocumentRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeDocument([]byte(`{not json`))
	assert.Error(t, err)
}
