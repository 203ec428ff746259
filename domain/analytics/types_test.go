package analytics

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValue_Coercion(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	f, ok := Number(2.5).Float()
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)

	f, ok = Text(" 1e3 ").Float()
	assert.True(t, ok)
	assert.Equal(t, 1000.0, f)

	_, ok = Text("n/a").Float()
	assert.False(t, ok)

	ms, ok := Date(d).EpochMillis()
	assert.True(t, ok)
	assert.Equal(t, float64(d.UnixMilli()), ms)

	ms, ok = Text("2024-01-02").EpochMillis()
	assert.True(t, ok)
	assert.Equal(t, float64(d.UnixMilli()), ms)

	assert.True(t, Number(math.NaN()).IsNull())
	assert.True(t, Date(time.Time{}).IsNull())
	assert.True(t, NumberPtr(nil).IsNull())
	assert.True(t, Record{}.Field("missing").IsNull())
}

func TestValue_Truthy(t *testing.T) {
	assert.True(t, Bool(true).Truthy())
	assert.False(t, Bool(false).Truthy())
	assert.True(t, Text("Y").Truthy())
	assert.False(t, Text("No").Truthy())
	assert.False(t, Number(0).Truthy())
	assert.True(t, Number(-1).Truthy())
	assert.False(t, Null().Truthy())
}

func TestValue_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Record{"a": Number(1.5), "b": Null(), "c": Text("x")})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null,"c":"x"}`, string(b))
}

func TestFieldSpec_EffectiveWeight(t *testing.T) {
	assert.Equal(t, 1.0, FieldSpec{Key: "a"}.EffectiveWeight())
	assert.Equal(t, 1.0, FieldSpec{Key: "a", Weight: Weight(-2)}.EffectiveWeight())
	assert.Equal(t, 2.5, FieldSpec{Key: "a", Weight: Weight(2.5)}.EffectiveWeight())
	assert.Equal(t, 0.0, FieldSpec{Key: "a", Weight: Weight(0)}.EffectiveWeight(), "explicit zero disables the field")
	assert.True(t, FieldDate.Valid())
	assert.False(t, FieldType("ordinal").Valid())
}
