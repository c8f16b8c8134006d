package protoplain_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/jhump/protoplain/internal/prototest"
	"github.com/jhump/protoplain/protoplain"
)

func anyType(t *testing.T, engine *protoplain.Engine) *protoplain.Type {
	t.Helper()
	typ, ok := engine.Lookup(protoplain.AnyName)
	require.True(t, ok)
	return typ
}

func anyFields(t *testing.T, msg protoreflect.Message) (string, []byte) {
	t.Helper()
	fields := msg.Descriptor().Fields()
	return msg.Get(fields.ByName("type_url")).String(), msg.Get(fields.ByName("value")).Bytes()
}

func TestAny_FromObject(t *testing.T) {
	engine := prototest.Engine(t)
	anyTyp := anyType(t, engine)
	msgType := prototest.MessageType(t, engine)

	msg, err := anyTyp.FromObject(map[string]any{
		"@type":     "type.googleapis.com/Message",
		"timestamp": "2019-01-01",
	})
	require.NoError(t, err)

	payload, err := msgType.FromObject(map[string]any{"timestamp": "2019-01-01"})
	require.NoError(t, err)
	expectedValue, err := msgType.Encode(payload)
	require.NoError(t, err)

	typeURL, value := anyFields(t, msg)
	require.Equal(t, "type.googleapis.com/Message", typeURL)
	require.Equal(t, expectedValue, value)

	decoded, err := msgType.Decode(value)
	require.NoError(t, err)
	obj, err := msgType.ToObject(decoded, protoplain.ConversionOptions{})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"timestamp": map[string]any{"seconds": int64(1546300800)}}, obj)
}

func TestAny_FromObjectNormalizesTypeURL(t *testing.T) {
	engine := prototest.Engine(t)
	anyTyp := anyType(t, engine)
	testCases := []struct {
		typeURL, expected string
	}{
		{typeURL: "type.googleapis.com/Message", expected: "type.googleapis.com/Message"},
		{typeURL: "example.com/schemas/Message", expected: "example.com/schemas/Message"},
		{typeURL: "/Message", expected: "/Message"},
		{typeURL: "Message", expected: "/Message"},
		{typeURL: ".Message", expected: "/Message"},
		{typeURL: "google.protobuf.Duration", expected: "/google.protobuf.Duration"},
	}
	for _, tc := range testCases {
		t.Run(tc.typeURL, func(t *testing.T) {
			msg, err := anyTyp.FromObject(map[string]any{"@type": tc.typeURL})
			require.NoError(t, err)
			typeURL, _ := anyFields(t, msg)
			require.Equal(t, tc.expected, typeURL)
		})
	}
}

func TestAny_FromObjectFallsBackToStructural(t *testing.T) {
	engine := prototest.Engine(t)
	anyTyp := anyType(t, engine)
	testCases := []struct {
		name    string
		input   any
		typeURL string
		value   []byte
	}{
		{
			name:    "unknown type",
			input:   map[string]any{"@type": "type.googleapis.com/foo.Unknown", "type_url": "x/foo.Unknown", "value": []byte{1, 2}},
			typeURL: "x/foo.Unknown",
			value:   []byte{1, 2},
		},
		{
			name:    "no @type",
			input:   map[string]any{"type_url": "a/b", "value": "AQI="},
			typeURL: "a/b",
			value:   []byte{1, 2},
		},
		{
			name:    "empty @type",
			input:   map[string]any{"@type": "", "typeUrl": "a/b"},
			typeURL: "a/b",
		},
		{
			name:  "nil",
			input: nil,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := anyTyp.FromObject(tc.input)
			require.NoError(t, err)
			typeURL, value := anyFields(t, msg)
			require.Equal(t, tc.typeURL, typeURL)
			if tc.value == nil {
				require.Empty(t, value)
			} else {
				require.Equal(t, tc.value, value)
			}
		})
	}

	_, err := anyTyp.FromObject("type.googleapis.com/Message")
	require.ErrorIs(t, err, protoplain.ErrNotObject)
}

func TestAny_ToObject(t *testing.T) {
	engine := prototest.Engine(t)
	anyTyp := anyType(t, engine)
	msgType := prototest.MessageType(t, engine)

	payload, err := msgType.FromObject(map[string]any{"name": "abc", "count": 3})
	require.NoError(t, err)
	data, err := msgType.Encode(payload)
	require.NoError(t, err)

	testCases := []struct {
		typeURL, expectedType string
	}{
		{typeURL: "type.googleapis.com/Message", expectedType: "type.googleapis.com/Message"},
		{typeURL: "example.com/schemas/Message", expectedType: "example.com/schemas/Message"},
		{typeURL: "/Message", expectedType: "/Message"},
		{typeURL: "Message", expectedType: "type.googleapis.com/Message"},
	}
	for _, tc := range testCases {
		t.Run(tc.typeURL, func(t *testing.T) {
			msg, err := anyTyp.Create(map[string]any{"type_url": tc.typeURL, "value": data})
			require.NoError(t, err)
			obj, err := anyTyp.ToObject(msg, protoplain.JSONConversion)
			require.NoError(t, err)
			require.Equal(t, map[string]any{
				"@type": tc.expectedType,
				"name":  "abc",
				"count": int32(3),
			}, obj)

			// structural unless JSON
			obj, err = anyTyp.ToObject(msg, protoplain.ConversionOptions{})
			require.NoError(t, err)
			require.Equal(t, map[string]any{"type_url": tc.typeURL, "value": data}, obj)
		})
	}
}

func TestAny_ToObjectUnknownType(t *testing.T) {
	engine := prototest.Engine(t)
	anyTyp := anyType(t, engine)
	msg, err := anyTyp.Create(map[string]any{"type_url": "type.googleapis.com/foo.Unknown", "value": []byte{1, 2, 3}})
	require.NoError(t, err)

	obj, err := anyTyp.ToObject(msg, protoplain.ConversionOptions{JSON: true})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"type_url": "type.googleapis.com/foo.Unknown",
		"value":    []byte{1, 2, 3},
	}, obj)
}

func TestAny_ToObjectBadPayload(t *testing.T) {
	engine := prototest.Engine(t)
	anyTyp := anyType(t, engine)
	msg, err := anyTyp.Create(map[string]any{"type_url": "type.googleapis.com/Message", "value": []byte{0xff}})
	require.NoError(t, err)

	_, err = anyTyp.ToObject(msg, protoplain.JSONConversion)
	require.ErrorContains(t, err, "failed to decode Message")
}

func TestAny_WrappedPayload(t *testing.T) {
	engine := protoplain.NewEngine(nil)
	anyTyp := anyType(t, engine)

	testCases := []struct {
		name     string
		object   map[string]any
		expected proto.Message
		rendered any
	}{
		{
			name:     "duration",
			object:   map[string]any{"@type": "type.googleapis.com/google.protobuf.Duration", "value": "5m"},
			expected: durationpb.New(5 * time.Minute),
			rendered: "300s",
		},
		{
			name:     "timestamp",
			object:   map[string]any{"@type": "type.googleapis.com/google.protobuf.Timestamp", "value": "2019-01-01"},
			expected: timestamppb.New(time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)),
			rendered: time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "duration with nanos",
			object: map[string]any{
				"@type": "type.googleapis.com/google.protobuf.Duration",
				"value": map[string]any{"seconds": 1, "nanos": 5},
			},
			expected: &durationpb.Duration{Seconds: 1, Nanos: 5},
			rendered: map[string]any{"seconds": int64(1), "nanos": int32(5)},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := anyTyp.FromObject(tc.object)
			require.NoError(t, err)
			anyMsg, ok := msg.Interface().(*anypb.Any)
			require.True(t, ok)
			payload, err := anyMsg.UnmarshalNew()
			require.NoError(t, err)
			diff := cmp.Diff(tc.expected, payload, protocmp.Transform())
			require.Empty(t, diff)

			obj, err := anyTyp.ToObject(msg, protoplain.ConversionOptions{JSON: true})
			require.NoError(t, err)
			require.Equal(t, map[string]any{"@type": tc.object["@type"], "value": tc.rendered}, obj)
		})
	}
}

func TestAny_Nested(t *testing.T) {
	engine := protoplain.NewEngine(nil)
	anyTyp := anyType(t, engine)
	object := map[string]any{
		"@type": "type.googleapis.com/google.protobuf.Any",
		"value": map[string]any{
			"@type": "type.googleapis.com/google.protobuf.Duration",
			"value": "90s",
		},
	}
	msg, err := anyTyp.FromObject(object)
	require.NoError(t, err)

	outer := msg.Interface().(*anypb.Any)
	inner, err := outer.UnmarshalNew()
	require.NoError(t, err)
	payload, err := inner.(*anypb.Any).UnmarshalNew()
	require.NoError(t, err)
	diff := cmp.Diff(durationpb.New(90*time.Second), payload, protocmp.Transform())
	require.Empty(t, diff)

	obj, err := anyTyp.ToObject(msg, protoplain.JSONConversion)
	require.NoError(t, err)
	require.Equal(t, object, obj)
}

func TestAny_SelfTypedWithoutValue(t *testing.T) {
	engine := protoplain.NewEngine(nil)
	data := []byte(`{"@type":"type.googleapis.com/google.protobuf.Any"}`)
	object := map[string]any{"@type": "type.googleapis.com/google.protobuf.Any"}
	_, err := anyType(t, engine).FromObject(object)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"@type": "type.googleapis.com/google.protobuf.Any"}, object)

	var msg anypb.Any
	require.NoError(t, engine.UnmarshalJSON(data, &msg))
	require.Equal(t, "type.googleapis.com/google.protobuf.Any", msg.TypeUrl)
	inner, err := msg.UnmarshalNew()
	require.NoError(t, err)
	diff := cmp.Diff(&anypb.Any{}, inner, protocmp.Transform())
	require.Empty(t, diff)

	obj, err := anyType(t, engine).ToObject(msg.ProtoReflect(), protoplain.JSONConversion)
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"@type": "type.googleapis.com/google.protobuf.Any",
		"value": map[string]any{},
	}, obj)
}

func TestAny_NestedThreeDeep(t *testing.T) {
	engine := protoplain.NewEngine(nil)
	anyTyp := anyType(t, engine)
	object := map[string]any{
		"@type": "type.googleapis.com/google.protobuf.Any",
		"value": map[string]any{
			"@type": "type.googleapis.com/google.protobuf.Any",
			"value": map[string]any{
				"@type": "type.googleapis.com/google.protobuf.Any",
				"value": map[string]any{
					"@type": "type.googleapis.com/google.protobuf.Timestamp",
					"value": "2019-01-01T00:00:00Z",
				},
			},
		},
	}
	msg, err := anyTyp.FromObject(object)
	require.NoError(t, err)

	var payload proto.Message = msg.Interface()
	for i := 0; i < 2; i++ {
		wrapper, ok := payload.(*anypb.Any)
		require.True(t, ok, "level %d is %T", i, payload)
		require.Equal(t, "type.googleapis.com/google.protobuf.Any", wrapper.TypeUrl)
		payload, err = wrapper.UnmarshalNew()
		require.NoError(t, err)
	}
	innermost, ok := payload.(*anypb.Any)
	require.True(t, ok)
	ts, err := innermost.UnmarshalNew()
	require.NoError(t, err)
	diff := cmp.Diff(timestamppb.New(time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)), ts, protocmp.Transform())
	require.Empty(t, diff)

	data, err := engine.MarshalJSON(msg.Interface())
	require.NoError(t, err)
	var roundTripped anypb.Any
	require.NoError(t, engine.UnmarshalJSON(data, &roundTripped))
	diff = cmp.Diff(msg.Interface(), &roundTripped, protocmp.Transform())
	require.Empty(t, diff)
}
