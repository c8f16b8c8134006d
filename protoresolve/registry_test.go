package protoresolve_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/jhump/protoplain/protoresolve"
)

func TestRegistry(t *testing.T) {
	reg := &protoresolve.Registry{}
	require.NoError(t, reg.RegisterFile(timestamppb.File_google_protobuf_timestamp_proto))
	require.NoError(t, reg.RegisterFile(durationpb.File_google_protobuf_duration_proto))
	require.Equal(t, 2, reg.NumFiles())

	err := reg.RegisterFile(timestamppb.File_google_protobuf_timestamp_proto)
	require.ErrorContains(t, err, "google/protobuf/timestamp.proto")

	fd, err := reg.FindFileByPath("google/protobuf/duration.proto")
	require.NoError(t, err)
	require.Equal(t, durationpb.File_google_protobuf_duration_proto, fd)

	md, err := reg.FindMessageByName("google.protobuf.Timestamp")
	require.NoError(t, err)
	require.Equal(t, protoreflect.FullName("google.protobuf.Timestamp"), md.FullName())

	md, err = reg.FindMessageByURL("type.googleapis.com/google.protobuf.Duration")
	require.NoError(t, err)
	require.Equal(t, protoreflect.FullName("google.protobuf.Duration"), md.FullName())

	_, err = reg.FindMessageByName("google.protobuf.Timestamp.seconds")
	require.ErrorContains(t, err, `descriptor "google.protobuf.Timestamp.seconds" is a field, not a message`)

	_, err = reg.FindMessageByName("foo.Bar")
	require.ErrorIs(t, err, protoregistry.NotFound)

	_, err = reg.FindExtensionByNumber("google.protobuf.Timestamp", 100)
	require.ErrorIs(t, err, protoregistry.NotFound)

	var paths []string
	reg.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		paths = append(paths, fd.Path())
		return true
	})
	require.ElementsMatch(t, []string{"google/protobuf/timestamp.proto", "google/protobuf/duration.proto"}, paths)
}

func TestRegistry_Extensions(t *testing.T) {
	reg := &protoresolve.Registry{}
	require.NoError(t, reg.RegisterFileRecursive(descriptorpb.File_google_protobuf_descriptor_proto))

	fileProto := &descriptorpb.FileDescriptorProto{
		Name:       strPtr("ext.proto"),
		Package:    strPtr("ext"),
		Dependency: []string{"google/protobuf/descriptor.proto"},
		Extension: []*descriptorpb.FieldDescriptorProto{{
			Name:     strPtr("label"),
			Number:   int32Ptr(50000),
			Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:     descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
			Extendee: strPtr(".google.protobuf.MessageOptions"),
		}},
	}
	file, err := newFile(fileProto, reg)
	require.NoError(t, err)
	require.NoError(t, reg.RegisterFile(file))

	ext, err := reg.FindExtensionByNumber("google.protobuf.MessageOptions", 50000)
	require.NoError(t, err)
	require.Equal(t, protoreflect.FullName("ext.label"), ext.FullName())

	ext, err = reg.FindExtensionByName("ext.label")
	require.NoError(t, err)
	require.Equal(t, protoreflect.FieldNumber(50000), ext.Number())

	// same extension number again, from a different file
	fileProto.Name = strPtr("ext2.proto")
	fileProto.Package = strPtr("ext2")
	file, err = newFile(fileProto, reg)
	require.NoError(t, err)
	err = reg.RegisterFile(file)
	require.ErrorContains(t, err, `extension number 50000 for message "google.protobuf.MessageOptions" already registered`)

	xt, err := reg.AsTypeResolver().FindExtensionByNumber("google.protobuf.MessageOptions", 50000)
	require.NoError(t, err)
	require.Equal(t, protoreflect.FullName("ext.label"), xt.TypeDescriptor().FullName())
}

func TestRegistry_RegisterFileRecursive(t *testing.T) {
	reg := &protoresolve.Registry{}
	require.NoError(t, reg.RegisterFileRecursive(descriptorpb.File_google_protobuf_descriptor_proto))
	require.NoError(t, reg.RegisterFileRecursive(descriptorpb.File_google_protobuf_descriptor_proto))
	require.Equal(t, 1, reg.NumFiles())
}

func TestRegistry_AsTypeResolver(t *testing.T) {
	reg := &protoresolve.Registry{}
	require.NoError(t, reg.RegisterFile(anypb.File_google_protobuf_any_proto))
	types := reg.AsTypeResolver()

	mt, err := types.FindMessageByName("google.protobuf.Any")
	require.NoError(t, err)
	_, isDynamic := mt.New().Interface().(*dynamicpb.Message)
	require.True(t, isDynamic)

	// repeated lookups yield the same type
	again, err := types.FindMessageByURL("type.googleapis.com/google.protobuf.Any")
	require.NoError(t, err)
	require.Same(t, mt, again)

	_, err = types.FindMessageByName("google.protobuf.Any.type_url")
	require.ErrorContains(t, err, `"google.protobuf.Any.type_url" is a field, not a message`)

	_, err = types.FindEnumByName("google.protobuf.Any")
	require.ErrorContains(t, err, "google.protobuf.Any is a message, not an enum")
}

func TestFromFiles(t *testing.T) {
	var files protoregistry.Files
	require.NoError(t, files.RegisterFile(timestamppb.File_google_protobuf_timestamp_proto))

	reg, err := protoresolve.FromFiles(&files)
	require.NoError(t, err)
	require.Equal(t, 1, reg.NumFiles())
	_, err = reg.FindMessageByName("google.protobuf.Timestamp")
	require.NoError(t, err)
}
