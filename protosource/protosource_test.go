package protosource_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/jhump/protoplain/protosource"
)

const schema = `
syntax = "proto3";
package foo.bar;

import "google/protobuf/timestamp.proto";
import "common.proto";

message Event {
  google.protobuf.Timestamp at = 1;
  Kind kind = 2;
}
`

const common = `
syntax = "proto3";
package foo.bar;

enum Kind {
  KIND_UNSPECIFIED = 0;
  KIND_CLICK = 1;
}
`

func TestCompile(t *testing.T) {
	reg, err := protosource.Compile(context.Background(), map[string]string{
		"event.proto":  schema,
		"common.proto": common,
	}, "event.proto")
	require.NoError(t, err)
	checkRegistry(t, reg)
}

func TestCompile_Errors(t *testing.T) {
	_, err := protosource.Compile(context.Background(), map[string]string{"event.proto": schema}, "event.proto")
	require.ErrorContains(t, err, "common.proto")

	_, err = protosource.Compile(context.Background(), map[string]string{"bad.proto": "message {"}, "bad.proto")
	require.Error(t, err)

	_, err = protosource.Compile(context.Background(), nil)
	require.Error(t, err)
}

func TestCompileFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "event.proto"), []byte(schema), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "common.proto"), []byte(common), 0o644))

	reg, err := protosource.CompileFiles(context.Background(), []string{dir}, "event.proto")
	require.NoError(t, err)
	checkRegistry(t, reg)
}

func TestLoadProtoset(t *testing.T) {
	reg, err := protosource.Compile(context.Background(), map[string]string{
		"event.proto":  schema,
		"common.proto": common,
	}, "event.proto")
	require.NoError(t, err)

	var fds descriptorpb.FileDescriptorSet
	reg.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		fds.File = append(fds.File, protodesc.ToFileDescriptorProto(fd))
		return true
	})
	data, err := proto.Marshal(&fds)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "event.protoset")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := protosource.LoadProtoset(path)
	require.NoError(t, err)
	checkRegistry(t, loaded)

	_, err = protosource.LoadProtoset(filepath.Join(t.TempDir(), "missing.protoset"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = protosource.ParseProtoset([]byte{0xff})
	require.ErrorContains(t, err, "failed to parse protoset")
}

func checkRegistry(t *testing.T, reg interface {
	FindFileByPath(string) (protoreflect.FileDescriptor, error)
	FindMessageByName(protoreflect.FullName) (protoreflect.MessageDescriptor, error)
	FindDescriptorByName(protoreflect.FullName) (protoreflect.Descriptor, error)
	NumFiles() int
}) {
	t.Helper()
	require.Equal(t, 3, reg.NumFiles())
	for _, path := range []string{"event.proto", "common.proto", "google/protobuf/timestamp.proto"} {
		_, err := reg.FindFileByPath(path)
		require.NoError(t, err, path)
	}
	md, err := reg.FindMessageByName("foo.bar.Event")
	require.NoError(t, err)
	require.Equal(t, protoreflect.FullName("google.protobuf.Timestamp"), md.Fields().ByName("at").Message().FullName())
	d, err := reg.FindDescriptorByName("foo.bar.KIND_CLICK")
	require.NoError(t, err)
	require.Implements(t, (*protoreflect.EnumValueDescriptor)(nil), d)

	_, err = reg.FindMessageByName("foo.bar.Missing")
	require.ErrorIs(t, err, protoregistry.NotFound)
}
