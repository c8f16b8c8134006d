package protosource

import (
	"fmt"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/jhump/protoplain/protoresolve"
)

// LoadProtoset loads the compiled protoset file at the given path. A protoset
// is a serialized google.protobuf.FileDescriptorSet, as produced by protoc's
// --descriptor_set_out option. The set must be self-contained: every import
// must also be in the set.
func LoadProtoset(path string) (*protoresolve.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseProtoset(data)
}

// ParseProtoset is like LoadProtoset except that the serialized set is given
// directly instead of read from a file.
func ParseProtoset(data []byte) (*protoresolve.Registry, error) {
	var fds descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &fds); err != nil {
		return nil, fmt.Errorf("failed to parse protoset: %w", err)
	}
	files, err := protodesc.NewFiles(&fds)
	if err != nil {
		return nil, err
	}
	return protoresolve.FromFiles(files)
}
