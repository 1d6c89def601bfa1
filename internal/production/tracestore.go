package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TraceStore saves and loads traces by machine id.
type TraceStore interface {
	Save(ctx context.Context, trace Trace) error
	Load(ctx context.Context, machineID string) (Trace, error)
}

type codec struct {
	ext       string
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

// FileTraceStore writes one file per machine into a directory.
type FileTraceStore struct {
	dir string
	codec
}

// NewJSONTraceStore creates a store writing indented JSON, creating dir if
// needed.
func NewJSONTraceStore(dir string) (*FileTraceStore, error) {
	return newFileTraceStore(dir, codec{
		ext:       ".json",
		marshal:   func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") },
		unmarshal: json.Unmarshal,
	})
}

// NewYAMLTraceStore creates a store writing YAML, creating dir if needed.
func NewYAMLTraceStore(dir string) (*FileTraceStore, error) {
	return newFileTraceStore(dir, codec{
		ext:       ".yaml",
		marshal:   yaml.Marshal,
		unmarshal: yaml.Unmarshal,
	})
}

func newFileTraceStore(dir string, c codec) (*FileTraceStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &FileTraceStore{dir: dir, codec: c}, nil
}

// Path returns the file a machine's trace is stored in.
func (s *FileTraceStore) Path(machineID string) string {
	return filepath.Join(s.dir, machineID+s.ext)
}

func (s *FileTraceStore) Save(ctx context.Context, trace Trace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if trace.MachineID == "" {
		return errors.New("trace has no machine id")
	}
	data, err := s.marshal(trace)
	if err != nil {
		return fmt.Errorf("encode trace: %w", err)
	}
	fn := s.Path(trace.MachineID)
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func (s *FileTraceStore) Load(ctx context.Context, machineID string) (Trace, error) {
	if err := ctx.Err(); err != nil {
		return Trace{}, err
	}
	fn := s.Path(machineID)
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Trace{}, fmt.Errorf("machine %q: %w", machineID, os.ErrNotExist)
		}
		return Trace{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var trace Trace
	if err := s.unmarshal(data, &trace); err != nil {
		return Trace{}, fmt.Errorf("decode %s: %w", fn, err)
	}
	trace.MachineID = machineID
	return trace, nil
}
