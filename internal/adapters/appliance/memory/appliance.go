// Package memory is an in-process stand-in for the appliance management API.
// It stores objects as decoded JSON maps keyed by their REST path and mimics
// the API's status semantics closely enough for offline plans and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"os"
	"sort"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Appliance struct {
	mu      sync.Mutex
	objects map[string]map[string]any
	calls   map[string]int
	logger  ports.Logger
}

var _ ports.ApplianceClient = (*Appliance)(nil)

func New(logger ports.Logger) *Appliance {
	return &Appliance{
		objects: make(map[string]map[string]any),
		calls:   make(map[string]int),
		logger:  logger.WithFields(map[string]any{"component": "memory_appliance"}),
	}
}

// LoadSnapshot seeds the appliance from a YAML file mapping REST paths to
// objects, e.g. "ltm/pool/~Common~web: {loadBalancingMode: round-robin}".
func LoadSnapshot(path string, logger ports.Logger) (*Appliance, error) {
	a := New(logger)
	if path == "" {
		return a, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigReadError, fmt.Sprintf("failed to read appliance snapshot %s", path))
	}
	var snapshot map[string]map[string]any
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigParseError, fmt.Sprintf("failed to parse appliance snapshot %s", path))
	}
	for p, obj := range snapshot {
		if err := a.Seed(p, obj); err != nil {
			return nil, err
		}
	}
	a.logger.Debugf(context.Background(), "Loaded %d object(s) from snapshot %s", len(snapshot), path)
	return a, nil
}

// Seed stores obj at path, replacing anything already there.
func (a *Appliance) Seed(path string, obj map[string]any) error {
	normalised, err := roundTrip(obj)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[cleanPath(path)] = normalised
	return nil
}

// Object returns a copy of the object at path.
func (a *Appliance) Object(path string) (map[string]any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	obj, ok := a.objects[cleanPath(path)]
	return maps.Clone(obj), ok
}

// Paths lists stored object paths in lexical order.
func (a *Appliance) Paths() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.objects))
	for p := range a.objects {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Calls returns how many times method (GET, POST, PATCH, DELETE) was served.
func (a *Appliance) Calls(method string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[method]
}

// Mutations counts every non-GET call.
func (a *Appliance) Mutations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls["POST"] + a.calls["PATCH"] + a.calls["DELETE"]
}

func (a *Appliance) Get(ctx context.Context, path string, out any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls["GET"]++

	obj, ok := a.objects[cleanPath(path)]
	if !ok {
		return notFound("GET", path)
	}
	return decodeInto(obj, out)
}

func (a *Appliance) Create(ctx context.Context, collection string, body any, out any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls["POST"]++

	obj, err := toObject(body)
	if err != nil {
		return err
	}
	name, _ := obj["name"].(string)
	if name == "" {
		return errors.New(errors.CodeTransport, fmt.Sprintf("POST %s: HTTP 400: name is required", collection))
	}
	path := cleanPath(collection) + "/" + objectKey(obj)
	if _, exists := a.objects[path]; exists {
		return errors.New(errors.CodeTransport, fmt.Sprintf("POST %s: HTTP 409: %s already exists", collection, path))
	}
	if partition, ok := obj["partition"].(string); ok {
		obj["fullPath"] = fullPath(partition, obj["subPath"], name)
	}
	a.objects[path] = obj
	a.logger.Debugf(ctx, "Created %s", path)
	return decodeInto(obj, out)
}

func (a *Appliance) Update(ctx context.Context, path string, body any, out any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls["PATCH"]++

	key := cleanPath(path)
	obj, ok := a.objects[key]
	if !ok {
		return notFound("PATCH", path)
	}
	patch, err := toObject(body)
	if err != nil {
		return err
	}
	for k, v := range patch {
		obj[k] = v
	}
	if strings.Contains(path, "options=create-draft") {
		obj["status"] = "draft"
	}
	a.logger.Debugf(ctx, "Updated %s", key)
	return decodeInto(obj, out)
}

func (a *Appliance) Delete(ctx context.Context, path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls["DELETE"]++

	key := cleanPath(path)
	if _, ok := a.objects[key]; !ok {
		return notFound("DELETE", path)
	}
	delete(a.objects, key)
	for p := range a.objects {
		if strings.HasPrefix(p, key+"/") {
			delete(a.objects, p)
		}
	}
	a.logger.Debugf(ctx, "Deleted %s", key)
	return nil
}

// Command understands {"command":"publish","name":"/P/name"} posted to a
// collection, which marks the named object published.
func (a *Appliance) Command(ctx context.Context, path string, body any, out any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls["POST"]++

	cmd, err := toObject(body)
	if err != nil {
		return err
	}
	if cmd["command"] != "publish" {
		return errors.New(errors.CodeTransport, fmt.Sprintf("POST %s: HTTP 400: unsupported command %v", path, cmd["command"]))
	}
	name, _ := cmd["name"].(string)
	key := cleanPath(path) + "/" + strings.ReplaceAll(name, "/", "~")
	obj, ok := a.objects[key]
	if !ok {
		return notFound("POST", key)
	}
	obj["status"] = "published"
	return decodeInto(obj, out)
}

func notFound(method, path string) error {
	return errors.New(errors.CodeResourceNotFound, fmt.Sprintf("%s %s: HTTP 404: object not found", method, path))
}

func cleanPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return strings.Trim(path, "/")
}

func objectKey(obj map[string]any) string {
	name, _ := obj["name"].(string)
	partition, ok := obj["partition"].(string)
	if !ok {
		return name
	}
	return strings.ReplaceAll(fullPath(partition, obj["subPath"], name), "/", "~")
}

func fullPath(partition string, subPath any, name string) string {
	if sp, ok := subPath.(string); ok && sp != "" {
		return fmt.Sprintf("/%s/%s/%s", partition, sp, name)
	}
	return fmt.Sprintf("/%s/%s", partition, name)
}

func toObject(body any) (map[string]any, error) {
	if body == nil {
		return map[string]any{}, nil
	}
	return roundTrip(body)
}

// roundTrip normalises v the way a JSON API would: numbers become float64,
// structs become maps.
func roundTrip(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode object")
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to decode object")
	}
	return out, nil
}

func decodeInto(obj map[string]any, out any) error {
	if out == nil {
		return nil
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode object")
	}
	return json.Unmarshal(data, out)
}
