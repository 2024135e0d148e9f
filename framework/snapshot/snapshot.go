// Package snapshot serializes reflected services so they can be cached and
// inspected. Snapshots are YAML documents:
//
//	version: 1
//	services:
//	  - class: fixtures.Cache
//	    parameters:
//	      - name: config
//	        type: fixtures.Config
package snapshot

import (
	"encoding/json"

	"github.com/goccy/go-yaml"
	"github.com/invopop/jsonschema"

	"github.com/km-arc/go-autowire/framework/errors"
	"github.com/km-arc/go-autowire/framework/reflection"
	"github.com/km-arc/go-autowire/framework/types"
)

// Version is the current document version. Decode rejects other versions.
const Version = 1

type Document struct {
	Version  int       `yaml:"version" json:"version" jsonschema:"minimum=1"`
	Services []Service `yaml:"services" json:"services"`
}

type Service struct {
	Class      string      `yaml:"class" json:"class" jsonschema:"minLength=1"`
	Tags       []string    `yaml:"tags,omitempty" json:"tags,omitempty"`
	Parameters []Parameter `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Setters    []Setter    `yaml:"setters,omitempty" json:"setters,omitempty"`
}

type Parameter struct {
	Name string `yaml:"name" json:"name" jsonschema:"minLength=1"`
	// Type is the hint, "?" prefix for nullable.
	Type     string `yaml:"type" json:"type" jsonschema:"minLength=1"`
	Optional bool   `yaml:"optional,omitempty" json:"optional,omitempty"`
	Default  any    `yaml:"default,omitempty" json:"default,omitempty"`
}

type Setter struct {
	Method string `yaml:"method" json:"method"`
	Type   string `yaml:"type" json:"type"`
}

// FromServices converts reflected services into a document.
func FromServices(services []*reflection.Service) *Document {
	doc := &Document{Version: Version, Services: make([]Service, 0, len(services))}
	for _, svc := range services {
		s := Service{Class: svc.Class, Tags: append([]string(nil), svc.Tags...)}
		for _, p := range svc.Parameters {
			s.Parameters = append(s.Parameters, Parameter{
				Name:     p.Name,
				Type:     p.Type.String(),
				Optional: p.Optional,
				Default:  p.Default,
			})
		}
		for _, st := range svc.Setters {
			s.Setters = append(s.Setters, Setter{Method: st.Method, Type: st.Type.String()})
		}
		doc.Services = append(doc.Services, s)
	}
	return doc
}

// ToServices rebuilds services, resolving type hints through factory.
func (d *Document) ToServices(factory *types.Factory) []*reflection.Service {
	out := make([]*reflection.Service, 0, len(d.Services))
	for _, s := range d.Services {
		svc := &reflection.Service{Class: s.Class, Tags: append([]string(nil), s.Tags...)}
		for _, p := range s.Parameters {
			svc.Parameters = append(svc.Parameters, reflection.Parameter{
				Name:     p.Name,
				Type:     factory.Resolve(p.Type),
				Optional: p.Optional,
				Default:  p.Default,
			})
		}
		for _, st := range s.Setters {
			svc.Setters = append(svc.Setters, reflection.Setter{Method: st.Method, Type: factory.Resolve(st.Type)})
		}
		out = append(out, svc)
	}
	return out
}

// Encode renders services as YAML.
func Encode(services []*reflection.Service) ([]byte, error) {
	b, err := yaml.Marshal(FromServices(services))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode snapshot")
	}
	return b, nil
}

// Decode parses a YAML snapshot.
func Decode(b []byte, factory *types.Factory) ([]*reflection.Service, error) {
	var doc Document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode snapshot")
	}
	if doc.Version != Version {
		return nil, errors.Errorf("unsupported snapshot version %d", doc.Version)
	}
	for i, s := range doc.Services {
		if s.Class == "" {
			return nil, errors.Errorf("snapshot service %d has no class", i)
		}
	}
	return doc.ToServices(factory), nil
}

// Schema returns the JSON schema of a snapshot document.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{ExpandedStruct: true}
	s := r.Reflect(&Document{})
	s.Title = "autowire service snapshot"
	return json.MarshalIndent(s, "", "  ")
}
