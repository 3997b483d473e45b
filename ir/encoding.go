// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ir

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes a Program as described by spec.md §6.2: an object
// with "bundles" (name -> bundle), "spindles" (name -> spindle), "order",
// "resources", and "textResources".
func (p *Program) MarshalJSON() ([]byte, error) {
	bundles := make(map[string]json.RawMessage, len(p.Bundles))
	for name, b := range p.Bundles {
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		bundles[name] = raw
	}
	spindles := make(map[string]json.RawMessage, len(p.Spindles))
	for name, s := range p.Spindles {
		raw, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		spindles[name] = raw
	}
	return json.Marshal(struct {
		Bundles       map[string]json.RawMessage `json:"bundles"`
		Spindles      map[string]json.RawMessage `json:"spindles"`
		Order         []OrderEntry               `json:"order"`
		Resources     []string                   `json:"resources"`
		TextResources []string                   `json:"textResources"`
	}{bundles, spindles, p.Order, nonNilStrings(p.Resources), nonNilStrings(p.TextResources)})
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (p *Program) UnmarshalJSON(data []byte) error {
	var raw struct {
		Bundles       map[string]json.RawMessage `json:"bundles"`
		Spindles      map[string]json.RawMessage `json:"spindles"`
		Order         []OrderEntry               `json:"order"`
		Resources     []string                   `json:"resources"`
		TextResources []string                   `json:"textResources"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Bundles = make(map[string]*Bundle, len(raw.Bundles))
	for name, r := range raw.Bundles {
		b := &Bundle{}
		if err := json.Unmarshal(r, b); err != nil {
			return fmt.Errorf("bundle %q: %w", name, err)
		}
		p.Bundles[name] = b
	}
	p.Spindles = make(map[string]*Spindle, len(raw.Spindles))
	for name, r := range raw.Spindles {
		s := &Spindle{}
		if err := json.Unmarshal(r, s); err != nil {
			return fmt.Errorf("spindle %q: %w", name, err)
		}
		p.Spindles[name] = s
	}
	p.Order = raw.Order
	p.Resources = raw.Resources
	p.TextResources = raw.TextResources
	return nil
}

type jsonStrand struct {
	Name  string          `json:"name,omitempty"`
	Index int             `json:"index"`
	Expr  json.RawMessage `json:"expr"`
}

// MarshalJSON encodes a Bundle as {"name", "strands":[{"name","index","expr"}]}.
func (b *Bundle) MarshalJSON() ([]byte, error) {
	strands := make([]jsonStrand, len(b.Strands))
	for i, s := range b.Strands {
		raw, err := MarshalExpr(s.Expr)
		if err != nil {
			return nil, err
		}
		strands[i] = jsonStrand{Name: s.Name, Index: s.Index, Expr: raw}
	}
	return json.Marshal(struct {
		Name    string       `json:"name"`
		Strands []jsonStrand `json:"strands"`
	}{b.Name, strands})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name    string       `json:"name"`
		Strands []jsonStrand `json:"strands"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Name = raw.Name
	b.Strands = make([]Strand, len(raw.Strands))
	for i, s := range raw.Strands {
		expr, err := UnmarshalExpr(s.Expr)
		if err != nil {
			return err
		}
		b.Strands[i] = Strand{Name: s.Name, Index: s.Index, Expr: expr}
	}
	return nil
}

// MarshalJSON encodes a Spindle as {"name","params",locals",returns":[expr]}.
func (s *Spindle) MarshalJSON() ([]byte, error) {
	returns := make([]json.RawMessage, len(s.Returns))
	for i, r := range s.Returns {
		raw, err := MarshalExpr(r)
		if err != nil {
			return nil, err
		}
		returns[i] = raw
	}
	locals := make(map[string]json.RawMessage, len(s.Locals))
	for name, b := range s.Locals {
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		locals[name] = raw
	}
	return json.Marshal(struct {
		Name    string                     `json:"name"`
		Params  []string                   `json:"params"`
		Locals  map[string]json.RawMessage `json:"locals"`
		Returns []json.RawMessage          `json:"returns"`
	}{s.Name, nonNilStrings(s.Params), locals, returns})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *Spindle) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name    string                     `json:"name"`
		Params  []string                   `json:"params"`
		Locals  map[string]json.RawMessage `json:"locals"`
		Returns []json.RawMessage          `json:"returns"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Name = raw.Name
	s.Params = raw.Params
	s.Locals = make(map[string]*Bundle, len(raw.Locals))
	for name, r := range raw.Locals {
		b := &Bundle{}
		if err := json.Unmarshal(r, b); err != nil {
			return err
		}
		s.Locals[name] = b
	}
	s.Returns = make([]Expr, len(raw.Returns))
	for i, r := range raw.Returns {
		e, err := UnmarshalExpr(r)
		if err != nil {
			return err
		}
		s.Returns[i] = e
	}
	return nil
}

// MarshalExpr encodes an Expr as the tagged object format of spec.md §6.2.
func MarshalExpr(e Expr) (json.RawMessage, error) {
	if e == nil {
		return json.RawMessage("null"), nil
	}
	switch n := e.(type) {
	case *Num:
		return json.Marshal(struct {
			Kind  string  `json:"kind"`
			Value float64 `json:"value"`
		}{"num", n.Value})
	case *Param:
		return json.Marshal(struct {
			Kind string `json:"kind"`
			Name string `json:"name"`
		}{"param", n.Name})
	case *Index:
		idx, err := MarshalExpr(n.IndexExpr)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Kind   string          `json:"kind"`
			Bundle string          `json:"bundle"`
			Index  json.RawMessage `json:"index"`
		}{"index", n.Bundle, idx})
	case *BinaryOp:
		l, err := MarshalExpr(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := MarshalExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Kind  string          `json:"kind"`
			Op    string          `json:"op"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}{"binaryOp", n.Op, l, r})
	case *UnaryOp:
		x, err := MarshalExpr(n.X)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Kind    string          `json:"kind"`
			Op      string          `json:"op"`
			Operand json.RawMessage `json:"operand"`
		}{"unaryOp", n.Op, x})
	case *Builtin:
		args, err := marshalExprs(n.Args)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Kind string            `json:"kind"`
			Name string            `json:"name"`
			Args []json.RawMessage `json:"args"`
		}{"builtin", n.Name, args})
	case *Call:
		args, err := marshalExprs(n.Args)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Kind    string            `json:"kind"`
			Spindle string            `json:"spindle"`
			Args    []json.RawMessage `json:"args"`
		}{"call", n.Spindle, args})
	case *Extract:
		call, err := MarshalExpr(n.Call)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Kind  string          `json:"kind"`
			Call  json.RawMessage `json:"call"`
			Index int             `json:"index"`
		}{"extract", call, n.Index})
	case *Remap:
		base, err := MarshalExpr(n.Base)
		if err != nil {
			return nil, err
		}
		subs := make(map[string]json.RawMessage, len(n.Substitutions))
		for k, v := range n.Substitutions {
			raw, err := MarshalExpr(v)
			if err != nil {
				return nil, err
			}
			subs[k] = raw
		}
		return json.Marshal(struct {
			Kind          string                     `json:"kind"`
			Base          json.RawMessage            `json:"base"`
			Substitutions map[string]json.RawMessage `json:"substitutions"`
		}{"remap", base, subs})
	case *CacheRead:
		return json.Marshal(struct {
			Kind       string `json:"kind"`
			CacheIndex int    `json:"cacheIndex"`
			Tap        int    `json:"tap"`
		}{"cacheRead", n.CacheIndex, n.TapOffset})
	default:
		return nil, fmt.Errorf("ir: no JSON encoding for %T", e)
	}
}

func marshalExprs(exprs []Expr) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(exprs))
	for i, e := range exprs {
		raw, err := MarshalExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}

// UnmarshalExpr decodes the tagged object format of spec.md §6.2.
func UnmarshalExpr(data json.RawMessage) (Expr, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Kind {
	case "num":
		var v struct {
			Value float64 `json:"value"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &Num{Value: v.Value}, nil
	case "param":
		var v struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &Param{Name: v.Name}, nil
	case "index":
		var v struct {
			Bundle string          `json:"bundle"`
			Index  json.RawMessage `json:"index"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		idx, err := UnmarshalExpr(v.Index)
		if err != nil {
			return nil, err
		}
		return &Index{Bundle: v.Bundle, IndexExpr: idx}, nil
	case "binaryOp":
		var v struct {
			Op    string          `json:"op"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		l, err := UnmarshalExpr(v.Left)
		if err != nil {
			return nil, err
		}
		r, err := UnmarshalExpr(v.Right)
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Op: v.Op, Left: l, Right: r}, nil
	case "unaryOp":
		var v struct {
			Op      string          `json:"op"`
			Operand json.RawMessage `json:"operand"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		x, err := UnmarshalExpr(v.Operand)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: v.Op, X: x}, nil
	case "builtin":
		var v struct {
			Name string            `json:"name"`
			Args []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		args, err := unmarshalExprs(v.Args)
		if err != nil {
			return nil, err
		}
		return &Builtin{Name: v.Name, Args: args}, nil
	case "call":
		var v struct {
			Spindle string            `json:"spindle"`
			Args    []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		args, err := unmarshalExprs(v.Args)
		if err != nil {
			return nil, err
		}
		return &Call{Spindle: v.Spindle, Args: args}, nil
	case "extract":
		var v struct {
			Call  json.RawMessage `json:"call"`
			Index int             `json:"index"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		call, err := UnmarshalExpr(v.Call)
		if err != nil {
			return nil, err
		}
		return &Extract{Call: call, Index: v.Index}, nil
	case "remap":
		var v struct {
			Base          json.RawMessage            `json:"base"`
			Substitutions map[string]json.RawMessage `json:"substitutions"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		base, err := UnmarshalExpr(v.Base)
		if err != nil {
			return nil, err
		}
		subs := make(map[string]Expr, len(v.Substitutions))
		for k, raw := range v.Substitutions {
			e, err := UnmarshalExpr(raw)
			if err != nil {
				return nil, err
			}
			subs[k] = e
		}
		return &Remap{Base: base, Substitutions: subs}, nil
	case "cacheRead":
		var v struct {
			CacheIndex int `json:"cacheIndex"`
			Tap        int `json:"tap"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &CacheRead{CacheIndex: v.CacheIndex, TapOffset: v.Tap}, nil
	default:
		return nil, fmt.Errorf("ir: unknown expr kind %q", head.Kind)
	}
}

func unmarshalExprs(raws []json.RawMessage) ([]Expr, error) {
	out := make([]Expr, len(raws))
	for i, raw := range raws {
		e, err := UnmarshalExpr(raw)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}
