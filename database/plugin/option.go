// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plugin

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/pflag"
)

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota + 1
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

// PluginOption describes a single configurable value for a plugin. Dest must
// be a pointer of the type matching Type (*string, *bool, *int or *uint64).
type PluginOption struct {
	DefaultValue any
	Dest         any
	Name         string
	Description  string
	Type         PluginOptionType
}

var errNilDest = errors.New("nil destination")

// assign performs a type-checked write of value into the option destination
func (o *PluginOption) assign(value any) error {
	if o.Dest == nil {
		return fmt.Errorf("option %s: %w", o.Name, errNilDest)
	}
	switch o.Type {
	case PluginOptionTypeString:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf(
				"invalid type for option %s: expected string",
				o.Name,
			)
		}
		return setDest(o, v)
	case PluginOptionTypeBool:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf(
				"invalid type for option %s: expected bool",
				o.Name,
			)
		}
		return setDest(o, v)
	case PluginOptionTypeInt:
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf(
				"invalid type for option %s: expected int",
				o.Name,
			)
		}
		return setDest(o, v)
	case PluginOptionTypeUint:
		switch tv := value.(type) {
		case uint64:
			return setDest(o, tv)
		case int:
			if tv < 0 {
				return fmt.Errorf(
					"invalid value for option %s: negative int",
					o.Name,
				)
			}
			return setDest(o, uint64(tv))
		default:
			return fmt.Errorf(
				"invalid type for option %s: expected uint64 or int",
				o.Name,
			)
		}
	default:
		return fmt.Errorf(
			"unknown plugin option type %d for option %s",
			o.Type,
			o.Name,
		)
	}
}

// assignString parses a textual value (from the environment) and assigns it
func (o *PluginOption) assignString(val string) error {
	switch o.Type {
	case PluginOptionTypeString:
		return o.assign(val)
	case PluginOptionTypeBool:
		v, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("option %s: %w", o.Name, err)
		}
		return o.assign(v)
	case PluginOptionTypeInt:
		v, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("option %s: %w", o.Name, err)
		}
		return o.assign(v)
	case PluginOptionTypeUint:
		v, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("option %s: %w", o.Name, err)
		}
		return o.assign(v)
	default:
		return fmt.Errorf(
			"unknown plugin option type %d for option %s",
			o.Type,
			o.Name,
		)
	}
}

func setDest[T any](o *PluginOption, v T) error {
	dest, ok := o.Dest.(*T)
	if !ok {
		return fmt.Errorf(
			"invalid destination type for option %s: expected *%T",
			o.Name,
			v,
		)
	}
	if dest == nil {
		return fmt.Errorf("option %s: %w", o.Name, errNilDest)
	}
	*dest = v
	return nil
}

// addToFlagSet registers the option as a flag. The current destination value
// is used as the flag default so earlier assignments are preserved.
func (o *PluginOption) addToFlagSet(fs *pflag.FlagSet, flagName string) error {
	switch o.Type {
	case PluginOptionTypeString:
		dest, ok := o.Dest.(*string)
		if !ok || dest == nil {
			return fmt.Errorf("option %s: invalid destination", o.Name)
		}
		fs.StringVar(dest, flagName, *dest, o.Description)
	case PluginOptionTypeBool:
		dest, ok := o.Dest.(*bool)
		if !ok || dest == nil {
			return fmt.Errorf("option %s: invalid destination", o.Name)
		}
		fs.BoolVar(dest, flagName, *dest, o.Description)
	case PluginOptionTypeInt:
		dest, ok := o.Dest.(*int)
		if !ok || dest == nil {
			return fmt.Errorf("option %s: invalid destination", o.Name)
		}
		fs.IntVar(dest, flagName, *dest, o.Description)
	case PluginOptionTypeUint:
		dest, ok := o.Dest.(*uint64)
		if !ok || dest == nil {
			return fmt.Errorf("option %s: invalid destination", o.Name)
		}
		fs.Uint64Var(dest, flagName, *dest, o.Description)
	default:
		return fmt.Errorf(
			"unknown plugin option type %d for option %s",
			o.Type,
			o.Name,
		)
	}
	return nil
}
