// Copyright 2026 go-innerproduct Authors
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

package fc

import "fmt"

// ShapeError reports tensor dimensions that are inconsistent with the
// layer configuration or with each other. It is always raised before any
// output element is written.
type ShapeError struct {
	Op     string
	Detail string
}

func (e *ShapeError) Error() string {
	return "fc: " + e.Op + ": " + e.Detail
}

func shapeErrf(op, format string, args ...any) error {
	return &ShapeError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// TypeError reports an unsupported tensor element type. The compute
// kernels only operate on F32 tensors.
type TypeError struct {
	Op    string
	DType DType
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("fc: %s: unsupported element type %s", e.Op, e.DType)
}

// ConfigError reports malformed layer parameters, such as a missing bias
// tensor when the bias term is enabled.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string {
	return "fc: config: " + e.Detail
}

func configErrf(format string, args ...any) error {
	return &ConfigError{Detail: fmt.Sprintf(format, args...)}
}
