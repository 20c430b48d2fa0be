// Copyright 2025 Kadir Pekel
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

// Package filetool implements the filesystem-facing tools: read_file,
// write_file, str_replace, and list_directory. All four share a PathGuard
// that resolves symlinks and checks containment against the configured
// working directory.
package filetool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard resolves a user-supplied path against a working directory and
// rejects anything that would escape it, including via symlinks.
type PathGuard struct {
	WorkingDir string
}

// Resolve returns the absolute, symlink-resolved path for rel, or an error
// if it falls outside g.WorkingDir. A non-existent target is resolved by
// walking up to the nearest existing ancestor (so write_file can create new
// files), then re-joining the remainder.
func (g PathGuard) Resolve(rel string) (string, error) {
	base, err := filepath.Abs(g.WorkingDir)
	if err != nil {
		return "", fmt.Errorf("invalid working directory: %w", err)
	}
	base, err = filepath.EvalSymlinks(base)
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}

	joined := filepath.Join(base, rel)
	resolved, remainder, err := resolveExistingPrefix(joined)
	if err != nil {
		return "", err
	}

	full := resolved
	if remainder != "" {
		full = filepath.Join(resolved, remainder)
	}

	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes working directory: %s", rel)
	}
	return full, nil
}

// resolveExistingPrefix walks up path until it finds an existing ancestor,
// resolving any symlinks found along the way, and returns that ancestor plus
// the non-existent remainder (empty if path itself exists).
func resolveExistingPrefix(path string) (resolved, remainder string, err error) {
	cur := path
	var tail []string
	for {
		if _, statErr := os.Lstat(cur); statErr == nil {
			real, evalErr := filepath.EvalSymlinks(cur)
			if evalErr != nil {
				return "", "", fmt.Errorf("resolve path: %w", evalErr)
			}
			return real, filepath.Join(tail...), nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", "", fmt.Errorf("invalid path")
		}
		tail = append([]string{filepath.Base(cur)}, tail...)
		cur = parent
	}
}
