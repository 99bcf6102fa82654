// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf

import (
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

// ConcatInto merges files, in order, into a single recording and writes it
// to w. Every file after the first is checked for header compatibility
// against the first concurrently, via errgroup, before any bytes are
// written; the merge and the eventual Save are then carried out
// sequentially, since the destination stream is owned exclusively for the
// duration of one Save call.
//
// It returns IncompatibleHeaderError if any file's signal layout doesn't
// match files[0], ErrAppendOutOfOrder if a file starts before the files
// merged ahead of it end, and whatever error Save returns.
func ConcatInto(w io.WriteSeeker, files ...*File) error {
	if len(files) == 0 {
		return fmt.Errorf("edf: ConcatInto requires at least one file")
	}

	base := files[0]
	var g errgroup.Group
	for _, other := range files[1:] {
		other := other
		g.Go(func() error {
			if !base.IsCompatibleWith(other) {
				return &IncompatibleHeaderError{Reason: fmt.Sprintf("signal layout or record duration mismatch with %q", other.Header.Recording.Raw)}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	merged := base.Clone()
	for _, other := range files[1:] {
		if err := merged.Append(other); err != nil {
			return err
		}
	}

	return merged.Save(w)
}
