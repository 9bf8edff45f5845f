// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package hw

// pageSpan returns the page aligned start, the offset of base within that
// page and the page rounded length covering [base, base+size).
func pageSpan(base, size, page uintptr) (start, delta, length uintptr) {
	start = base &^ (page - 1)
	delta = base - start
	length = (delta + size + page - 1) &^ (page - 1)
	return
}
